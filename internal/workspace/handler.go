package workspace

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/approvalflow/workflow-client/internal/report"
	"github.com/approvalflow/workflow-client/internal/request/model"
	sessionmodel "github.com/approvalflow/workflow-client/internal/session/model"
	"github.com/approvalflow/workflow-client/internal/system/config"
	"github.com/approvalflow/workflow-client/internal/system/constants"
	"github.com/approvalflow/workflow-client/internal/system/error/serviceerror"
	"github.com/approvalflow/workflow-client/internal/system/utils"
)

// workspaceHandler handles HTTP requests of the list and detail views
type workspaceHandler struct {
	registry *Registry
	config   *config.Config
	logger   *logrus.Logger
}

type sessionResponse struct {
	Identity     sessionmodel.Identity     `json:"identity"`
	Capabilities sessionmodel.Capabilities `json:"capabilities"`
}

// listResponse is the list view: the displayed page plus pager and filter state
type listResponse struct {
	model.Page
	Criteria        model.FilterCriteria      `json:"criteria"`
	PageNumbers     []int                     `json:"pageNumbers"`
	PageSizeOptions []int                     `json:"pageSizeOptions"`
	Capabilities    sessionmodel.Capabilities `json:"capabilities"`
}

type sortRequest struct {
	OrderBy        string `json:"orderBy" binding:"required"`
	OrderDirection string `json:"orderDirection"`
}

type pageRequest struct {
	Page int `json:"page" binding:"required"`
}

type pageSizeRequest struct {
	PageSize int `json:"pageSize"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// newWorkspaceHandler creates a new workspace handler
func newWorkspaceHandler(registry *Registry, cfg *config.Config, logger *logrus.Logger) *workspaceHandler {
	return &workspaceHandler{
		registry: registry,
		config:   cfg,
		logger:   logger,
	}
}

// requireWorkspace resolves the caller's workspace from the session cookie
func (h *workspaceHandler) requireWorkspace(c *gin.Context) {
	id, err := c.Cookie(h.config.Session.CookieName)
	if err != nil || !utils.IsValidUUID(id) {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.AuthenticationLostError, "Not signed in"))
		return
	}
	ws, ok := h.registry.Get(id)
	if !ok {
		h.clearCookie(c)
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.AuthenticationLostError, "Your session has expired, please sign in again"))
		return
	}
	if _, svcErr := ws.activeIdentity(c.Request.Context()); svcErr != nil {
		h.registry.Remove(id)
		h.clearCookie(c)
		utils.SendError(c, svcErr)
		return
	}
	c.Set(constants.SessionIDKey, id)
	c.Set(constants.WorkspaceKey, ws)
	c.Next()
}

func workspaceFrom(c *gin.Context) *Workspace {
	return c.MustGet(constants.WorkspaceKey).(*Workspace)
}

// login handles POST /session
func (h *workspaceHandler) login(c *gin.Context) {
	var credentials sessionmodel.Credentials
	if err := c.ShouldBindJSON(&credentials); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "email and password are required"))
		return
	}

	id, _ := c.Cookie(h.config.Session.CookieName)
	ws, existing := h.registry.Get(id)
	if !existing {
		id, ws = h.registry.Create()
	}

	ctx := c.Request.Context()
	identity, svcErr := ws.Session().Login(ctx, credentials)
	if svcErr != nil {
		if !existing {
			h.registry.Remove(id)
		}
		utils.SendError(c, svcErr)
		return
	}

	ws.Reset()
	if _, svcErr := ws.Refresh(ctx); svcErr != nil {
		h.logger.WithField("error", svcErr.String()).Warn("Initial refresh after login failed")
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.config.Session.CookieName, id, int(h.config.Session.IdleTimeout.Seconds()), "/", "", c.Request.TLS != nil, true)
	utils.SendOKResponse(c, sessionResponse{
		Identity:     *identity,
		Capabilities: sessionmodel.CapabilitiesOf(*identity),
	})
}

// getSession handles GET /session
func (h *workspaceHandler) getSession(c *gin.Context) {
	ws := workspaceFrom(c)
	identity, ok := ws.Session().Holder().CurrentIdentity()
	if !ok {
		utils.SendError(c, &serviceerror.AuthenticationLostError)
		return
	}
	utils.SendOKResponse(c, sessionResponse{
		Identity:     identity,
		Capabilities: sessionmodel.CapabilitiesOf(identity),
	})
}

// logout handles DELETE /session
func (h *workspaceHandler) logout(c *gin.Context) {
	ws := workspaceFrom(c)
	if svcErr := ws.Session().Logout(c.Request.Context()); svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	h.registry.Remove(c.GetString(constants.SessionIDKey))
	h.clearCookie(c)
	utils.SendNoContentResponse(c)
}

// refresh handles POST /requests/refresh
func (h *workspaceHandler) refresh(c *gin.Context) {
	ws := workspaceFrom(c)
	if _, svcErr := ws.Refresh(c.Request.Context()); svcErr != nil {
		h.sendWorkspaceError(c, svcErr)
		return
	}
	h.sendList(c, ws)
}

// getPage handles GET /requests/page. The working set is loaded on first use.
func (h *workspaceHandler) getPage(c *gin.Context) {
	ws := workspaceFrom(c)
	if !ws.Loaded() {
		if _, svcErr := ws.Refresh(c.Request.Context()); svcErr != nil {
			h.sendWorkspaceError(c, svcErr)
			return
		}
	}
	h.sendList(c, ws)
}

// applyFilters handles PUT /requests/filters
func (h *workspaceHandler) applyFilters(c *gin.Context) {
	var criteria model.FilterCriteria
	if err := c.ShouldBindJSON(&criteria); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "invalid filter criteria"))
		return
	}
	ws := workspaceFrom(c)
	if _, svcErr := ws.ApplyFilters(criteria); svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	h.sendList(c, ws)
}

// clearFilters handles DELETE /requests/filters
func (h *workspaceHandler) clearFilters(c *gin.Context) {
	ws := workspaceFrom(c)
	ws.ClearFilters()
	h.sendList(c, ws)
}

// sortBy handles PUT /requests/sort
func (h *workspaceHandler) sortBy(c *gin.Context) {
	var req sortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "orderBy is required"))
		return
	}
	ws := workspaceFrom(c)
	if _, svcErr := ws.SortBy(req.OrderBy, req.OrderDirection); svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	h.sendList(c, ws)
}

// setPage handles PUT /requests/page
func (h *workspaceHandler) setPage(c *gin.Context) {
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "page is required"))
		return
	}
	ws := workspaceFrom(c)
	ws.SetPage(req.Page)
	h.sendList(c, ws)
}

// setPageSize handles PUT /requests/page-size
func (h *workspaceHandler) setPageSize(c *gin.Context) {
	var req pageSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "invalid page size"))
		return
	}
	ws := workspaceFrom(c)
	if _, svcErr := ws.SetPageSize(req.PageSize); svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	h.sendList(c, ws)
}

// getCategories handles GET /requests/categories
func (h *workspaceHandler) getCategories(c *gin.Context) {
	utils.SendOKResponse(c, gin.H{"categories": workspaceFrom(c).Categories()})
}

// getPageNumbers handles GET /requests/page-numbers
func (h *workspaceHandler) getPageNumbers(c *gin.Context) {
	utils.SendOKResponse(c, gin.H{"pages": workspaceFrom(c).ListState().PageNumbers})
}

// exportPage handles GET /requests/export.pdf
func (h *workspaceHandler) exportPage(c *gin.Context) {
	ws := workspaceFrom(c)
	identity, _ := ws.Session().Holder().CurrentIdentity()
	state := ws.ListState()

	data, filename, err := report.BuildPagePDF(report.PageReport{
		GeneratedBy: identity.Name,
		Criteria:    state.Criteria,
		Page:        state.Page,
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to build page report")
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InternalServerError, "failed to build the report"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, constants.ContentTypePDF, data)
}

// createRequest handles POST /requests
func (h *workspaceHandler) createRequest(c *gin.Context) {
	var draft model.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "invalid request body"))
		return
	}

	ws := workspaceFrom(c)
	created, svcErr := ws.Create(c.Request.Context(), draft)
	if svcErr != nil {
		h.sendWorkspaceError(c, svcErr)
		return
	}
	if created == nil {
		utils.SendCreatedResponse(c, gin.H{"message": "Request submitted"})
		return
	}
	utils.SendCreatedResponse(c, created)
}

// getRequest handles GET /requests/:id
func (h *workspaceHandler) getRequest(c *gin.Context) {
	ws := workspaceFrom(c)
	detail, svcErr := ws.Detail(c.Request.Context(), c.Param("id"))
	if svcErr != nil {
		h.sendWorkspaceError(c, svcErr)
		return
	}
	utils.SendOKResponse(c, detail)
}

// getHistory handles GET /requests/:id/history
func (h *workspaceHandler) getHistory(c *gin.Context) {
	ws := workspaceFrom(c)
	history, svcErr := ws.History(c.Request.Context(), c.Param("id"))
	if svcErr != nil {
		h.sendWorkspaceError(c, svcErr)
		return
	}
	utils.SendOKResponse(c, gin.H{"history": history})
}

// approve handles POST /requests/:id/approve
func (h *workspaceHandler) approve(c *gin.Context) {
	ws := workspaceFrom(c)
	detail, svcErr := ws.Approve(c.Request.Context(), c.Param("id"))
	if svcErr != nil {
		h.sendWorkspaceError(c, svcErr)
		return
	}
	utils.SendOKResponse(c, detail)
}

// reject handles POST /requests/:id/reject
func (h *workspaceHandler) reject(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "invalid request body"))
		return
	}

	ws := workspaceFrom(c)
	detail, svcErr := ws.Reject(c.Request.Context(), c.Param("id"), req.Reason)
	if svcErr != nil {
		h.sendWorkspaceError(c, svcErr)
		return
	}
	utils.SendOKResponse(c, detail)
}

func (h *workspaceHandler) sendList(c *gin.Context, ws *Workspace) {
	state := ws.ListState()
	utils.SendOKResponse(c, listResponse{
		Page:            state.Page,
		Criteria:        state.Criteria,
		PageNumbers:     state.PageNumbers,
		PageSizeOptions: h.config.Requests.PageSizeOptions,
		Capabilities:    ws.Session().Holder().Capabilities(),
	})
}

// sendWorkspaceError writes svcErr and ends the browser session when the
// remote API dropped the caller's authentication.
func (h *workspaceHandler) sendWorkspaceError(c *gin.Context, svcErr *serviceerror.ServiceError) {
	if svcErr.Is(serviceerror.AuthenticationLostError) {
		h.registry.Remove(c.GetString(constants.SessionIDKey))
		h.clearCookie(c)
	}
	utils.SendError(c, svcErr)
}

func (h *workspaceHandler) clearCookie(c *gin.Context) {
	c.SetCookie(h.config.Session.CookieName, "", -1, "/", "", c.Request.TLS != nil, true)
}
