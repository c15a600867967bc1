package workspace

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/approvalflow/workflow-client/internal/gateway"
	"github.com/approvalflow/workflow-client/internal/session"
	"github.com/approvalflow/workflow-client/internal/system/config"
)

// Initialize sets up the workspace module and registers its routes on api
func Initialize(api *gin.RouterGroup, cfg *config.Config, httpClient *http.Client, logger *logrus.Logger) *Registry {
	if httpClient == nil {
		httpClient = gateway.NewHTTPClient(&cfg.Gateway)
	}

	factory := func() *Workspace {
		holder := session.NewHolder()
		client := gateway.NewClient(&cfg.Gateway, httpClient, holder, logger)
		svc := session.NewService(holder, nil, client, logger)
		return New(svc, client, cfg.Requests, logger)
	}

	registry := NewRegistry(factory, cfg.Session.IdleTimeout, logger)
	handler := newWorkspaceHandler(registry, cfg, logger)
	registerRoutes(api, handler)

	return registry
}

// registerRoutes registers all session and request routes
func registerRoutes(api *gin.RouterGroup, h *workspaceHandler) {
	api.POST("/session", h.login)

	authed := api.Group("", h.requireWorkspace)
	{
		authed.GET("/session", h.getSession)
		authed.DELETE("/session", h.logout)

		requests := authed.Group("/requests")
		{
			requests.POST("/refresh", h.refresh)
			requests.GET("/page", h.getPage)
			requests.PUT("/filters", h.applyFilters)
			requests.DELETE("/filters", h.clearFilters)
			requests.PUT("/sort", h.sortBy)
			requests.PUT("/page", h.setPage)
			requests.PUT("/page-size", h.setPageSize)
			requests.GET("/categories", h.getCategories)
			requests.GET("/page-numbers", h.getPageNumbers)
			requests.GET("/export.pdf", h.exportPage)

			requests.POST("", h.createRequest)
			requests.GET("/:id", h.getRequest)
			requests.GET("/:id/history", h.getHistory)
			requests.POST("/:id/approve", h.approve)
			requests.POST("/:id/reject", h.reject)
		}
	}
}
