package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	requestmodel "github.com/approvalflow/workflow-client/internal/request/model"
	sessionmodel "github.com/approvalflow/workflow-client/internal/session/model"
)

// LoginResult is the token and profile returned by a successful login
type LoginResult struct {
	Token    string
	Identity sessionmodel.Identity
}

type createRequestBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    int    `json:"priority"`
	Status      int    `json:"status"`
	CreateBy    string `json:"create_by"`
}

type rejectBody struct {
	Reason     string `json:"reason"`
	RejectedBy string `json:"rejectedBy,omitempty"`
}

// Login exchanges credentials for a token and the caller's profile
func (c *Client) Login(ctx context.Context, credentials sessionmodel.Credentials) (*LoginResult, error) {
	body, err := c.do(ctx, http.MethodPost, c.config.Endpoints.Login, nil, credentials)
	if err != nil {
		return nil, err
	}

	result, err := decodeLogin(body)
	if err != nil {
		c.logger.WithError(err).Error("Failed to decode login response")
		return nil, err
	}
	return result, nil
}

// FetchRequests fetches the request list. Every populated field of query is
// sent as a hint; the remote API may ignore any of them.
func (c *Client) FetchRequests(ctx context.Context, query requestmodel.ListQuery) ([]requestmodel.RequestRecord, error) {
	body, err := c.do(ctx, http.MethodGet, c.config.Endpoints.Requests, listParams(query), nil)
	if err != nil {
		return nil, err
	}

	records, err := decodeRequestList(body)
	if err != nil {
		c.logger.WithError(err).Error("Failed to decode request list")
		return nil, err
	}

	c.logger.WithField("count", len(records)).Debug("Fetched request list")
	return records, nil
}

// FetchRequestByID fetches one request. A missing request yields ErrNotFound.
func (c *Client) FetchRequestByID(ctx context.Context, id string) (*requestmodel.RequestRecord, error) {
	body, err := c.do(ctx, http.MethodGet, c.requestPath(id, ""), nil, nil)
	if err != nil {
		return nil, err
	}
	if isEmptyBody(body) {
		return nil, fmt.Errorf("%w: empty body for request %s", ErrNotFound, id)
	}

	record, err := decodeRequest(body)
	if err != nil {
		c.logger.WithError(err).WithField("requestId", id).Error("Failed to decode request")
		return nil, err
	}
	return &record, nil
}

// FetchHistory fetches the audit history of a request. A missing history
// or an unrecognized payload is an empty sequence.
func (c *Client) FetchHistory(ctx context.Context, requestID string) ([]requestmodel.HistoryEntry, error) {
	endpoint := c.config.Endpoints.RequestHistory + "/" + url.PathEscape(requestID)
	body, err := c.do(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []requestmodel.HistoryEntry{}, nil
		}
		return nil, err
	}
	return decodeHistory(body), nil
}

// CreateRequest submits a new request on behalf of creatorID. It returns the
// created record when the API echoes it, nil otherwise.
func (c *Client) CreateRequest(ctx context.Context, draft requestmodel.Draft, creatorID string) (*requestmodel.RequestRecord, error) {
	rank, ok := draft.Priority.Rank()
	if !ok {
		return nil, fmt.Errorf("unknown priority %q", draft.Priority)
	}
	pending, _ := requestmodel.StatusPending.Rank()

	payload := createRequestBody{
		Title:       draft.Title,
		Description: draft.Description,
		Category:    draft.Category,
		Priority:    rank,
		Status:      pending,
		CreateBy:    creatorID,
	}

	body, err := c.do(ctx, http.MethodPost, c.config.Endpoints.Requests, nil, payload)
	if err != nil {
		return nil, err
	}
	return c.optionalRecord(body), nil
}

// Approve approves a pending request. The acting identity is sent under the
// field name the API expects for both review actions.
func (c *Client) Approve(ctx context.Context, id, actorID string) (*requestmodel.RequestRecord, error) {
	payload := map[string]string{}
	if actorID != "" {
		payload["rejected_By"] = actorID
	}

	body, err := c.do(ctx, http.MethodPatch, c.requestPath(id, c.config.Endpoints.ApproveSuffix), nil, payload)
	if err != nil {
		return nil, err
	}
	return c.optionalRecord(body), nil
}

// Reject rejects a pending request with the reviewer's reason
func (c *Client) Reject(ctx context.Context, id, reason, actorID string) (*requestmodel.RequestRecord, error) {
	payload := rejectBody{Reason: reason, RejectedBy: actorID}

	body, err := c.do(ctx, http.MethodPatch, c.requestPath(id, c.config.Endpoints.RejectSuffix), nil, payload)
	if err != nil {
		return nil, err
	}
	return c.optionalRecord(body), nil
}

func (c *Client) requestPath(id, suffix string) string {
	return c.config.Endpoints.Requests + "/" + url.PathEscape(id) + suffix
}

// optionalRecord decodes a mutation response when it carries a record.
// Acknowledgement-only bodies yield nil; callers refetch in that case.
func (c *Client) optionalRecord(body []byte) *requestmodel.RequestRecord {
	if isEmptyBody(body) {
		return nil
	}
	record, err := decodeRequest(body)
	if err != nil {
		c.logger.WithError(err).Debug("Mutation response carried no request record")
		return nil
	}
	return &record
}

func listParams(query requestmodel.ListQuery) url.Values {
	params := url.Values{}
	if query.Status != "" {
		params.Set("Status", string(query.Status))
	}
	if query.Category != "" {
		params.Set("Category", query.Category)
	}
	if query.Priority != "" {
		params.Set("Priority", string(query.Priority))
	}
	if query.Search != "" {
		params.Set("Search", query.Search)
	}
	if query.CreatedBy != "" {
		params.Set("CreatedBy", query.CreatedBy)
	}
	if query.Page > 0 {
		params.Set("Page", strconv.Itoa(query.Page))
	}
	if query.PageSize > 0 {
		params.Set("PageSize", strconv.Itoa(query.PageSize))
	}
	if query.OrderBy != "" {
		params.Set("OrderBy", orderByParam(query.OrderBy))
	}
	if query.OrderDirection != "" {
		params.Set("OrderDirection", string(query.OrderDirection))
	}
	return params
}
