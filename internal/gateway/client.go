package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/approvalflow/workflow-client/internal/system/config"
	"github.com/approvalflow/workflow-client/internal/system/constants"
	"github.com/approvalflow/workflow-client/internal/system/middleware"
	"github.com/approvalflow/workflow-client/internal/system/utils"
)

// TokenSource supplies the bearer token attached to outbound calls
type TokenSource interface {
	Token() string
}

// Client talks to the remote request API
type Client struct {
	httpClient *http.Client
	config     *config.GatewayConfig
	tokens     TokenSource
	logger     *logrus.Logger
}

// NewHTTPClient builds the pooled HTTP client shared by every gateway Client
func NewHTTPClient(cfg *config.GatewayConfig) *http.Client {
	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig:     &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}, //nolint:gosec // local development API uses a self-signed certificate
		},
	}
}

// NewClient creates a gateway client. tokens may be nil for unauthenticated use.
func NewClient(cfg *config.GatewayConfig, httpClient *http.Client, tokens TokenSource, logger *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg)
	}
	return &Client{
		httpClient: httpClient,
		config:     cfg,
		tokens:     tokens,
		logger:     logger,
	}
}

// do performs one API call and returns the response body of a 2xx response.
// GET calls are retried on transport errors up to the configured attempts.
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body interface{}) ([]byte, error) {
	target := c.config.GetEndpointURL(endpoint)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	correlationID, ok := middleware.CorrelationIDFromContext(ctx)
	if !ok {
		correlationID = utils.GenerateUUID()
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.config.RetryAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		respBody, statusCode, err := c.send(ctx, method, target, payload, correlationID)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			c.logger.WithError(err).WithFields(logrus.Fields{
				"url":            target,
				"attempt":        attempt,
				"correlation_id": correlationID,
			}).Warn("Request API call failed")
			continue
		}

		if statusCode < 200 || statusCode >= 300 {
			c.logger.WithFields(logrus.Fields{
				"statusCode":     statusCode,
				"url":            target,
				"correlation_id": correlationID,
			}).Warn("Request API returned non-success status")
			return nil, &StatusError{StatusCode: statusCode, Message: errorMessage(respBody)}
		}

		return respBody, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrRemote, lastErr)
}

func (c *Client) send(ctx context.Context, method, target string, payload []byte, correlationID string) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(constants.AcceptHeaderName, constants.ContentTypeJSON)
	if payload != nil {
		req.Header.Set(constants.ContentTypeHeaderName, constants.ContentTypeJSON)
	}
	req.Header.Set(constants.CorrelationIDHeaderName, correlationID)
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set(constants.AuthorizationHeaderName, constants.TokenTypeBearer+" "+token)
		}
	}

	c.logger.WithFields(logrus.Fields{
		"method":         method,
		"url":            target,
		"correlation_id": correlationID,
	}).Debug("Calling request API")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		return nil, 0, fmt.Errorf("request API call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"statusCode":     resp.StatusCode,
		"duration":       duration,
		"url":            target,
		"correlation_id": correlationID,
	}).Debug("Request API response received")

	return body, resp.StatusCode, nil
}

// errorMessage extracts a human readable message from an error body
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Title   string `json:"title"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			return payload.Message
		case payload.Title != "":
			return payload.Title
		case payload.Error != "":
			return payload.Error
		}
	}
	if len(body) > 200 {
		return string(body[:200])
	}
	return string(body)
}

// Close closes idle connections of the underlying HTTP client
func (c *Client) Close() {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
}

// isEmptyBody reports whether a 2xx response carried no payload
func isEmptyBody(body []byte) bool {
	return len(bytes.TrimSpace(body)) == 0
}
