// Package client talks to the annotation REST API with a cookie session.
// It implements workspace.API so a workspace can run outside the browser.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/workspace"
)

const defaultTimeout = 60 * time.Second

var _ workspace.API = (*Client)(nil)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client. Its Jar must be set for the
// session cookie to be kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for the API rooted at baseURL, e.g. http://localhost:8080/api/v1.
func New(baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar, Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Users(ctx context.Context) ([]models.UserSummary, error) {
	var users []models.UserSummary
	if err := c.do(ctx, http.MethodGet, "/users", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Login starts a session; the cookie is kept in the client's jar.
func (c *Client) Login(ctx context.Context, userID uint, password string) (*models.UserSummary, error) {
	var resp struct {
		User models.UserSummary `json:"user"`
	}
	req := models.LoginRequest{UserID: userID, Password: password}
	if err := c.do(ctx, http.MethodPost, "/login", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Frames lists a unit's frames without inlined images.
func (c *Client) Frames(ctx context.Context, unit models.Unit) (*models.FramesResponse, error) {
	q := unitQuery(unit)
	q.Set("inline", "false")

	var resp models.FramesResponse
	if err := c.do(ctx, http.MethodGet, "/frames", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Categorizations(ctx context.Context, unit models.Unit) (*models.CategorizationsResponse, error) {
	var resp models.CategorizationsResponse
	if err := c.do(ctx, http.MethodGet, "/categorizations", unitQuery(unit), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Categorizations == nil {
		resp.Categorizations = map[string]models.CategorizationRecord{}
	}
	return &resp, nil
}

// SaveCategorizations returns the per-key result even when the server
// reports a failed write, so the caller can show what was rejected.
func (c *Client) SaveCategorizations(ctx context.Context, unit models.Unit, changes map[string]workspace.Record) (*models.SaveResult, error) {
	req := models.SaveCategorizationsRequest{UnitSelector: models.SelectorFor(unit), Changes: changes}

	var result models.SaveResult
	err := c.do(ctx, http.MethodPut, "/categorizations", nil, req, &result)
	if err != nil && !IsStatus(err, http.StatusInternalServerError) {
		return nil, err
	}
	if err != nil && result.Results == nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ConversationStatus(ctx context.Context, id uint, update models.ConversationStatusUpdate) (*models.ConversationDetails, error) {
	var resp struct {
		Conversation models.ConversationDetails `json:"conversation"`
	}
	path := "/conversations/" + strconv.FormatUint(uint64(id), 10) + "/status"
	if err := c.do(ctx, http.MethodPut, path, nil, update, &resp); err != nil {
		return nil, err
	}
	return &resp.Conversation, nil
}

// do sends body as JSON and decodes the response into out. A non-2xx
// response is returned as *APIError; out is still filled when the error
// body decodes into it.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &errBody) == nil && errBody.Error != "" {
			msg = errBody.Error
		}
		if out != nil {
			_ = json.Unmarshal(data, out)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func unitQuery(unit models.Unit) url.Values {
	sel := models.SelectorFor(unit)
	q := url.Values{}
	switch {
	case sel.GroupID != 0:
		q.Set("group_id", strconv.FormatUint(uint64(sel.GroupID), 10))
	case sel.ConversationID != 0:
		q.Set("conversation_id", strconv.FormatUint(uint64(sel.ConversationID), 10))
	default:
		q.Set("segment_id", strconv.FormatUint(uint64(sel.SegmentID), 10))
	}
	return q
}
