// Package judgeclient is a client for judge stations: it signs in with a
// judge PIN, follows the session's change feed, keeps unsubmitted scores as
// local drafts and submits them.
package judgeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/joshuadwray/audition-scoring/internal/logger"
	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/services"
)

// APIError is an error response from the scoring server
type APIError struct {
	Status  int            `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
}

// Error codes returned by the server
const (
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeSessionLocked = "SESSION_LOCKED"
)

// HasCode reports whether err is an APIError with the given code
func HasCode(err error, code string) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Code == code
}

// Client defines the server operations a judge station needs
type Client interface {
	// Login exchanges a judge PIN for a session token
	Login(ctx context.Context, session, pin string) (*services.LoginResult, error)
	// CurrentGroup returns the group the judge should be scoring
	CurrentGroup(ctx context.Context, sessionID string) (*services.CurrentGroup, error)
	// Instance fetches one pushed group
	Instance(ctx context.Context, sessionID, groupID string) (*models.Instance, error)
	// Submit sends a judge's scores for a group
	Submit(ctx context.Context, sessionID, groupID string, entries []services.ScoreEntry) (*services.SubmitResult, error)
	// BaseURL returns the server address
	BaseURL() string
}

// HTTPClient talks to the scoring server's JSON API
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
	token      string
}

// NewHTTPClient creates a client with cookie support
func NewHTTPClient(baseURL string, log logger.Logger) *HTTPClient {
	jar, _ := cookiejar.New(nil)
	return NewHTTPClientWithHTTPClient(baseURL, &http.Client{
		Timeout: 30 * time.Second,
		Jar:     jar,
	}, log)
}

// NewHTTPClientWithHTTPClient creates a client with a custom http.Client
func NewHTTPClientWithHTTPClient(baseURL string, httpClient *http.Client, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
}

// BaseURL returns the server address
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Token returns the bearer token from the last successful login
func (c *HTTPClient) Token() string {
	return c.token
}

// doRequest sends a JSON request and decodes a JSON response. Non-2xx
// responses are returned as *APIError.
func (c *HTTPClient) doRequest(ctx context.Context, method, path string, body, response any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	reqURL := c.baseURL + path
	c.log.Debug("Scoring request", "method", method, "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to scoring server: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug("Scoring response", "status", resp.StatusCode, "bytes", len(data))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Code == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if response == nil {
		return nil
	}
	if err := json.Unmarshal(data, response); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func sessionPath(sessionID string, parts ...string) string {
	p := "/api/sessions/" + url.PathEscape(sessionID)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// Login exchanges a judge PIN for a token and keeps it for later requests.
// session accepts a session ID or join code.
func (c *HTTPClient) Login(ctx context.Context, session, pin string) (*services.LoginResult, error) {
	req := map[string]string{"session": session, "role": string(models.RoleJudge), "pin": pin}

	var result services.LoginResult
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth/login", req, &result); err != nil {
		return nil, err
	}
	c.token = result.Token

	c.log.Info("Judge signed in", "session", result.SessionName, "judge", result.Identity.JudgeName)
	return &result, nil
}

// CurrentGroup returns the most recently pushed active group with its roster
func (c *HTTPClient) CurrentGroup(ctx context.Context, sessionID string) (*services.CurrentGroup, error) {
	var current services.CurrentGroup
	if err := c.doRequest(ctx, http.MethodGet, sessionPath(sessionID, "groups", "current"), nil, &current); err != nil {
		return nil, err
	}
	return &current, nil
}

// Instance fetches a pushed group. Templates are reported as not found.
func (c *HTTPClient) Instance(ctx context.Context, sessionID, groupID string) (*models.Instance, error) {
	var resp struct {
		Kind  models.GroupKind `json:"kind"`
		Group models.Instance  `json:"group"`
	}
	if err := c.doRequest(ctx, http.MethodGet, sessionPath(sessionID, "groups", groupID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Kind != models.KindInstance {
		return nil, &APIError{Status: http.StatusNotFound, Code: CodeNotFound, Message: "Group is not a pushed instance"}
	}
	return &resp.Group, nil
}

// Submit sends a full batch of scores for a group
func (c *HTTPClient) Submit(ctx context.Context, sessionID, groupID string, entries []services.ScoreEntry) (*services.SubmitResult, error) {
	req := struct {
		Scores []services.ScoreEntry `json:"scores"`
	}{Scores: entries}

	var result services.SubmitResult
	if err := c.doRequest(ctx, http.MethodPost, sessionPath(sessionID, "groups", groupID, "submissions"), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)
