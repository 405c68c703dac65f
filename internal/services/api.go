package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/clipx/internal/models"
	"github.com/desertthunder/clipx/internal/shared"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:5000"

// Client calls the clip API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenFunc
	logger     *log.Logger
}

// NewClient creates a [Client] for baseURL. token may be nil for an anonymous client.
//
// The given http.Client is copied, so its transport is not modified.
func NewClient(baseURL string, httpClient *http.Client, token TokenFunc) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: withCredentials(httpClient, token),
		token:      token,
		logger:     shared.NewLogger(io.Discard),
	}
}

// WithLogger sets the logger used for request tracing.
func (c *Client) WithLogger(l *log.Logger) *Client {
	if l != nil {
		c.logger = shared.WithLogger(l, "component", "api")
	}
	return c
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// errorResponse is the body the API sends with failures.
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// doRequest sends body as JSON and decodes a 2xx response into result.
//
// A non-empty token is sent as a request-level credential and takes precedence over the [TokenFunc].
func (c *Client) doRequest(ctx context.Context, method, path, token string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %s %s: %w", shared.ErrServiceUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", shared.ErrServiceUnavailable, err)
	}

	c.logger.Debug("request", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(method, path, resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: %s %s: %v", shared.ErrMalformedResponse, method, path, err)
		}
	}
	return nil
}

// statusError maps a failed response onto the shared error taxonomy.
func statusError(method, path string, status int, body []byte) error {
	msg := http.StatusText(status)

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch {
		case errResp.Message != "":
			msg = errResp.Message
		case errResp.Error != "":
			msg = errResp.Error
		}
	}

	kind := shared.ErrAPIRequest
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = shared.ErrUnauthorized
	case http.StatusNotFound:
		kind = shared.ErrNotFound
	}
	return fmt.Errorf("%w: %s %s (status %d): %s", kind, method, path, status, msg)
}

// requireToken fails fast for operations that need a login.
func (c *Client) requireToken() error {
	if c.token == nil || c.token() == "" {
		return shared.ErrNotAuthenticated
	}
	return nil
}

// Login exchanges credentials for a token and the user's profile.
//
// Calls POST /api/auth/login.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	var resp models.AuthResult
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth/login", "", creds, &resp); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if err := checkAuthResult(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns its token and profile.
//
// Calls POST /api/auth/register.
func (c *Client) Register(ctx context.Context, reg models.Registration) (*models.AuthResult, error) {
	var resp models.AuthResult
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth/register", "", reg, &resp); err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	if err := checkAuthResult(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func checkAuthResult(r *models.AuthResult) error {
	if r.Token == "" || r.User == nil || r.User.ID == "" {
		return fmt.Errorf("%w: missing token or user", shared.ErrMalformedResponse)
	}
	return nil
}

// CurrentUser fetches the profile that token belongs to, sending token regardless of the client's [TokenFunc].
//
// Calls GET /api/auth/me.
func (c *Client) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	var resp struct {
		User *models.User `json:"user"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/api/auth/me", token, nil, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil || resp.User.ID == "" {
		return nil, fmt.Errorf("%w: missing user", shared.ErrMalformedResponse)
	}
	return resp.User, nil
}

// Me fetches the profile for the client's current token.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	return c.CurrentUser(ctx, c.token())
}

// ListClips fetches one page of the feed. Pages start at 1.
//
// Calls GET /api/clips?page=&limit=.
func (c *Client) ListClips(ctx context.Context, page, limit int) (*models.ClipPage, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var resp models.ClipPage
	if err := c.doRequest(ctx, http.MethodGet, "/api/clips?"+q.Encode(), "", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list clips: %w", err)
	}
	return &resp, nil
}

// GetClip fetches a single clip.
//
// Calls GET /api/clips/:id.
func (c *Client) GetClip(ctx context.Context, id string) (*models.Clip, error) {
	var resp struct {
		Clip *models.Clip `json:"clip"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/api/clips/"+url.PathEscape(id), "", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get clip %s: %w", id, err)
	}
	if resp.Clip == nil {
		return nil, fmt.Errorf("%w: missing clip", shared.ErrMalformedResponse)
	}
	return resp.Clip, nil
}

// CreateClip uploads a clip. Requires a login.
//
// Calls POST /api/clips.
func (c *Client) CreateClip(ctx context.Context, clip models.NewClip) (*models.Clip, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}

	var resp struct {
		Clip *models.Clip `json:"clip"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/api/clips", "", clip, &resp); err != nil {
		return nil, fmt.Errorf("failed to create clip: %w", err)
	}
	if resp.Clip == nil {
		return nil, fmt.Errorf("%w: missing clip", shared.ErrMalformedResponse)
	}
	return resp.Clip, nil
}

// LikeClip toggles the current user's like on a clip. Requires a login.
//
// Calls POST /api/clips/:id/like.
func (c *Client) LikeClip(ctx context.Context, id string) (*models.LikeResult, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}

	var resp models.LikeResult
	if err := c.doRequest(ctx, http.MethodPost, "/api/clips/"+url.PathEscape(id)+"/like", "", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to like clip %s: %w", id, err)
	}
	return &resp, nil
}

// ListComments fetches every comment on a clip.
//
// Calls GET /api/clips/:id/comments.
func (c *Client) ListComments(ctx context.Context, clipID string) ([]models.Comment, error) {
	var resp struct {
		Comments []models.Comment `json:"comments"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/api/clips/"+url.PathEscape(clipID)+"/comments", "", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list comments for %s: %w", clipID, err)
	}
	return resp.Comments, nil
}

// AddComment posts a comment on a clip. Requires a login.
//
// Calls POST /api/clips/:id/comments.
func (c *Client) AddComment(ctx context.Context, clipID, content string) (*models.Comment, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}

	body := map[string]string{"content": content}
	var resp struct {
		Comment *models.Comment `json:"comment"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/api/clips/"+url.PathEscape(clipID)+"/comments", "", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to add comment to %s: %w", clipID, err)
	}
	if resp.Comment == nil {
		return nil, fmt.Errorf("%w: missing comment", shared.ErrMalformedResponse)
	}
	return resp.Comment, nil
}

// GetUser fetches a public profile.
//
// Calls GET /api/users/:id.
func (c *Client) GetUser(ctx context.Context, id string) (*models.User, error) {
	var resp struct {
		User *models.User `json:"user"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id), "", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	if resp.User == nil {
		return nil, fmt.Errorf("%w: missing user", shared.ErrMalformedResponse)
	}
	return resp.User, nil
}

// ListUserClips fetches every clip uploaded by a user.
//
// Calls GET /api/clips/user/:id.
func (c *Client) ListUserClips(ctx context.Context, userID string) ([]models.Clip, error) {
	var resp struct {
		Clips []models.Clip `json:"clips"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/api/clips/user/"+url.PathEscape(userID), "", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list clips for user %s: %w", userID, err)
	}
	return resp.Clips, nil
}
