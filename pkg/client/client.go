package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/abdallahh166/Orangesites-sub000/pkg/domain"
)

// TokenSource returns a valid access token for a protected call.
type TokenSource func(ctx context.Context) (string, error)

// Client is the Orange Sites API client.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default 30s transport timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a new API client. Protected calls fail until a token source is set.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UseTokenSource sets where protected calls get their bearer token.
// It must be called before the client is shared between goroutines.
func (c *Client) UseTokenSource(ts TokenSource) {
	c.tokens = ts
}

// --- Auth ---

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.AuthResponse, error) {
	var resp domain.AuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, call{method: http.MethodPost, path: "/auth/login", body: body, out: &resp, public: true}); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &resp, nil
}

// Register creates an account and returns its first token pair.
func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error) {
	var resp domain.AuthResponse
	if err := c.do(ctx, call{method: http.MethodPost, path: "/auth/register", body: req, out: &resp, public: true}); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	return &resp, nil
}

// Refresh rotates the token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.AuthResponse, error) {
	var resp domain.AuthResponse
	body := map[string]string{"refreshToken": refreshToken}
	if err := c.do(ctx, call{method: http.MethodPost, path: "/auth/refresh", body: body, out: &resp, public: true}); err != nil {
		return nil, fmt.Errorf("client.Refresh: %w", err)
	}
	return &resp, nil
}

// Logout revokes the refresh token server-side.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refreshToken": refreshToken}
	if err := c.do(ctx, call{method: http.MethodPost, path: "/auth/logout", body: body, public: true}); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// ForgotPassword asks the server to mail a password reset link.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	if err := c.do(ctx, call{method: http.MethodPost, path: "/auth/forgot-password", body: body, public: true}); err != nil {
		return fmt.Errorf("client.ForgotPassword: %w", err)
	}
	return nil
}

// ChangePassword changes the signed-in user's password.
func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	body := map[string]string{"currentPassword": currentPassword, "newPassword": newPassword}
	if err := c.post(ctx, "/auth/change-password", body, nil); err != nil {
		return fmt.Errorf("client.ChangePassword: %w", err)
	}
	return nil
}

// --- Users ---

// GetMe returns the authenticated user's profile.
func (c *Client) GetMe(ctx context.Context) (*domain.UserProfile, error) {
	var u domain.UserProfile
	if err := c.get(ctx, "/users/me", &u); err != nil {
		return nil, fmt.Errorf("client.GetMe: %w", err)
	}
	return &u, nil
}

// UpdateMe updates the authenticated user's profile.
func (c *Client) UpdateMe(ctx context.Context, req domain.UpdateProfileRequest) (*domain.UserProfile, error) {
	var u domain.UserProfile
	if err := c.do(ctx, call{method: http.MethodPatch, path: "/users/me", body: req, out: &u}); err != nil {
		return nil, fmt.Errorf("client.UpdateMe: %w", err)
	}
	return &u, nil
}

// --- Sites ---

// ListSites returns the sites visible to the caller.
func (c *Client) ListSites(ctx context.Context) ([]domain.Site, error) {
	var sites []domain.Site
	if err := c.get(ctx, "/sites", &sites); err != nil {
		return nil, fmt.Errorf("client.ListSites: %w", err)
	}
	return sites, nil
}

// GetSite fetches a single site by ID.
func (c *Client) GetSite(ctx context.Context, id int64) (*domain.Site, error) {
	var site domain.Site
	if err := c.get(ctx, "/sites/"+strconv.FormatInt(id, 10), &site); err != nil {
		return nil, fmt.Errorf("client.GetSite: %w", err)
	}
	return &site, nil
}

// ListSiteComponents returns the component catalog of a site.
func (c *Client) ListSiteComponents(ctx context.Context, siteID int64) ([]domain.Component, error) {
	var comps []domain.Component
	if err := c.get(ctx, "/sites/"+strconv.FormatInt(siteID, 10)+"/components", &comps); err != nil {
		return nil, fmt.Errorf("client.ListSiteComponents: %w", err)
	}
	return comps, nil
}

// --- Visits ---

// CreateVisit submits a completed inspection. idempotencyKey lets the server
// collapse retries of the same submission into one visit.
func (c *Client) CreateVisit(ctx context.Context, req domain.CreateVisitRequest, idempotencyKey string) (*domain.VisitCreated, error) {
	var created domain.VisitCreated
	header := http.Header{}
	if idempotencyKey != "" {
		header.Set("Idempotency-Key", idempotencyKey)
	}
	if err := c.do(ctx, call{method: http.MethodPost, path: "/visits", body: req, out: &created, header: header}); err != nil {
		return nil, fmt.Errorf("client.CreateVisit: %w", err)
	}
	return &created, nil
}

type call struct {
	method string
	path   string
	body   any
	out    any
	public bool
	header http.Header
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, call{method: http.MethodGet, path: path, out: out})
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, call{method: http.MethodPost, path: path, body: body, out: out})
}

func (c *Client) do(ctx context.Context, cl call) error {
	var reqBody io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, vs := range cl.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	if !cl.public {
		if c.tokens == nil {
			return fmt.Errorf("authorize: no token source")
		}
		tok, err := c.tokens(ctx)
		if err != nil {
			return fmt.Errorf("authorize: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil {
			if apiErr.Error != "" {
				return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error}
			}
			if apiErr.Message != "" {
				return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Message}
			}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if cl.out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
