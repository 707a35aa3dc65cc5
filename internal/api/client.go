// Package api is the HTTP client for the courseware platform: the
// authentication endpoints consumed by the session store, the transport
// chain that authenticates and retries requests, and thin wrappers for
// the course resources.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
	"github.com/rs/zerolog"

	"github.com/openlearn/courseware/internal/logger"
	"github.com/openlearn/courseware/internal/models"
	"github.com/openlearn/courseware/internal/session"
)

// Config holds common client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration

	// CacheDir enables a disk-backed HTTP cache for the public course
	// catalog. Empty uses an in-memory cache.
	CacheDir string
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://localhost:8443",
		Timeout: 30 * time.Second,
	}
}

// Client talks to the courseware API. The zero value is not usable;
// construct with NewClient and bind a session with UseSession before
// calling authenticated resource methods.
type Client struct {
	baseURL string
	timeout time.Duration

	// authHTTP carries login/refresh/logout/profile calls. It bypasses
	// the refresh transport: a 401 from these endpoints is a session
	// outcome, not a recoverable per-request failure.
	authHTTP *http.Client

	// apiHTTP carries authenticated resource calls through the
	// auth + refresh transport chain. Set by UseSession.
	apiHTTP *http.Client

	// catalogHTTP carries public catalog GETs through an HTTP cache.
	catalogHTTP *http.Client
}

var _ session.Endpoint = (*Client)(nil)

// NewClient creates a courseware API client.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	base := logger.NewHTTPRequests(nil, log)

	var cache httpcache.Cache
	if cfg.CacheDir != "" {
		cache = diskcache.New(cfg.CacheDir)
	} else {
		cache = httpcache.NewMemoryCache()
	}
	caching := httpcache.NewTransport(cache)
	caching.Transport = base

	return &Client{
		baseURL:     cfg.BaseURL,
		timeout:     cfg.Timeout,
		authHTTP:    &http.Client{Timeout: cfg.Timeout, Transport: base},
		catalogHTTP: &http.Client{Timeout: cfg.Timeout, Transport: caching},
	}
}

// UseSession binds the client to a session store, wiring the transport
// chain used for authenticated resource calls: requests pick up the
// current bearer token, and auth-expired responses trigger a shared
// refresh with a single retry.
func (c *Client) UseSession(sess Session) {
	chain := NewRefreshTransport(NewAuthTransport(c.authHTTP.Transport, sess), sess)
	c.apiHTTP = &http.Client{Timeout: c.timeout, Transport: chain}
}

// Login implements session.Endpoint.
func (c *Client) Login(ctx context.Context, identifier, secret string) (*session.LoginResult, error) {
	payload := struct {
		Identifier string `json:"identifier"`
		Secret     string `json:"secret"`
	}{Identifier: identifier, Secret: secret}

	var result struct {
		AccessToken  string      `json:"accessToken"`
		RefreshToken string      `json:"refreshToken"`
		User         models.User `json:"user"`
	}
	if err := c.postJSON(ctx, c.authHTTP, "/v1/auth/login", "login", "", payload, &result); err != nil {
		return nil, err
	}

	return &session.LoginResult{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         result.User,
	}, nil
}

// Refresh implements session.Endpoint.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	payload := struct {
		RefreshToken string `json:"refreshToken"`
	}{RefreshToken: refreshToken}

	var result struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.postJSON(ctx, c.authHTTP, "/v1/auth/refresh", "refresh", "", payload, &result); err != nil {
		return "", err
	}
	return result.AccessToken, nil
}

// Profile implements session.Endpoint. The access token is passed
// explicitly because the session store calls this while restoring, when
// the auth transport does not attach tokens yet.
func (c *Client) Profile(ctx context.Context, accessToken string) (*models.User, error) {
	var user models.User
	if err := c.getJSON(ctx, c.authHTTP, "/v1/auth/profile", "profile", accessToken, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout implements session.Endpoint. Best-effort.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	payload := struct {
		RefreshToken string `json:"refreshToken"`
	}{RefreshToken: refreshToken}
	return c.postJSON(ctx, c.authHTTP, "/v1/auth/logout", "logout", "", payload, nil)
}

// resource returns the client used for authenticated resource calls.
func (c *Client) resource() (*http.Client, error) {
	if c.apiHTTP == nil {
		return nil, fmt.Errorf("api client is not bound to a session, call UseSession first")
	}
	return c.apiHTTP, nil
}

func (c *Client) postJSON(ctx context.Context, client *http.Client, path, op, bearer string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return c.doJSON(client, req, op, out)
}

func (c *Client) getJSON(ctx context.Context, client *http.Client, path, op, bearer string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return c.doJSON(client, req, op, out)
}

func (c *Client) doJSON(client *http.Client, req *http.Request, op string, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return transportError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(op, resp)
	}

	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}
