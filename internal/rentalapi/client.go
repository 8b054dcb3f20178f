// Package rentalapi is the typed client of the remote rental REST API. It
// hides the API's inconsistent response shapes behind one contract.
package rentalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Endpoint paths relative to the API base URL.
const (
	PathLoginAdmin     = "/login/"
	PathLoginUser      = "/login-user/"
	PathRegisterAdmin  = "/register/"
	PathRegisterOwner  = "/owner_register/"
	PathRegisterTenant = "/tenant_register/"
	PathOwnerProfile   = "/owner-profile/"
	PathAdminTenants   = "/admin/tenants/"
)

const maxBodyBytes = 1 << 20

// Client wraps interactions with the rental API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client whose transport attaches the token returned
// by tokens to every request.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	return NewClientWithTransport(baseURL, timeout, tokens, nil)
}

// NewClientWithTransport is NewClient over a custom base transport.
func NewClientWithTransport(baseURL string, timeout time.Duration, tokens TokenSource, base http.RoundTripper) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &bearerTransport{base: base, tokens: tokens},
		},
	}
}

// LoginAdmin checks administrator credentials.
func (c *Client) LoginAdmin(ctx context.Context, identifier, password string) (LoginResult, error) {
	return c.login(ctx, PathLoginAdmin, identifier, password)
}

// LoginUser checks owner or tenant credentials.
func (c *Client) LoginUser(ctx context.Context, identifier, password string) (LoginResult, error) {
	return c.login(ctx, PathLoginUser, identifier, password)
}

func (c *Client) login(ctx context.Context, path, identifier, password string) (LoginResult, error) {
	// Deployed backends disagree on the identifier field name; send both.
	req := loginRequest{Username: identifier, Email: identifier, Password: password}
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return LoginResult{}, err
	}
	return resp.result(), nil
}

// RegisterAdmin creates the administrator account.
func (c *Client) RegisterAdmin(ctx context.Context, reg Registration) error {
	return c.do(ctx, http.MethodPost, PathRegisterAdmin, reg, nil)
}

// RegisterOwner creates an owner account. Requires an admin token.
func (c *Client) RegisterOwner(ctx context.Context, reg Registration) error {
	return c.do(ctx, http.MethodPost, PathRegisterOwner, reg, nil)
}

// RegisterTenant creates a tenant account.
func (c *Client) RegisterTenant(ctx context.Context, reg Registration) error {
	return c.do(ctx, http.MethodPost, PathRegisterTenant, reg, nil)
}

// OwnerProfile fetches the profile of the signed-in owner.
func (c *Client) OwnerProfile(ctx context.Context) (Profile, error) {
	var body profileBody
	if err := c.do(ctx, http.MethodGet, PathOwnerProfile, nil, &body); err != nil {
		return Profile{}, err
	}
	return Profile{
		ID:       string(body.ID),
		Username: body.Username,
		Email:    body.Email,
		Phone:    body.Phone,
		Address:  body.Address,
	}, nil
}

// Tenants lists tenant accounts. Both a bare array and a paginated
// {"results": [...]} body are accepted.
func (c *Client) Tenants(ctx context.Context) ([]Tenant, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, PathAdminTenants, nil, &raw); err != nil {
		return nil, err
	}
	rows, err := decodeTenants(raw)
	if err != nil {
		return nil, &Error{Method: http.MethodGet, Path: PathAdminTenants, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	tenants := make([]Tenant, 0, len(rows))
	for _, row := range rows {
		tenants = append(tenants, Tenant{
			ID:       string(row.ID),
			Username: row.Username,
			Email:    row.Email,
			Role:     row.Role,
		})
	}
	return tenants, nil
}

func decodeTenants(raw json.RawMessage) ([]tenantBody, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var rows []tenantBody
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, err
		}
		return rows, nil
	}
	var page struct {
		Results []tenantBody `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return &Error{Method: method, Path: path, Err: err}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Method: method, Path: path, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &Error{Method: method, Path: path, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode >= 400 {
		return &Error{Method: method, Path: path, Status: resp.StatusCode, ServerMessage: serverMessage(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Method: method, Path: path, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return nil
}
