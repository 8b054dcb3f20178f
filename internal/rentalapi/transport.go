package rentalapi

import (
	"context"
	"net/http"
)

// TokenSource yields the access token for the request context, or "".
type TokenSource func(ctx context.Context) string

// bearerTransport attaches the current access token to every outbound request.
type bearerTransport struct {
	base   http.RoundTripper
	tokens TokenSource
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.tokens == nil || req.Header.Get("Authorization") != "" {
		return base.RoundTrip(req)
	}
	token := t.tokens(req.Context())
	if token == "" {
		return base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return base.RoundTrip(clone)
}
