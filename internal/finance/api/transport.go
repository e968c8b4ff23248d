package api

import (
	"context"
	"fmt"
	"net/http"
)

// TokenFunc returns the bearer token for the request context. An empty
// token means there is no session and the request goes out anonymous.
type TokenFunc func(ctx context.Context) (string, error)

// BearerTransport attaches "Authorization: Bearer <token>" to every request
// that has a session, asking Token right before each request so refreshed
// tokens are picked up.
type BearerTransport struct {
	Base  http.RoundTripper
	Token TokenFunc
}

func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Token == nil {
		return t.base().RoundTrip(req)
	}

	token, err := t.Token(req.Context())
	if err != nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, fmt.Errorf("get id token: %w", err)
	}
	if token == "" {
		return t.base().RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	authed := req.Clone(req.Context())
	authed.Header.Set("Authorization", "Bearer "+token)
	return t.base().RoundTrip(authed)
}

func (t *BearerTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
