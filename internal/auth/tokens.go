package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// SecureTokenURL exchanges Firebase refresh tokens for fresh ID tokens.
const SecureTokenURL = "https://securetoken.googleapis.com/v1/token"

// ErrRefreshRejected means the identity provider refused the refresh token;
// the session can no longer call the API.
var ErrRefreshRejected = errors.New("refresh token rejected")

// Tokens is the credential pair stored with a session.
type Tokens struct {
	IDToken      string
	RefreshToken string
	Expiry       time.Time
}

// Issuer hands out per-session token sources.
type Issuer interface {
	Source(sessionID string, current Tokens) TokenSource
	Forget(sessionID string)
}

// RefreshFunc is told about every ID token minted for a session so the
// caller can persist the rotated credentials.
type RefreshFunc func(ctx context.Context, sessionID string, t Tokens)

// Refresher keeps one reusable oauth2 token source per session and
// refreshes ID tokens through the secure token endpoint when they expire.
type Refresher struct {
	config     *oauth2.Config
	httpClient *http.Client
	onRefresh  RefreshFunc

	mu      sync.Mutex
	sources map[string]*sessionSource
}

// RefresherOption customizes a Refresher.
type RefresherOption func(*Refresher)

// WithTokenURL points the refresher at another token endpoint.
func WithTokenURL(tokenURL string) RefresherOption {
	return func(r *Refresher) { r.config.Endpoint.TokenURL = tokenURL }
}

// WithRefreshHTTPClient sets the HTTP client used for refresh calls.
func WithRefreshHTTPClient(hc *http.Client) RefresherOption {
	return func(r *Refresher) { r.httpClient = hc }
}

// WithOnRefresh registers fn to receive refreshed tokens.
func WithOnRefresh(fn RefreshFunc) RefresherOption {
	return func(r *Refresher) { r.onRefresh = fn }
}

func NewRefresher(apiKey string, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		config: &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  SecureTokenURL + "?key=" + url.QueryEscape(apiKey),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
		sources:    make(map[string]*sessionSource),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Source returns the token source of a session, creating it from current
// on first use.
func (r *Refresher) Source(sessionID string, current Tokens) TokenSource {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sources[sessionID]; ok {
		return s
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, r.httpClient)
	s := &sessionSource{
		id:  sessionID,
		src: r.config.TokenSource(ctx, &oauth2.Token{
			AccessToken:  current.IDToken,
			TokenType:    "Bearer",
			RefreshToken: current.RefreshToken,
			Expiry:       current.Expiry,
		}),
		last:      current.IDToken,
		onRefresh: r.onRefresh,
	}
	r.sources[sessionID] = s
	return s
}

// Forget drops the cached source of a session.
func (r *Refresher) Forget(sessionID string) {
	r.mu.Lock()
	delete(r.sources, sessionID)
	r.mu.Unlock()
}

// Len reports how many sessions have a cached source.
func (r *Refresher) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sources)
}

type sessionSource struct {
	id        string
	src       oauth2.TokenSource
	onRefresh RefreshFunc

	mu   sync.Mutex
	last string
}

func (s *sessionSource) IDToken(ctx context.Context) (string, error) {
	tok, err := s.src.Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return "", fmt.Errorf("%w: %v", ErrRefreshRejected, err)
		}
		return "", fmt.Errorf("refresh id token: %w", err)
	}
	id := idTokenOf(tok)

	s.mu.Lock()
	changed := id != s.last
	s.last = id
	s.mu.Unlock()

	if changed && s.onRefresh != nil {
		s.onRefresh(ctx, s.id, Tokens{IDToken: id, RefreshToken: tok.RefreshToken, Expiry: tok.Expiry})
	}
	return id, nil
}

// idTokenOf prefers the id_token field of a refresh response; the secure
// token endpoint mirrors it in access_token.
func idTokenOf(tok *oauth2.Token) string {
	if id, ok := tok.Extra("id_token").(string); ok && id != "" {
		return id
	}
	return tok.AccessToken
}

// StaticIssuer serves the stored ID token as is. It pairs with DevVerifier.
type StaticIssuer struct{}

func (StaticIssuer) Source(_ string, current Tokens) TokenSource {
	return StaticToken(current.IDToken)
}

func (StaticIssuer) Forget(string) {}
