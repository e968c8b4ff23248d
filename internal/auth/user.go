// Package auth exposes the signed-in user and the ID token that authorizes
// calls to the transactions API.
//
// Identity is delegated to Firebase Authentication: browsers sign in with the
// Firebase JS SDK, the server verifies the resulting ID token with the Admin
// SDK and keeps the refresh token so it can mint fresh ID tokens through the
// secure token endpoint.
package auth

import (
	"context"
	"strings"
	"unicode/utf8"
)

// User is the identity attached to a session.
type User struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL"`
}

// Initial returns the upper-cased first letter of the display name, used
// as avatar when there is no photo.
func (u User) Initial() string {
	name := strings.TrimSpace(u.DisplayName)
	if name == "" {
		name = strings.TrimSpace(u.Email)
	}
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return ""
	}
	return strings.ToUpper(string(r))
}

// Name returns the display name, falling back to the email.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

type contextKey string

const (
	userKey  contextKey = "auth_user"
	tokenKey contextKey = "auth_token_source"
)

// WithUser returns a context carrying the signed-in user.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom returns the signed-in user, if any.
func UserFrom(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userKey).(*User)
	return u, ok && u != nil
}

// TokenSource yields the current ID token of a session.
type TokenSource interface {
	IDToken(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) IDToken(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken always yields the same token.
func StaticToken(token string) TokenSource {
	return TokenSourceFunc(func(context.Context) (string, error) { return token, nil })
}

// WithTokenSource returns a context carrying the session's token source.
func WithTokenSource(ctx context.Context, src TokenSource) context.Context {
	return context.WithValue(ctx, tokenKey, src)
}

// CurrentIDToken returns the ID token of the session bound to ctx. It
// returns an empty token and no error when ctx carries no session.
func CurrentIDToken(ctx context.Context) (string, error) {
	src, ok := ctx.Value(tokenKey).(TokenSource)
	if !ok || src == nil {
		return "", nil
	}
	return src.IDToken(ctx)
}
