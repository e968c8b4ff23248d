// Package session keeps the server-side half of a browser sign-in: the
// verified user plus the tokens needed to call the transactions API on
// their behalf.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"devbills/internal/auth"
)

// CookieName is the cookie carrying the session id.
const CookieName = "devbills_session"

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID           string
	User         auth.User
	IDToken      string
	RefreshToken string
	TokenExpiry  time.Time
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// Store persists sessions. Get must not return expired sessions.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	UpdateTokens(ctx context.Context, id string, t auth.Tokens) error
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes sessions expired at now and returns their ids.
	DeleteExpired(ctx context.Context, now time.Time) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// New builds a session for a verified identity. The session outlives the
// ID token; the refresh token keeps it usable until ttl elapses.
func New(id *auth.Identity, refreshToken, idToken string, ttl time.Duration, now time.Time) *Session {
	return &Session{
		ID:           uuid.NewString(),
		User:         id.User,
		IDToken:      idToken,
		RefreshToken: refreshToken,
		TokenExpiry:  id.Expires,
		CreatedAt:    now.UTC(),
		ExpiresAt:    now.Add(ttl).UTC(),
	}
}

// Tokens returns the credentials stored with the session.
func (s *Session) Tokens() auth.Tokens {
	return auth.Tokens{IDToken: s.IDToken, RefreshToken: s.RefreshToken, Expiry: s.TokenExpiry}
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// ValidID reports whether id looks like an id produced by New.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// RunSweeper deletes expired sessions every interval until ctx is done.
// forget, when set, is called with the id of every removed session.
func RunSweeper(ctx context.Context, store Store, interval time.Duration, forget func(id string), logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			ids, err := store.DeleteExpired(ctx, now)
			if err != nil {
				logger.Error("Session sweep failed", "error", err)
				continue
			}
			if forget != nil {
				for _, id := range ids {
					forget(id)
				}
			}
			if len(ids) > 0 {
				logger.Debug("Expired sessions removed", "count", len(ids))
			}
		}
	}
}
