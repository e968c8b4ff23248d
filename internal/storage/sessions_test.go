package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"devbills/internal/auth"
	"devbills/internal/session"
)

func newRepo(t *testing.T) *SessionRepository {
	t.Helper()
	repo, err := NewSessionRepository(filepath.Join(t.TempDir(), "nested", "devbills.db"))
	if err != nil {
		t.Fatalf("NewSessionRepository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSessionRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	now := time.Now().Truncate(time.Second)

	s := session.New(&auth.Identity{
		User:    auth.User{UID: "u1", DisplayName: "Ana", Email: "ana@example.com", PhotoURL: "https://x/a.png"},
		Expires: now.Add(time.Hour),
	}, "rt-1", "id-1", 24*time.Hour, now)

	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.User != s.User || got.IDToken != "id-1" || got.RefreshToken != "rt-1" {
		t.Errorf("Get = %+v, want %+v", got, s)
	}
	if !got.ExpiresAt.Equal(s.ExpiresAt) || !got.TokenExpiry.Equal(s.TokenExpiry) {
		t.Errorf("times = %v/%v, want %v/%v", got.ExpiresAt, got.TokenExpiry, s.ExpiresAt, s.TokenExpiry)
	}

	if err := repo.UpdateTokens(ctx, s.ID, auth.Tokens{IDToken: "id-2", Expiry: now.Add(2 * time.Hour)}); err != nil {
		t.Fatalf("UpdateTokens: %v", err)
	}
	got, _ = repo.Get(ctx, s.ID)
	if got.IDToken != "id-2" || got.RefreshToken != "rt-1" {
		t.Errorf("after update = %+v", got)
	}
	if err := repo.UpdateTokens(ctx, s.ID, auth.Tokens{IDToken: "id-3", RefreshToken: "rt-3", Expiry: now}); err != nil {
		t.Fatalf("UpdateTokens: %v", err)
	}
	got, _ = repo.Get(ctx, s.ID)
	if got.RefreshToken != "rt-3" {
		t.Errorf("refresh token not rotated: %+v", got)
	}

	if err := repo.UpdateTokens(ctx, "missing", auth.Tokens{}); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("UpdateTokens(missing) = %v", err)
	}

	if err := repo.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, s.ID); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Get after delete = %v", err)
	}
}

func TestSessionRepositoryExpiry(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	now := time.Now()

	expired := session.New(&auth.Identity{User: auth.User{UID: "u1"}}, "", "id", time.Hour, now.Add(-2*time.Hour))
	live := session.New(&auth.Identity{User: auth.User{UID: "u2"}}, "", "id", time.Hour, now)
	for _, s := range []*session.Session{expired, live} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if _, err := repo.Get(ctx, expired.ID); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("expired session returned: %v", err)
	}
	ids, err := repo.DeleteExpired(ctx, now)
	if err != nil || len(ids) != 1 || ids[0] != expired.ID {
		t.Fatalf("DeleteExpired = %v, %v", ids, err)
	}
	if _, err := repo.Get(ctx, live.ID); err != nil {
		t.Errorf("live session lost: %v", err)
	}
	if err := repo.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}
}
