package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"devbills/internal/auth"
	"devbills/internal/session"

	_ "modernc.org/sqlite"
)

// SessionRepository is a session.Store backed by SQLite, so sign-ins
// survive restarts of the web server.
type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ session.Store = (*SessionRepository)(nil)

func NewSessionRepository(dbPath string) (*SessionRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SessionRepository{db: db, now: time.Now}, nil
}

func (r *SessionRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, uid, display_name, email, photo_url, id_token, refresh_token, token_expiry, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.User.UID, s.User.DisplayName, s.User.Email, s.User.PhotoURL,
		s.IDToken, s.RefreshToken, s.TokenExpiry.Unix(), s.CreatedAt.Unix(), s.ExpiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	slog.DebugContext(ctx, "Session saved to SQLite", "uid", s.User.UID)
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, uid, display_name, email, photo_url, id_token, refresh_token, token_expiry, created_at, expires_at
		FROM sessions WHERE id = ? AND expires_at > ?`, id, r.now().Unix())

	var (
		s                             session.Session
		tokenExpiry, created, expires int64
	)
	err := row.Scan(&s.ID, &s.User.UID, &s.User.DisplayName, &s.User.Email, &s.User.PhotoURL,
		&s.IDToken, &s.RefreshToken, &tokenExpiry, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	s.TokenExpiry = time.Unix(tokenExpiry, 0).UTC()
	s.CreatedAt = time.Unix(created, 0).UTC()
	s.ExpiresAt = time.Unix(expires, 0).UTC()
	return &s, nil
}

func (r *SessionRepository) UpdateTokens(ctx context.Context, id string, t auth.Tokens) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET id_token = ?,
		    refresh_token = CASE WHEN ? = '' THEN refresh_token ELSE ? END,
		    token_expiry = ?
		WHERE id = ?`,
		t.IDToken, t.RefreshToken, t.RefreshToken, t.Expiry.Unix(), id)
	if err != nil {
		return fmt.Errorf("update session tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session tokens: %w", err)
	}
	if n == 0 {
		return session.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `DELETE FROM sessions WHERE expires_at <= ? RETURNING id`, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("delete expired sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("delete expired sessions: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("delete expired sessions: %w", err)
	}
	return ids, nil
}
