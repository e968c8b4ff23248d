package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"devbills/internal/auth"
)

// ErrNotLoggedIn is returned when no credentials file exists.
var ErrNotLoggedIn = errors.New("not logged in: run 'devbills-cli login' first")

// Credentials are the tokens saved by 'login'.
type Credentials struct {
	User         auth.User `json:"user"`
	IDToken      string    `json:"idToken"`
	RefreshToken string    `json:"refreshToken"`
	Expiry       time.Time `json:"expiry"`
}

// Tokens returns the credential pair in the form the refresher expects.
func (c Credentials) Tokens() auth.Tokens {
	return auth.Tokens{IDToken: c.IDToken, RefreshToken: c.RefreshToken, Expiry: c.Expiry}
}

// SaveCredentials writes c to path, readable by the owner only.
func SaveCredentials(path string, c Credentials) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// LoadCredentials reads the credentials file.
func LoadCredentials(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Credentials{}, ErrNotLoggedIn
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("read credentials: %w", err)
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return Credentials{}, fmt.Errorf("decode credentials %s: %w", path, err)
	}
	if c.IDToken == "" {
		return Credentials{}, ErrNotLoggedIn
	}
	return c, nil
}

// RemoveCredentials deletes the credentials file. A missing file is fine.
func RemoveCredentials(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// cliSession is the refresher key of the single command line session.
const cliSession = "cli"

// TokenFunc returns the lookup the API client uses for ID tokens. With a
// Firebase API key the ID token is refreshed when it expires and the new
// pair is written back to path; without one the saved token is used as is.
func TokenFunc(s Settings, creds Credentials, onSaveErr func(error), opts ...auth.RefresherOption) func(ctx context.Context) (string, error) {
	if s.FirebaseAPIKey == "" {
		src := auth.StaticToken(creds.IDToken)
		return src.IDToken
	}

	var mu sync.Mutex
	opts = append(opts, auth.WithOnRefresh(func(_ context.Context, _ string, t auth.Tokens) {
		mu.Lock()
		defer mu.Unlock()
		creds.IDToken = t.IDToken
		creds.RefreshToken = t.RefreshToken
		creds.Expiry = t.Expiry
		if err := SaveCredentials(s.CredentialsFile, creds); err != nil && onSaveErr != nil {
			onSaveErr(err)
		}
	}))
	refresher := auth.NewRefresher(s.FirebaseAPIKey, opts...)
	return refresher.Source(cliSession, creds.Tokens()).IDToken
}
