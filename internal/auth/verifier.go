package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

var ErrInvalidToken = errors.New("invalid id token")

// Identity is the result of a successful ID token verification.
type Identity struct {
	User    User
	Expires time.Time
}

// Verifier checks an ID token issued by the identity provider.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

// FirebaseVerifier verifies Firebase ID tokens with the Admin SDK.
type FirebaseVerifier struct {
	client *fbauth.Client
}

// NewFirebaseVerifier initializes a Firebase app for projectID. Verifying
// ID tokens only needs the public signing keys, so credentialsFile is
// optional.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string) (*FirebaseVerifier, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("firebase project id is required")
	}
	opts := []option.ClientOption{option.WithoutAuthentication()}
	if credentialsFile != "" {
		opts = []option.ClientOption{option.WithCredentialsFile(credentialsFile)}
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, ErrInvalidToken
	}
	tok, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return identityFromClaims(tok.UID, tok.Expires, tok.Claims), nil
}

func identityFromClaims(uid string, expires int64, claims map[string]interface{}) *Identity {
	claim := func(name string) string {
		if v, ok := claims[name].(string); ok {
			return v
		}
		return ""
	}
	return &Identity{
		User: User{
			UID:         uid,
			DisplayName: claim("name"),
			Email:       claim("email"),
			PhotoURL:    claim("picture"),
		},
		Expires: time.Unix(expires, 0).UTC(),
	}
}

// DevTokenPrefix marks the tokens DevVerifier accepts.
const DevTokenPrefix = "dev:"

// DevVerifier accepts "dev:<display name>" tokens. It exists for local runs
// against the in-memory finance backend, where no identity provider is
// configured.
type DevVerifier struct {
	TTL time.Duration
	Now func() time.Time
}

func (v DevVerifier) Verify(_ context.Context, idToken string) (*Identity, error) {
	name, ok := strings.CutPrefix(idToken, DevTokenPrefix)
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return nil, ErrInvalidToken
	}
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	ttl := v.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Identity{
		User: User{
			UID:         "dev-" + slug(name),
			DisplayName: name,
			Email:       slug(name) + "@devbills.local",
		},
		Expires: now().Add(ttl).UTC(),
	}, nil
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_' || r == '.':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
				b.WriteByte('-')
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "user"
	}
	return out
}
