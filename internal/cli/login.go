package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strings"
	"time"

	"devbills/internal/auth"
)

// LoginTimeout bounds how long 'login' waits for the browser.
const LoginTimeout = 5 * time.Minute

// FirebaseWebConfig is what the sign-in page hands to the Firebase JS SDK.
type FirebaseWebConfig struct {
	APIKey     string
	AuthDomain string
	ProjectID  string
	AppID      string
}

// Validate requires the values the SDK cannot start without.
func (c FirebaseWebConfig) Validate() error {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "firebase-api-key")
	}
	if c.AuthDomain == "" {
		missing = append(missing, "firebase-auth-domain")
	}
	if c.ProjectID == "" {
		missing = append(missing, "firebase-project-id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// FirebaseWeb extracts the sign-in page settings.
func (s Settings) FirebaseWeb() FirebaseWebConfig {
	return FirebaseWebConfig{
		APIKey:     s.FirebaseAPIKey,
		AuthDomain: s.FirebaseAuthDomain,
		ProjectID:  s.FirebaseProjectID,
		AppID:      s.FirebaseAppID,
	}
}

// callbackPayload is posted by the sign-in page. ExpiresAt is in epoch
// milliseconds, as Date.parse returns it.
type callbackPayload struct {
	IDToken      string    `json:"idToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    int64     `json:"expiresAt"`
	User         auth.User `json:"user"`
}

// LoginServer serves the sign-in page on a loopback address and receives
// the tokens the page posts back.
type LoginServer struct {
	ln     net.Listener
	srv    *http.Server
	page   FirebaseWebConfig
	result chan Credentials
}

// NewLoginServer listens on addr, e.g. "127.0.0.1:8085". Port 0 picks a
// free port; URL reports the actual address.
func NewLoginServer(addr string, page FirebaseWebConfig) (*LoginServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	ls := &LoginServer{
		ln:     ln,
		page:   page,
		result: make(chan Credentials, 1),
	}
	ls.srv = &http.Server{
		Handler:           ls.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() { _ = ls.srv.Serve(ln) }()
	return ls, nil
}

// URL is the page to open in a browser.
func (ls *LoginServer) URL() string {
	return "http://" + ls.ln.Addr().String() + "/"
}

func (ls *LoginServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", ls.handlePage)
	mux.HandleFunc("POST /callback", ls.handleCallback)
	return mux
}

func (ls *LoginServer) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := loginPage.Execute(w, ls.page); err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

func (ls *LoginServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	var p callbackPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&p); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if p.IDToken == "" || p.RefreshToken == "" {
		http.Error(w, "missing tokens", http.StatusBadRequest)
		return
	}

	creds := Credentials{
		User:         p.User,
		IDToken:      p.IDToken,
		RefreshToken: p.RefreshToken,
	}
	if p.ExpiresAt > 0 {
		creds.Expiry = time.UnixMilli(p.ExpiresAt).UTC()
	}

	select {
	case ls.result <- creds:
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "already signed in", http.StatusConflict)
	}
}

// Wait blocks until the page posts tokens, ctx ends or LoginTimeout passes.
// The server is closed on return.
func (ls *LoginServer) Wait(ctx context.Context) (Credentials, error) {
	defer ls.Close()

	timer := time.NewTimer(LoginTimeout)
	defer timer.Stop()

	select {
	case creds := <-ls.result:
		return creds, nil
	case <-timer.C:
		return Credentials{}, errors.New("sign-in timed out")
	case <-ctx.Done():
		return Credentials{}, ctx.Err()
	}
}

func (ls *LoginServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return ls.srv.Shutdown(ctx)
}

var loginPage = template.Must(template.New("login").Parse(`<!doctype html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>DevBills CLI</title>
<style>
body { font-family: system-ui, sans-serif; background: #f0f2f5; display: grid; place-items: center; min-height: 100vh; margin: 0; }
main { background: #fff; padding: 2rem 3rem; border-radius: 8px; text-align: center; }
button { background: #5429cc; color: #fff; border: 0; border-radius: 6px; padding: .75rem 1.5rem; font-size: 1rem; cursor: pointer; }
</style>
</head>
<body>
<main>
  <h1>DevBills CLI</h1>
  <p id="status">Entre com sua conta Google para usar o terminal.</p>
  <button id="google-login" type="button">Entrar com Google</button>
</main>
<script type="module">
import { initializeApp } from "https://www.gstatic.com/firebasejs/10.12.2/firebase-app.js";
import { getAuth, GoogleAuthProvider, signInWithPopup, signOut } from "https://www.gstatic.com/firebasejs/10.12.2/firebase-auth.js";

const app = initializeApp({
  apiKey: {{.APIKey}},
  authDomain: {{.AuthDomain}},
  projectId: {{.ProjectID}},
  appId: {{.AppID}},
});
const auth = getAuth(app);
const status = document.getElementById("status");
const button = document.getElementById("google-login");

button.addEventListener("click", async () => {
  button.disabled = true;
  try {
    const { user } = await signInWithPopup(auth, new GoogleAuthProvider());
    const token = await user.getIdTokenResult();
    const res = await fetch("/callback", {
      method: "POST",
      headers: { "Content-Type": "application/json" },
      body: JSON.stringify({
        idToken: token.token,
        refreshToken: user.refreshToken,
        expiresAt: Date.parse(token.expirationTime),
        user: { uid: user.uid, displayName: user.displayName || "", email: user.email || "", photoURL: user.photoURL || "" },
      }),
    });
    if (!res.ok) throw new Error("callback: " + res.status);
    await signOut(auth);
    status.textContent = "Pronto! Você já pode fechar esta janela e voltar ao terminal.";
    button.hidden = true;
  } catch (err) {
    console.error(err);
    status.textContent = "Não foi possível entrar. Tente novamente.";
    button.disabled = false;
  }
});
</script>
</body>
</html>
`))
