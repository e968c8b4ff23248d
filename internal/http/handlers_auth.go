package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"devbills/internal/auth"
	"devbills/internal/finance"
	applog "devbills/internal/log"
	"devbills/internal/session"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFrom(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", s.newPage(w, r, "Entrar", "login", loginView{}))
}

// handleCreateSession exchanges an ID token from the sign-in page for a
// server session. The page posts JSON after the provider popup; the dev
// form posts a display name instead.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentAuth)

	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgBadRequest).Write(w)
		return
	}

	idToken := p.Get("idToken")
	refreshToken := p.Get("refreshToken")
	if s.opts.DevLogin && idToken == "" {
		if name := p.Get("displayName"); name != "" {
			idToken = auth.DevTokenPrefix + name
		}
	}
	if idToken == "" {
		s.loginFailed(w, r, p.IsJSON(), http.StatusBadRequest)
		return
	}

	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		logger.WarnContext(ctx, "ID token rejected", applog.FieldError, err)
		s.loginFailed(w, r, p.IsJSON(), http.StatusUnauthorized)
		return
	}

	sess := session.New(identity, refreshToken, idToken, s.opts.SessionTTL, s.now())
	if err := s.sessions.Create(ctx, sess); err != nil {
		s.structured.LogError(ctx, "Session create failed", err,
			applog.ComponentSession, applog.OpSignIn, applog.LogFields{applog.FieldUserID: identity.User.UID})
		s.loginFailed(w, r, p.IsJSON(), http.StatusInternalServerError)
		return
	}
	s.setSessionCookie(w, sess)
	s.appMetrics.sessionsCreated.Add(1)

	logger.InfoContext(ctx, "User signed in",
		applog.FieldUserID, identity.User.UID,
		applog.FieldOperation, applog.OpSignIn)

	if p.IsJSON() {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"redirect": "/dashboard"})
		return
	}
	redirect(w, r, "/dashboard")
}

func (s *Server) loginFailed(w http.ResponseWriter, r *http.Request, asJSON bool, status int) {
	s.appMetrics.loginFailures.Add(1)
	if asJSON {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": msgLoginFailed})
		return
	}
	if isHTMX(r) {
		ErrorResponse(status, msgLoginFailed).TriggerErrorNotification(msgLoginFailed).Write(w)
		return
	}
	s.render(w, r, status, "login.html", s.newPage(w, r, "Entrar", "login", loginView{Error: msgLoginFailed}))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := sessionFrom(r.Context()); ok {
		s.endSession(w, r, sess)
		applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth).InfoContext(r.Context(),
			"User signed out",
			applog.FieldUserID, sess.User.UID,
			applog.FieldOperation, applog.OpSignOut)
	} else {
		s.clearSessionCookie(w)
	}
	s.setFlash(w, flashSignedOut)
	redirect(w, r, "/login")
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := s.sessions.Delete(r.Context(), sess.ID); err != nil && !errors.Is(err, session.ErrNotFound) {
		s.structured.LogError(r.Context(), "Session delete failed", err,
			applog.ComponentSession, applog.OpSignOut, nil)
	}
	s.issuer.Forget(sess.ID)
	s.clearSessionCookie(w)
}

// sessionRevoked handles backend errors that mean the session's credentials
// are no longer accepted: the session ends and the browser goes to /login.
// It reports whether err was such an error.
func (s *Server) sessionRevoked(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, finance.ErrUnauthorized) && !errors.Is(err, auth.ErrRefreshRejected) {
		return false
	}
	if sess, ok := sessionFrom(r.Context()); ok {
		s.endSession(w, r, sess)
	}
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusUnauthorized)
		return true
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	return true
}
