package http

import (
	"context"
	"errors"
	"net/http"

	"devbills/internal/auth"
	applog "devbills/internal/log"
	"devbills/internal/middleware/security"
	"devbills/internal/session"
)

type sessionKey struct{}

func sessionFrom(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*session.Session)
	return sess, ok && sess != nil
}

// page loads the session, when there is one, so the header can show the
// signed-in user.
func (s *Server) page(h http.HandlerFunc) http.Handler {
	return s.loadSession(h)
}

// protected loads the session and sends anonymous visitors to /login.
// Responses carry per-user data and are never cached.
func (s *Server) protected(h http.HandlerFunc) http.Handler {
	return security.NoStore(s.loadSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.UserFrom(r.Context()); !ok {
			if isHTMX(r) {
				w.Header().Set("HX-Redirect", "/login")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h(w, r)
	})))
}

func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(session.CookieName)
		if err != nil || !session.ValidID(c.Value) {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		sess, err := s.sessions.Get(ctx, c.Value)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				s.issuer.Forget(c.Value)
			} else {
				s.structured.LogError(ctx, "Session lookup failed", err,
					applog.ComponentSession, "lookup", nil)
			}
			s.clearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		user := sess.User
		ctx = context.WithValue(ctx, sessionKey{}, sess)
		ctx = auth.WithUser(ctx, &user)
		ctx = auth.WithTokenSource(ctx, s.issuer.Source(sess.ID, sess.Tokens()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess *session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(s.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
