package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"nomadledger/internal/auth"
	"nomadledger/internal/log"
)

// SessionCookie carries the signed session token.
const SessionCookie = "nomad_session"

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// currentSession returns the valid session of r, if any.
func (s *Server) currentSession(r *http.Request) (auth.Session, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return auth.Session{}, false
	}
	sess, err := s.auth.ParseSession(c.Value)
	if err != nil {
		if !errors.Is(err, auth.ErrExpiredSession) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rejected session cookie",
				log.FieldError, err.Error(),
				log.FieldErrorType, log.ErrorTypeAuth)
		}
		return auth.Session{}, false
	}
	return sess, true
}

// requireSession redirects anonymous requests to the login page. htmx
// requests get an HX-Redirect so the whole page navigates.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.currentSession(r)
		if !ok {
			s.clearSessionCookie(w)
			if isHTMX(r) {
				NewHTMXResponse().Redirect("/login").Status(http.StatusUnauthorized).Write(w)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		ctx := auth.WithSession(r.Context(), sess)
		logger := log.FromContext(ctx).With(log.FieldOwnerID, sess.UserID)
		ctx = context.WithValue(ctx, log.LoggerContextKey, logger)
		next(w, r.WithContext(ctx))
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// mustSession is used by handlers wrapped in requireSession.
func mustSession(r *http.Request) auth.Session {
	sess, _ := auth.FromContext(r.Context())
	return sess
}
