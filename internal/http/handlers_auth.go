package http

import (
	"errors"
	"net/http"

	"nomadledger/internal/auth"
	"nomadledger/internal/log"
	"nomadledger/internal/metrics"
	"nomadledger/internal/store"
)

const (
	msgInvalidCredentials = "E-mail ou senha inválidos."
	msgEmailInUse         = "E-mail já cadastrado."
	msgWeakPassword       = "A senha deve ter pelo menos 6 caracteres."
	msgAuthUnavailable    = "Não foi possível concluir. Tente novamente."
)

// authPage renders the sign-in and sign-up forms; Account stays empty.
type authPage struct {
	Title   string
	Account string
	Action  string
	Email   string
	Error   string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentSession(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", authPage{Title: "Entrar", Action: "/login"})
}

func (s *Server) handleSignUpPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentSession(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "signup.html", authPage{Title: "Criar conta", Action: "/signup"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formato de requisição inválido.").Write(w)
		return
	}
	form := parseCredentials(r.PostForm)
	page := authPage{Title: "Entrar", Action: "/login", Email: form.Email}

	if err := s.validate.Struct(form); err != nil {
		s.metrics.AuthEvent(log.OpSignIn, metrics.StatusInvalid)
		page.Error = msgInvalidCredentials
		s.render(w, r, http.StatusUnprocessableEntity, "login.html", page)
		return
	}

	u, err := s.auth.SignIn(r.Context(), form.Email, form.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.metrics.AuthEvent(log.OpSignIn, metrics.StatusDenied)
		s.logger.WarnContext(r.Context(), "Sign-in rejected",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldErrorType, log.ErrorTypeAuth)
		page.Error = msgInvalidCredentials
		s.render(w, r, http.StatusUnauthorized, "login.html", page)
		return
	case err != nil:
		s.metrics.AuthEvent(log.OpSignIn, metrics.StatusError)
		s.slog.LogError(r.Context(), "Sign-in failed", err, log.ComponentAuth, log.OpSignIn, log.NewFields())
		page.Error = msgAuthUnavailable
		s.render(w, r, http.StatusServiceUnavailable, "login.html", page)
		return
	}

	if !s.startSession(w, r, u, log.OpSignIn) {
		page.Error = msgAuthUnavailable
		s.render(w, r, http.StatusInternalServerError, "login.html", page)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formato de requisição inválido.").Write(w)
		return
	}
	creds := parseCredentials(r.PostForm)
	form := signUpForm(creds)
	page := authPage{Title: "Criar conta", Action: "/signup", Email: form.Email}

	if err := s.validate.Struct(form); err != nil {
		s.metrics.AuthEvent(log.OpSignUp, metrics.StatusInvalid)
		page.Error = validationMessage(err)
		s.render(w, r, http.StatusUnprocessableEntity, "signup.html", page)
		return
	}

	u, err := s.auth.SignUp(r.Context(), form.Email, form.Password)
	switch {
	case errors.Is(err, auth.ErrEmailInUse):
		s.metrics.AuthEvent(log.OpSignUp, metrics.StatusConflict)
		page.Error = msgEmailInUse
		s.render(w, r, http.StatusConflict, "signup.html", page)
		return
	case errors.Is(err, auth.ErrWeakPassword):
		s.metrics.AuthEvent(log.OpSignUp, metrics.StatusInvalid)
		page.Error = msgWeakPassword
		s.render(w, r, http.StatusUnprocessableEntity, "signup.html", page)
		return
	case err != nil:
		s.metrics.AuthEvent(log.OpSignUp, metrics.StatusError)
		s.slog.LogError(r.Context(), "Sign-up failed", err, log.ComponentAuth, log.OpSignUp, log.NewFields())
		page.Error = msgAuthUnavailable
		s.render(w, r, http.StatusServiceUnavailable, "signup.html", page)
		return
	}

	s.logger.InfoContext(r.Context(), "Account created", log.FieldOwnerID, u.ID)
	if !s.startSession(w, r, u, log.OpSignUp) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// startSession issues the session cookie for u and records the auth event.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, u store.User, op string) bool {
	token, expires, err := s.auth.IssueSession(u)
	if err != nil {
		s.metrics.AuthEvent(op, metrics.StatusError)
		s.slog.LogError(r.Context(), "Failed to issue session", err, log.ComponentAuth, op,
			log.NewFields().WithOwner(u.ID))
		return false
	}
	s.setSessionCookie(w, token, expires)
	s.metrics.AuthEvent(op, metrics.StatusOK)
	return true
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	s.metrics.AuthEvent(log.OpSignOut, metrics.StatusOK)
	if isHTMX(r) {
		NewHTMXResponse().Redirect("/login").Write(w)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
