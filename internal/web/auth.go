package web

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
)

const (
	msgInvalidCredentials = "invalid username or password"
	msgAccountDisabled    = "this account is disabled"
)

type loginView struct {
	Username string
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "login.html", pageData{Title: "Sign in", Content: loginView{}})
}

func (s *Server) loginFailed(w http.ResponseWriter, status int, username, message string) {
	s.render(w, status, "login.html", pageData{
		Title:   "Sign in",
		Flashes: []Flash{{Severity: domain.SeverityWarning, Message: message}},
		Content: loginView{Username: username},
	})
}

// login проверяет пароль по bcrypt-хэшу и открывает сессию.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		s.loginFailed(w, http.StatusBadRequest, username, "enter username and password")
		return
	}

	user, err := s.credentials.Lookup(r.Context(), username)
	if err != nil {
		if domain.IsNotFound(err) {
			s.loginFailed(w, http.StatusUnauthorized, username, msgInvalidCredentials)
			return
		}
		s.logger.WithError(err).Error("failed to look up user")
		s.loginFailed(w, http.StatusServiceUnavailable, username, "sign in is temporarily unavailable")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.loginFailed(w, http.StatusUnauthorized, username, msgInvalidCredentials)
		return
	}
	if !user.Active {
		s.loginFailed(w, http.StatusForbidden, username, msgAccountDisabled)
		return
	}
	if !user.HasRole(domain.RoleAdmin) && !user.HasRole(domain.RoleUser) {
		s.loginFailed(w, http.StatusForbidden, username, "this account has no access to the admin")
		return
	}

	now := s.now()
	session := domain.Session{
		ID:        uuid.NewString(),
		Username:  user.Username,
		FullName:  user.FullName,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(r.Context(), session); err != nil {
		s.logger.WithError(err).Error("failed to store session")
		s.loginFailed(w, http.StatusServiceUnavailable, username, "sign in is temporarily unavailable")
		return
	}
	s.logger.WithField("user", user.Username).Info("user signed in")

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	redirect(w, r, "/orders")
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())
	if err := s.sessions.Delete(r.Context(), session.ID); err != nil {
		s.logger.WithError(err).Warn("failed to delete session")
	}
	s.workspaces.Drop(session.ID)
	s.clearCookie(w)
	redirect(w, r, "/login")
}

func (s *Server) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
