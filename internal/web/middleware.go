package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
)

type sessionKey struct{}

func withSession(ctx context.Context, session domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

func sessionFrom(ctx context.Context) domain.Session {
	session, _ := ctx.Value(sessionKey{}).(domain.Session)
	return session
}

// logRequests пишет одну строку на запрос.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		entry := s.logger.WithFields(log.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		})
		if ww.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request served")
	})
}

// requireSession пускает дальше только запросы с действующей сессией,
// остальные отправляет на /login.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value == "" {
			redirect(w, r, "/login")
			return
		}

		session, err := s.sessions.Get(r.Context(), cookie.Value)
		if err != nil {
			if !domain.IsNotFound(err) {
				s.logger.WithError(err).Error("failed to load session")
				http.Error(w, "session storage unavailable", http.StatusServiceUnavailable)
				return
			}
			s.workspaces.Drop(cookie.Value)
			s.clearCookie(w)
			redirect(w, r, "/login")
			return
		}

		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
	})
}

// requireAdmin закрывает изменение справочников для роли USER.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sessionFrom(r.Context()).IsAdmin() {
			http.Error(w, "administrator role required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// workspace возвращает рабочее место текущей сессии, уже захваченное для запроса.
// Вызывающий обязан выполнить ws.mu.Unlock.
func (s *Server) workspace(r *http.Request) *Workspace {
	ws := s.workspaces.Get(sessionFrom(r.Context()))
	ws.mu.Lock()
	return ws
}
