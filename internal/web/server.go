// Package web отдаёт серверные HTML-страницы админки закупок.
package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
	"github.com/vladislavdragonenkov/procurement-admin/internal/editor"
	"github.com/vladislavdragonenkov/procurement-admin/internal/metrics"
	"github.com/vladislavdragonenkov/procurement-admin/internal/telemetry"
)

const (
	sessionCookie     = "procurement_session"
	defaultSessionTTL = 8 * time.Hour
	inputDateLayout   = "2006-01-02"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageNames = []string{"login.html", "orders.html", "editor.html", "suppliers.html", "products.html"}

// Options — зависимости веб-сервера.
type Options struct {
	Credentials   domain.CredentialStore
	Sessions      domain.SessionStore
	Services      Services
	Metrics       *metrics.ProcurementMetrics
	Logger        *log.Entry
	SessionTTL    time.Duration
	SecureCookies bool
	Now           func() time.Time
}

// Server обслуживает страницы входа, заказов и справочников.
type Server struct {
	credentials   domain.CredentialStore
	sessions      domain.SessionStore
	workspaces    *Registry
	metrics       *metrics.ProcurementMetrics
	logger        *log.Entry
	sessionTTL    time.Duration
	secureCookies bool
	now           func() time.Time
	pages         map[string]*template.Template
}

// NewServer разбирает шаблоны и собирает сервер.
func NewServer(opts Options) (*Server, error) {
	if opts.Credentials == nil || opts.Sessions == nil {
		return nil, errors.New("web: credentials and sessions are required")
	}
	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "web")
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Services.Logger == nil {
		opts.Services.Logger = opts.Logger
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	return &Server{
		credentials:   opts.Credentials,
		sessions:      opts.Sessions,
		workspaces:    NewRegistry(opts.Services, opts.Metrics, opts.SessionTTL, opts.Now),
		metrics:       opts.Metrics,
		logger:        opts.Logger,
		sessionTTL:    opts.SessionTTL,
		secureCookies: opts.SecureCookies,
		now:           opts.Now,
		pages:         pages,
	}, nil
}

// Workspaces открывает реестр рабочих мест для проверок и метрик.
func (s *Server) Workspaces() *Registry { return s.workspaces }

// Handler возвращает корневой HTTP-обработчик с трассировкой.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.WithHTTPRoute)

	r.Get("/login", s.loginPage)
	r.Post("/login", s.login)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/orders", http.StatusSeeOther)
		})
		r.Post("/logout", s.logout)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", s.ordersPage)
			r.Post("/search", s.searchOrders)
			r.Post("/clear", s.clearOrderFilters)
			r.Get("/export.xlsx", s.exportOrders)
			r.Post("/{id}/status", s.changeOrderStatus)
			r.Post("/{id}/delete", s.deleteOrder)

			r.Get("/new", s.newOrder)
			r.Get("/{id}/edit", s.editOrder)
			r.Get("/editor", s.editorPage)
			r.Post("/editor/supplier", s.selectSupplier)
			r.Post("/editor/items", s.editItems)
			r.Post("/editor/items/{key}/delete", s.removeItem)
			r.Post("/editor/submit", s.submitOrder)
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", s.suppliersPage)
			r.With(s.requireAdmin).Post("/", s.saveSupplier)
			r.With(s.requireAdmin).Post("/{id}/delete", s.deleteSupplier)
			r.With(s.requireAdmin).Post("/{id}/toggle", s.toggleSupplier)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.productsPage)
			r.With(s.requireAdmin).Post("/", s.saveProduct)
			r.With(s.requireAdmin).Post("/{id}/delete", s.deleteProduct)
			r.With(s.requireAdmin).Post("/{id}/toggle", s.toggleProduct)
		})
	})

	return otelhttp.NewHandler(r, "procurement-admin")
}

// pageData общая обёртка данных для layout.
type pageData struct {
	Title   string
	Session *domain.Session
	Flashes []Flash
	Content any
}

func parsePages() (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"money":       func(d decimal.Decimal) string { return domain.FormatMoney(d) },
		"date":        editor.FormatDate,
		"inputDate":   formatInputDate,
		"statuses":    func() []domain.OrderStatus { return domain.OrderStatuses },
		"canApprove":  func(st domain.OrderStatus) bool { return st.IsApprovable() },
		"canReceive":  func(st domain.OrderStatus) bool { return st.IsReceivable() },
		"canCancel":   func(st domain.OrderStatus) bool { return st.IsCancelable() },
		"canEdit":     func(st domain.OrderStatus) bool { return st.IsEditable() },
		"selectedID":  func(a, b int64) bool { return a == b },
		"decimalText": decimalText,
		"initials":    sessionInitials,
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

func (s *Server) render(w http.ResponseWriter, status int, page string, data pageData) {
	tmpl, ok := s.pages[page]
	if !ok {
		s.logger.WithField("page", page).Error("unknown page template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.WithError(err).WithField("page", page).Error("failed to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderWorkspace рендерит страницу сессии и забирает накопленные сообщения.
func (s *Server) renderWorkspace(w http.ResponseWriter, r *http.Request, ws *Workspace, page, title string, content any) {
	session := sessionFrom(r.Context())
	s.render(w, http.StatusOK, page, pageData{
		Title:   title,
		Session: &session,
		Flashes: ws.popFlashes(),
		Content: content,
	})
}

func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func formatInputDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(inputDateLayout)
}

func sessionInitials(session *domain.Session) string {
	name := session.FullName
	if name == "" {
		name = session.Username
	}
	return domain.User{FullName: name}.Initials()
}

func decimalText(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}
