package web

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
	"github.com/vladislavdragonenkov/procurement-admin/internal/editor"
	"github.com/vladislavdragonenkov/procurement-admin/internal/metrics"
)

const sweepInterval = time.Minute

// Flash — сообщение пользователю о результате действия.
type Flash struct {
	Severity domain.Severity
	Message  string
}

// Workspace состояние одной сессии входа: черновик заказа, списки и сообщения.
// Обработчики берут mu на всё время запроса, так что шаги одной сессии идут строго по очереди.
type Workspace struct {
	mu sync.Mutex

	Editor    *editor.Editor
	Orders    *editor.OrderList
	Suppliers *editor.SupplierBoard
	Products  *editor.ProductBoard

	flashes []Flash
}

func (w *Workspace) addFlash(severity domain.Severity, message string) {
	w.flashes = append(w.flashes, Flash{Severity: severity, Message: message})
}

func (w *Workspace) info(message string) { w.addFlash(domain.SeverityInfo, message) }

// fail показывает ошибку с категорией по её типу.
func (w *Workspace) fail(err error) { w.addFlash(domain.SeverityOf(err), err.Error()) }

func (w *Workspace) popFlashes() []Flash {
	flashes := w.flashes
	w.flashes = nil
	return flashes
}

// Services — зависимости, из которых собирается рабочее место сессии.
type Services struct {
	Editor        editor.Deps
	SupplierAdmin domain.SupplierAdmin
	ProductAdmin  domain.ProductAdmin
	Logger        *log.Entry
}

// Registry хранит рабочие места по идентификатору сессии в памяти процесса.
// Гауге активных сессий соответствует числу рабочих мест. Место, к которому
// не обращались дольше idleTTL, удаляется.
type Registry struct {
	mu        sync.Mutex
	items     map[string]*entry
	services  Services
	metrics   *metrics.ProcurementMetrics
	idleTTL   time.Duration
	now       func() time.Time
	lastSweep time.Time
}

type entry struct {
	ws       *Workspace
	lastSeen time.Time
}

// NewRegistry создаёт пустой реестр рабочих мест. idleTTL обычно равен времени жизни сессии.
func NewRegistry(services Services, m *metrics.ProcurementMetrics, idleTTL time.Duration, now func() time.Time) *Registry {
	if services.Logger == nil {
		services.Logger = log.WithField("component", "workspaces")
	}
	if idleTTL <= 0 {
		idleTTL = defaultSessionTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Registry{
		items:     make(map[string]*entry),
		services:  services,
		metrics:   m,
		idleTTL:   idleTTL,
		now:       now,
		lastSweep: now(),
	}
}

// Get возвращает рабочее место сессии, создавая его при первом обращении.
// Попутно, не чаще раза в sweepInterval, убирает простаивающие места.
func (r *Registry) Get(session domain.Session) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) >= sweepInterval {
		r.sweepLocked(now)
	}

	if e, ok := r.items[session.ID]; ok {
		e.lastSeen = now
		return e.ws
	}

	logger := r.services.Logger.WithField("user", session.Username)
	deps := r.services.Editor
	deps.Logger = logger

	ws := &Workspace{
		Editor:    editor.New(deps, session.Username),
		Orders:    editor.NewOrderList(deps, session.Username),
		Suppliers: editor.NewSupplierBoard(r.services.SupplierAdmin, logger),
		Products:  editor.NewProductBoard(r.services.ProductAdmin, r.services.SupplierAdmin, logger),
	}
	r.items[session.ID] = &entry{ws: ws, lastSeen: now}
	r.metrics.SessionOpened()
	return ws
}

// Sweep удаляет рабочие места, простаивающие дольше idleTTL, и возвращает их число.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked(r.now())
}

func (r *Registry) sweepLocked(now time.Time) int {
	r.lastSweep = now
	removed := 0
	for id, e := range r.items {
		if now.Sub(e.lastSeen) < r.idleTTL {
			continue
		}
		delete(r.items, id)
		r.metrics.SessionClosed()
		removed++
	}
	if removed > 0 {
		r.services.Logger.WithField("removed", removed).Info("idle workspaces released")
	}
	return removed
}

// RunJanitor периодически вызывает Sweep до отмены ctx.
func (r *Registry) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = sweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Drop удаляет рабочее место; false, если его не было.
func (r *Registry) Drop(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[sessionID]; !ok {
		return false
	}
	delete(r.items, sessionID)
	r.metrics.SessionClosed()
	return true
}

// Len число открытых рабочих мест.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
