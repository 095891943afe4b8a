package editor

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
)

// Filter условия поиска заказов. Статус имеет приоритет над диапазоном дат;
// диапазон учитывается, только если заданы обе границы.
type Filter struct {
	Status domain.OrderStatus
	Start  time.Time
	End    time.Time
}

// IsZero сообщает, что фильтр пуст.
func (f Filter) IsZero() bool {
	return f.Status == "" && f.Start.IsZero() && f.End.IsZero()
}

// OrderList — таблица заказов на странице списка.
type OrderList struct {
	deps     Deps
	recorder recorder
	logger   *log.Entry

	rows   []*domain.Order
	filter Filter
}

// NewOrderList создаёт список заказов для пользователя actor.
func NewOrderList(deps Deps, actor string) *OrderList {
	deps = deps.withDefaults("order-list")
	return &OrderList{
		deps:     deps,
		recorder: recorder{deps: deps, actor: actor},
		logger:   deps.Logger.WithField("actor", actor),
		rows:     []*domain.Order{},
	}
}

// Load перезагружает список с текущим фильтром.
func (l *OrderList) Load(ctx context.Context) error {
	return l.Search(ctx, l.filter)
}

// Search применяет фильтр: статус, иначе диапазон дат, иначе все заказы.
// При ошибке прежние строки сохраняются.
func (l *OrderList) Search(ctx context.Context, filter Filter) error {
	if filter.Status != "" && !filter.Status.Valid() {
		return &domain.ValidationError{Field: "status", Message: fmt.Sprintf("unknown order status %q", filter.Status)}
	}

	var (
		rows []*domain.Order
		err  error
	)
	switch {
	case filter.Status != "":
		rows, err = l.deps.Orders.ListByStatus(ctx, filter.Status)
	case !filter.Start.IsZero() && !filter.End.IsZero():
		if filter.End.Before(filter.Start) {
			return &domain.ValidationError{Field: "end", Message: "end date must not be before start date"}
		}
		rows, err = l.deps.Orders.ListByDateRange(ctx, filter.Start, filter.End)
	default:
		rows, err = l.deps.Orders.ListAll(ctx)
	}
	if err != nil {
		l.logger.WithError(err).Error("failed to load orders")
		return asBackendError("list orders", err)
	}

	for _, row := range rows {
		row.RecomputeTotals()
	}
	l.rows = rows
	l.filter = filter
	return nil
}

// ClearFilters сбрасывает фильтр и загружает все заказы.
func (l *OrderList) ClearFilters(ctx context.Context) error {
	return l.Search(ctx, Filter{})
}

// Rows возвращает текущие строки таблицы.
func (l *OrderList) Rows() []*domain.Order { return l.rows }

func (l *OrderList) Filter() Filter { return l.filter }

// Find ищет строку по ID.
func (l *OrderList) Find(id int64) (*domain.Order, bool) {
	for _, row := range l.rows {
		if row.ID == id {
			return row, true
		}
	}
	return nil, false
}

// ChangeStatus переводит заказ в статус target. Для известной строки переход
// проверяется заранее, окончательно его применяет бэкенд.
func (l *OrderList) ChangeStatus(ctx context.Context, id int64, target domain.OrderStatus) error {
	if !target.Valid() {
		return &domain.ValidationError{Field: "status", Message: fmt.Sprintf("unknown order status %q", target)}
	}
	row, known := l.Find(id)
	if known && !row.Status.CanTransitionTo(target) {
		return &domain.ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("order %s cannot move from %s to %s", row.OrderNumber, row.Status.Label(), target.Label()),
		}
	}

	if err := l.deps.Orders.SetStatus(ctx, id, target); err != nil {
		l.logger.WithError(err).WithField("order_id", id).Error("failed to change order status")
		return asBackendError("change order status", err)
	}
	l.deps.Metrics.RecordStatusChange(string(target))

	if !known {
		row = &domain.Order{ID: id}
	}
	row.Status = target
	l.recorder.record(ctx, row, domain.OrderEventStatusChanged, domain.TimelineOrderStatusChanged, "status set to "+string(target))
	return nil
}

// Delete удаляет заказ на бэкенде и убирает строку из таблицы.
func (l *OrderList) Delete(ctx context.Context, id int64) error {
	if err := l.deps.Orders.Delete(ctx, id); err != nil {
		l.logger.WithError(err).WithField("order_id", id).Error("failed to delete order")
		return asBackendError("delete order", err)
	}

	row, known := l.Find(id)
	if !known {
		row = &domain.Order{ID: id}
	}
	rows := make([]*domain.Order, 0, len(l.rows))
	for _, r := range l.rows {
		if r.ID != id {
			rows = append(rows, r)
		}
	}
	l.rows = rows

	l.recorder.record(ctx, row, domain.OrderEventDeleted, domain.TimelineOrderDeleted, "")
	return nil
}

// Timeline возвращает журнал действий над заказом.
func (l *OrderList) Timeline(ctx context.Context, id int64) ([]domain.TimelineEvent, error) {
	if l.deps.Timeline == nil {
		return []domain.TimelineEvent{}, nil
	}
	return l.deps.Timeline.List(ctx, id)
}
