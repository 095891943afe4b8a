package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
)

const timelineColumns = `order_id, order_number, type, actor, reason, occurred`

// TimelineRepository пишет журнал действий над заказами в таблицу order_timeline.
// Записи только добавляются, порядок чтения совпадает с порядком событий.
type TimelineRepository struct {
	db *sql.DB
}

// NewTimelineRepository создаёт репозиторий поверх открытого Store.
func NewTimelineRepository(store *Store) *TimelineRepository {
	return &TimelineRepository{db: store.DB()}
}

func (r *TimelineRepository) Append(ctx context.Context, event domain.TimelineEvent) error {
	if strings.TrimSpace(event.Type) == "" {
		return errors.New("timeline event type is required")
	}
	if event.Occurred.IsZero() {
		event.Occurred = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO order_timeline (`+timelineColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		event.OrderID, event.OrderNumber, event.Type, event.Actor, event.Reason, event.Occurred.UTC())
	if err != nil {
		return fmt.Errorf("append timeline event for order %d: %w", event.OrderID, err)
	}
	return nil
}

func (r *TimelineRepository) List(ctx context.Context, orderID int64) ([]domain.TimelineEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+timelineColumns+` FROM order_timeline WHERE order_id = $1 ORDER BY occurred, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list timeline for order %d: %w", orderID, err)
	}
	defer rows.Close()

	events := []domain.TimelineEvent{}
	for rows.Next() {
		event, err := scanTimelineEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timeline for order %d: %w", orderID, err)
	}
	return events, nil
}

func scanTimelineEvent(rows *sql.Rows) (domain.TimelineEvent, error) {
	var e domain.TimelineEvent
	if err := rows.Scan(&e.OrderID, &e.OrderNumber, &e.Type, &e.Actor, &e.Reason, &e.Occurred); err != nil {
		return domain.TimelineEvent{}, fmt.Errorf("scan timeline event: %w", err)
	}
	e.Occurred = e.Occurred.UTC()
	return e, nil
}

var _ domain.TimelineRepository = (*TimelineRepository)(nil)
