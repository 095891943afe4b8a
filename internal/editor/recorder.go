package editor

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
	"github.com/vladislavdragonenkov/procurement-admin/internal/metrics"
)

// Deps — внешние сервисы, нужные редактору и спискам.
// Events, Timeline и Metrics необязательны.
type Deps struct {
	Suppliers domain.SupplierDirectory
	Catalog   domain.ProductCatalog
	Orders    domain.OrderRepository
	Events    domain.EventPublisher
	Timeline  domain.TimelineRepository
	Metrics   *metrics.ProcurementMetrics
	Logger    *log.Entry
	Now       func() time.Time
}

func (d Deps) withDefaults(component string) Deps {
	if d.Logger == nil {
		d.Logger = log.WithField("component", component)
	} else {
		d.Logger = d.Logger.WithField("component", component)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// recorder фиксирует успешное изменение заказа: журнал, событие, метрики.
// Сбои журнала и публикации только логируются: изменение на бэкенде уже выполнено.
type recorder struct {
	deps  Deps
	actor string
}

func (r recorder) record(ctx context.Context, order *domain.Order, eventType domain.OrderEventType, timelineType, reason string) {
	now := r.deps.Now().UTC()
	logger := r.deps.Logger.WithFields(log.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"event_type":   eventType,
	})

	if r.deps.Timeline != nil {
		err := r.deps.Timeline.Append(ctx, domain.TimelineEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Type:        timelineType,
			Actor:       r.actor,
			Reason:      reason,
			Occurred:    now,
		})
		if err != nil {
			logger.WithError(err).Warn("failed to append timeline event")
		}
	}

	if r.deps.Events != nil {
		err := r.deps.Events.Publish(ctx, domain.NewOrderEvent(eventType, order, r.actor, now))
		r.deps.Metrics.RecordEventPublished(string(eventType), err)
		if err != nil {
			logger.WithError(err).Error("failed to publish order event")
		}
	}
}

// validationFailed учитывает отказ валидации в метриках.
func (r recorder) validationFailed(err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		r.deps.Metrics.RecordValidationFailure(verr.Field)
	}
}

// asBackendError оставляет типизированные ошибки как есть и оборачивает остальные в BackendError.
func asBackendError(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsBackend(err) || domain.IsNotFound(err) || domain.IsValidation(err) {
		return err
	}
	return domain.NewBackendError(op, err)
}
