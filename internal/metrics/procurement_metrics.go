package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Исходы вызова бэкенда для метки outcome.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// ProcurementMetrics содержит метрики редактора заказов и клиента бэкенда.
type ProcurementMetrics struct {
	// Редактор
	ordersSubmitted    *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	statusChanges      *prometheus.CounterVec

	// Бэкенд
	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec

	// Экспорт и события
	exportsGenerated prometheus.Counter
	eventsPublished  *prometheus.CounterVec

	activeSessions prometheus.Gauge
}

// NewProcurementMetrics регистрирует метрики в DefaultRegisterer.
func NewProcurementMetrics() *ProcurementMetrics {
	return NewProcurementMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewProcurementMetricsWithRegisterer регистрирует метрики в заданном реестре.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewProcurementMetricsWithRegisterer(registerer prometheus.Registerer) *ProcurementMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &ProcurementMetrics{
		ordersSubmitted: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "procurement_orders_submitted_total",
			Help: "Total number of purchase orders submitted to the backend",
		}, []string{"mode"}),
		validationFailures: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "procurement_validation_failures_total",
			Help: "Total number of editor actions rejected by validation",
		}, []string{"rule"}),
		statusChanges: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "procurement_order_status_changes_total",
			Help: "Total number of order status changes requested from the list page",
		}, []string{"status"}),
		backendRequests: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "procurement_backend_requests_total",
			Help: "Total number of REST backend calls",
		}, []string{"op", "outcome"}),
		backendDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "procurement_backend_request_duration_seconds",
			Help:    "Duration of REST backend calls in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"op"}),
		exportsGenerated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "procurement_order_exports_total",
			Help: "Total number of order spreadsheets generated",
		}),
		eventsPublished: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "procurement_order_events_published_total",
			Help: "Total number of order events handed to the publisher",
		}, []string{"type", "outcome"}),
		activeSessions: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "procurement_active_sessions",
			Help: "Number of editor workspaces held by logged-in sessions",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderSubmitted учитывает успешную отправку заказа (mode = create|update).
func (m *ProcurementMetrics) RecordOrderSubmitted(mode string) {
	if m == nil {
		return
	}
	m.ordersSubmitted.WithLabelValues(mode).Inc()
}

// RecordValidationFailure учитывает отказ валидации по полю rule.
func (m *ProcurementMetrics) RecordValidationFailure(rule string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(rule).Inc()
}

// RecordStatusChange учитывает смену статуса заказа.
func (m *ProcurementMetrics) RecordStatusChange(status string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(status).Inc()
}

// ObserveBackendCall записывает длительность и исход вызова бэкенда.
func (m *ProcurementMetrics) ObserveBackendCall(op string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.backendRequests.WithLabelValues(op, outcome).Inc()
	m.backendDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordExport учитывает сформированную выгрузку.
func (m *ProcurementMetrics) RecordExport() {
	if m == nil {
		return
	}
	m.exportsGenerated.Inc()
}

// RecordEventPublished учитывает попытку публикации события.
func (m *ProcurementMetrics) RecordEventPublished(eventType string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.eventsPublished.WithLabelValues(eventType, outcome).Inc()
}

// SessionOpened увеличивает количество активных рабочих областей.
func (m *ProcurementMetrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

// SessionClosed уменьшает количество активных рабочих областей.
func (m *ProcurementMetrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}
