package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
)

const clientID = "procurement-admin"

// Producer пишет события заказов в Kafka синхронно: Publish возвращается
// только после подтверждения от всех реплик.
type Producer struct {
	sp     sarama.SyncProducer
	topic  string
	logger *log.Entry
}

// NewProducer подключается к брокерам и возвращает идемпотентный producer.
func NewProducer(brokers []string, topic string, logger *log.Entry) (*Producer, error) {
	sp, err := sarama.NewSyncProducer(brokers, producerConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer for %v: %w", brokers, err)
	}
	return newProducer(sp, topic, logger), nil
}

func producerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Idempotent = true
	// идемпотентность требует одного запроса в полёте
	cfg.Net.MaxOpenRequests = 1
	return cfg
}

func newProducer(sp sarama.SyncProducer, topic string, logger *log.Entry) *Producer {
	if topic == "" {
		topic = TopicOrderEvents
	}
	if logger == nil {
		logger = log.WithField("component", "kafka-producer")
	}
	return &Producer{sp: sp, topic: topic, logger: logger}
}

// Publish отправляет событие заказа. Контекст проверяется до отправки:
// SyncProducer не поддерживает отмену уже начатой записи.
func (p *Producer) Publish(ctx context.Context, event domain.OrderEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := buildMessage(p.topic, NewOrderEventMessage(event))
	if err != nil {
		return err
	}

	fields := log.Fields{"topic": p.topic, "order_id": event.OrderID, "type": event.Type}
	partition, offset, err := p.sp.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(fields).Error("order event was not delivered")
		return fmt.Errorf("send order event %s: %w", event.Type, err)
	}
	p.logger.WithFields(fields).WithFields(log.Fields{"partition": partition, "offset": offset}).Debug("order event delivered")
	return nil
}

// buildMessage кодирует событие в JSON и дублирует ключевые поля в заголовках,
// чтобы потребители могли фильтровать без разбора тела.
func buildMessage(topic string, m OrderEventMessage) (*sarama.ProducerMessage, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode order event: %w", err)
	}
	return &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(m.Key()),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: m.Timestamp,
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderEventID), Value: []byte(m.EventID)},
			{Key: []byte(HeaderEventType), Value: []byte(m.EventType)},
			{Key: []byte(HeaderActor), Value: []byte(m.Actor)},
		},
	}, nil
}

func (p *Producer) Close() error {
	if err := p.sp.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}

var _ domain.EventPublisher = (*Producer)(nil)
