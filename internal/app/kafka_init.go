package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
	"github.com/vladislavdragonenkov/procurement-admin/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/procurement-admin/internal/storage/memory"
)

// initKafkaProducer инициализирует Kafka producer если brokers не пустой.
// Возвращает nil, nil если brokers пустой.
func initKafkaProducer(brokers []string, topic string, logger *log.Entry) (*kafka.Producer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(brokers, topic, logger.WithField("component", "kafka-producer"))
	if err != nil {
		return nil, err
	}

	logger.WithFields(log.Fields{"brokers": brokers, "topic": topic}).Info("kafka producer initialized")
	return producer, nil
}

// initEventPublisher выбирает публикатор событий заказов.
// Без брокеров или при ошибке подключения события остаются в журнале процесса.
func initEventPublisher(brokers []string, topic string, logger *log.Entry) (domain.EventPublisher, *kafka.Producer) {
	producer, err := initKafkaProducer(brokers, topic, logger)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
	}
	if producer == nil {
		return memory.NewEventLog(logger.WithField("component", "event-log")), nil
	}
	return producer, producer
}

// closeKafka закрывает Kafka producer если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
