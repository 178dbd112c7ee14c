package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

// Topics for the audit stream. Reporting and external audit tooling
// consume these; the serving path never depends on them.
const (
	TopicStockMovements = "sushi.stock.movements"
	TopicOrderStatus    = "sushi.order.status"
	TopicOrders         = "sushi.orders"
)

// Publisher pushes audit events. Implementations must never fail the
// business operation that produced the event.
type Publisher interface {
	Publish(topic string, event any)
}

// KafkaPublisher sends events through a sarama SyncProducer.
type KafkaPublisher struct {
	producer sarama.SyncProducer
}

func NewKafkaPublisher(brokers []string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to start sarama producer: %w", err)
	}

	logrus.WithField("brokers", brokers).Info("kafka producer connected")
	return &KafkaPublisher{producer: producer}, nil
}

func (p *KafkaPublisher) Publish(topic string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).WithField("topic", topic).Warn("failed to marshal event")
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(payload),
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		logrus.WithError(err).WithField("topic", topic).Warn("failed to publish event")
	}
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// Nop is used when KAFKA_BROKERS is not configured.
type Nop struct{}

func (Nop) Publish(string, any) {}
