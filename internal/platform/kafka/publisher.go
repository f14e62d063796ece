package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/pkg/config"
	"github.com/fatflowers/payrecon/pkg/types"
)

const DefaultTopic = "order-status"

// OrderStatusEvent is published after an order status write commits.
type OrderStatusEvent struct {
	OrderID        string            `json:"order_id"`
	VendorID       string            `json:"vendor_id"`
	PaymentID      string            `json:"payment_id"`
	PreviousStatus types.OrderStatus `json:"previous_status"`
	Status         types.OrderStatus `json:"status"`
	Event          types.EventType   `json:"event,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

type Publisher interface {
	PublishOrderStatusChanged(ctx context.Context, event OrderStatusEvent) error
}

// SaramaPublisher writes events keyed by order id so one order stays on one partition.
type SaramaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *zap.SugaredLogger
}

func NewSaramaPublisher(producer sarama.SyncProducer, topic string, log *zap.SugaredLogger) *SaramaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &SaramaPublisher{producer: producer, topic: topic, log: log}
}

func (p *SaramaPublisher) PublishOrderStatusChanged(ctx context.Context, event OrderStatusEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	carrier := make(headerCarrier, 0)
	otel.GetTextMapPropagator().Inject(ctx, &carrier)

	msg := &sarama.ProducerMessage{
		Topic:   p.topic,
		Key:     sarama.StringEncoder(event.OrderID),
		Value:   sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader(carrier),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	traceID := ""
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		traceID = sc.TraceID().String()
	}
	p.log.Infow("order status event published",
		"trace_id", traceID,
		"topic", p.topic,
		"partition", partition,
		"offset", offset,
		"order_id", event.OrderID,
		"status", event.Status,
	)
	return nil
}

func (p *SaramaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher drops events. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderStatusChanged(context.Context, OrderStatusEvent) error { return nil }

func producerConfig() *sarama.Config {
	c := sarama.NewConfig()
	c.Producer.Return.Successes = true
	c.Producer.RequiredAcks = sarama.WaitForAll
	c.Producer.Retry.Max = 5
	return c
}

// New returns a sarama-backed publisher when kafka.brokers is set.
func New(lc fx.Lifecycle, cfg *config.Config, log *zap.SugaredLogger) (Publisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Infow("kafka not configured, order status events disabled")
		return NoopPublisher{}, nil
	}
	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, producerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	log.Infow("kafka producer initialized", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)

	p := NewSaramaPublisher(producer, cfg.Kafka.Topic, log)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return p.Close()
		},
	})
	return p, nil
}

var Module = fx.Options(fx.Provide(New))

// headerCarrier adapts Kafka record headers to propagation.TextMapCarrier.
type headerCarrier []sarama.RecordHeader

func (c headerCarrier) Get(key string) string {
	for _, h := range c {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Set(key, value string) {
	*c = append(*c, sarama.RecordHeader{Key: []byte(key), Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, len(c))
	for i, h := range c {
		keys[i] = string(h.Key)
	}
	return keys
}
