package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/supportops/operations-service/pkg/kafka"
	"github.com/supportops/operations-service/pkg/logging"
	"github.com/supportops/operations-service/pkg/resilience"
)

const (
	eventSource = "operations-service"

	// Tone tags carried on every outcome event so a consumer can pick the
	// right user-facing treatment (toast color, audio cue).
	ToneSuccess = "success"
	ToneError   = "error"
)

// eventProducer is the slice of the Kafka producer the publisher uses.
type eventProducer interface {
	PublishEvent(ctx context.Context, topic string, event *kafka.Event) error
}

// payload is the body of an outcome notification event.
type payload struct {
	Tone    string `json:"tone"`
	Message string `json:"message"`
}

// Publisher emits fire-and-forget outcome notifications to Kafka. Publish
// failures are logged and swallowed: a notification must never fail the
// operation it reports on. The producer is guarded by a circuit breaker so
// a dead broker stops costing a network timeout per event.
type Publisher struct {
	producer eventProducer
	breaker  *resilience.CircuitBreaker
	logger   *logging.Logger
}

// NewPublisher creates a notification publisher.
func NewPublisher(producer eventProducer, logger *logging.Logger, slogger *slog.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		breaker:  resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("kafka-notifications"), slogger),
		logger:   logger.WithComponent("notifications"),
	}
}

// NotifySuccess publishes a success-toned event about the given subject.
func (p *Publisher) NotifySuccess(ctx context.Context, eventType, subject, message string) {
	p.publish(ctx, eventType, subject, ToneSuccess, message)
}

// NotifyError publishes an error-toned event about the given subject.
func (p *Publisher) NotifyError(ctx context.Context, eventType, subject, message string) {
	p.publish(ctx, eventType, subject, ToneError, message)
}

func (p *Publisher) publish(ctx context.Context, eventType, subject, tone, message string) {
	data, err := json.Marshal(payload{Tone: tone, Message: message})
	if err != nil {
		p.logger.WithError(err).Error("failed to encode notification payload")
		return
	}

	event := &kafka.Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        eventSource,
		Subject:       subject,
		Time:          time.Now().UTC(),
		CorrelationID: logging.GetCorrelationID(ctx),
		Data:          data,
	}

	_, err = p.breaker.Execute(ctx, func() (interface{}, error) {
		return nil, p.producer.PublishEvent(ctx, kafka.Topics.Notifications, event)
	})
	if err != nil {
		p.logger.WithError(err).WithFields(map[string]interface{}{
			"eventType": eventType,
			"subject":   subject,
		}).Warn("notification event dropped")
	}
}
