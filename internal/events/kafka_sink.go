package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/config"
)

// MessageWriter is the subset of *kafka.Writer the sink needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// envelope is the JSON value written for every event.
type envelope struct {
	Type    string `json:"type"`
	Payload Event  `json:"payload"`
}

// KafkaSink exports bus events to a topic. Writes go through a circuit
// breaker so a broker outage costs one fast failure per request.
type KafkaSink struct {
	writer  MessageWriter
	breaker *gobreaker.CircuitBreaker[struct{}]
	timeout time.Duration
	log     *zap.Logger
}

func NewKafkaSink(cfg config.KafkaConfig, log *zap.Logger) *KafkaSink {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: cfg.WriteTimeout,
	}
	return newKafkaSink(w, cfg.WriteTimeout, log)
}

func newKafkaSink(w MessageWriter, timeout time.Duration, log *zap.Logger) *KafkaSink {
	settings := gobreaker.Settings{
		Name:        "kafka-events",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &KafkaSink{
		writer:  w,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
		timeout: timeout,
		log:     log,
	}
}

// Handle is a bus Handler.
func (s *KafkaSink) Handle(ctx context.Context, e Event) error {
	value, err := json.Marshal(envelope{Type: e.Name(), Payload: e})
	if err != nil {
		return fmt.Errorf("encoding %s: %w", e.Name(), err)
	}

	msg := kafka.Message{
		Key:   []byte(e.Key()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Name())},
		},
	}

	_, err = s.breaker.Execute(func() (struct{}, error) {
		wctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return struct{}{}, s.writer.WriteMessages(wctx, msg)
	})
	if err != nil {
		return fmt.Errorf("publishing %s: %w", e.Name(), err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
