package events

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/carelink/pkg/metrics"
)

type Handler func(ctx context.Context, e Event) error

type subscriber struct {
	name string
	fn   Handler
}

// Bus is a synchronous in-process publisher. Publish returns only after
// every subscriber ran; subscriber errors are logged and counted, never
// returned to the publisher.
type Bus struct {
	mu          sync.RWMutex
	subscribers []subscriber
	log         *zap.Logger
	metrics     *metrics.Collector
}

// NewBus accepts a nil collector.
func NewBus(log *zap.Logger, m *metrics.Collector) *Bus {
	return &Bus{log: log, metrics: m}
}

func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, subscriber{name: name, fn: h})
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	for _, s := range subs {
		if err := b.deliver(ctx, s, e); err != nil {
			b.log.Error("event subscriber failed",
				zap.String("subscriber", s.name),
				zap.String("event", e.Name()),
				zap.String("key", e.Key()),
				zap.Error(err),
			)
			if b.metrics != nil {
				b.metrics.RecordEventFailure(s.name, e.Name())
			}
		}
	}
}

func (b *Bus) deliver(ctx context.Context, s subscriber, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.fn(ctx, e)
}
