package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"ghost/internal/logging"
)

const (
	defaultQueueSize      = 1000
	defaultPublishTimeout = time.Second
)

// Handler processes one event. Handlers run on the dispatcher goroutine;
// a slow handler delays everything behind it.
type Handler func(Event)

// Bus is a bounded, single-dispatcher event bus.
type Bus struct {
	queue          chan Event
	publishTimeout time.Duration
	log            *zap.Logger

	mu       sync.RWMutex
	handlers map[string][]Handler

	done chan struct{}
	once sync.Once
}

// New builds a bus with the default queue size.
func New() *Bus {
	return NewSized(defaultQueueSize, defaultPublishTimeout)
}

// NewSized builds a bus with explicit queue bounds, for tests.
func NewSized(queueSize int, publishTimeout time.Duration) *Bus {
	return &Bus{
		queue:          make(chan Event, queueSize),
		publishTimeout: publishTimeout,
		log:            logging.For(logging.CategoryBus),
		handlers:       map[string][]Handler{},
		done:           make(chan struct{}),
	}
}

// Subscribe registers a handler for one event type. Handlers for the same
// type run in subscription order.
func (b *Bus) Subscribe(eventType string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

// Publish enqueues an event. When the queue stays full past the publish
// timeout the event is dropped and an error returned; the agent keeps
// running with a gap in its event stream rather than deadlocking.
func (b *Bus) Publish(ev Event) error {
	select {
	case b.queue <- ev:
		return nil
	default:
	}

	timer := time.NewTimer(b.publishTimeout)
	defer timer.Stop()
	select {
	case b.queue <- ev:
		return nil
	case <-timer.C:
		b.log.Error("event dropped, queue full",
			zap.String("type", ev.Type()),
			zap.String("id", ev.EventID()))
		return fmt.Errorf("event bus queue full, dropped %s", ev.Type())
	}
}

// Run dispatches events until ctx is cancelled, then drains what is
// already queued. Call it from exactly one goroutine.
func (b *Bus) Run(ctx context.Context) {
	defer b.once.Do(func() { close(b.done) })
	for {
		select {
		case ev := <-b.queue:
			b.dispatch(ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-b.queue:
					b.dispatch(ev)
				default:
					return
				}
			}
		}
	}
}

// Done closes after Run returns.
func (b *Bus) Done() <-chan struct{} { return b.done }

func (b *Bus) dispatch(ev Event) {
	logging.RecordEvent(ev.Type(), zap.String("id", ev.EventID()))

	b.mu.RLock()
	handlers := b.handlers[ev.Type()]
	b.mu.RUnlock()

	for _, h := range handlers {
		b.invoke(h, ev)
	}
}

func (b *Bus) invoke(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				zap.String("type", ev.Type()),
				zap.Any("panic", r))
		}
	}()
	h(ev)
}
