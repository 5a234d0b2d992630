package event

import (
	"os"
	"runtime/debug"
	"sync"

	"github.com/toritoma/playbridge/internal/logging"
)

// Handler is a function that handles an event.
type Handler func(Event)

// allEvents keys the handlers registered with SubscribeAll.
const allEvents = "*"

// Bus is a synchronous pub-sub event bus. It lets the session manager,
// share builder and host glue report what they did without knowing who is
// listening. Handlers live as long as the bus; a scenario run builds a
// fresh one.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *logging.Logger
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithBusLogger sets the logger used to report recovered handler panics.
func WithBusLogger(logger *logging.Logger) BusOption {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBus creates a new event bus. Handler panics are reported on stderr
// unless a logger is supplied.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		handlers: make(map[string][]Handler),
		logger:   logging.NewWithWriter(os.Stderr, logging.LevelError),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler for one event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll registers handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) {
	b.Subscribe(allEvents, handler)
}

// Publish calls the handlers for e's type, then the SubscribeAll handlers,
// each group in registration order. A panicking handler is recovered and
// logged; delivery continues.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	specific := append([]Handler(nil), b.handlers[e.EventType()]...)
	wildcard := append([]Handler(nil), b.handlers[allEvents]...)
	b.mu.RUnlock()

	for _, h := range specific {
		b.safeCall(h, e)
	}
	for _, h := range wildcard {
		b.safeCall(h, e)
	}
}

func (b *Bus) safeCall(handler Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event_type", e.EventType(),
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	handler(e)
}
