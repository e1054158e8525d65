package pubsub

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Topic is a typed publish/subscribe channel. Each handler invocation is
// independently recovered so one failing subscriber cannot block the rest.
type Topic[T any] struct {
	name   string
	logger *zap.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]func(T)
}

// NewTopic constructs a named topic. A nil logger falls back to a no-op.
func NewTopic[T any](name string, logger *zap.Logger) *Topic[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Topic[T]{
		name:   name,
		logger: logger,
		subs:   map[int]func(T){},
	}
}

// Subscribe registers a handler and returns its unsubscribe function.
// Unsubscribing twice is a no-op.
func (t *Topic[T]) Subscribe(fn func(T)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, id)
	}
}

// Publish delivers the event to every current subscriber in registration
// order. Panics inside a handler are recovered and logged; delivery to
// the remaining handlers continues.
func (t *Topic[T]) Publish(event T) {
	t.mu.Lock()
	handlers := make([]func(T), 0, len(t.subs))
	ids := make([]int, 0, len(t.subs))
	for id := range t.subs {
		ids = append(ids, id)
	}
	// map order is random; deliver in subscription order
	sort.Ints(ids)
	for _, id := range ids {
		handlers = append(handlers, t.subs[id])
	}
	t.mu.Unlock()

	for _, fn := range handlers {
		t.invoke(fn, event)
	}
}

// Len returns the number of active subscribers.
func (t *Topic[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

func (t *Topic[T]) invoke(fn func(T), event T) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("pubsub: subscriber panicked",
				zap.String("topic", t.name),
				zap.Any("panic", r))
		}
	}()
	fn(event)
}
