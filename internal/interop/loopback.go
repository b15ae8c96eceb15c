package interop

import (
	"context"
	"encoding/json"
	"sync"
)

// LoopbackBus is an in-process BusClient: every broadcast is delivered
// synchronously to the listeners registered for the payload's type. It stands
// in for a desktop bus bridge in single-process deployments and in tests.
type LoopbackBus struct {
	mu        sync.Mutex
	nextID    int
	listeners map[string]map[int]ContextHandler
}

func NewLoopbackBus() *LoopbackBus {
	return &LoopbackBus{listeners: make(map[string]map[int]ContextHandler)}
}

func (b *LoopbackBus) AddContextListener(_ context.Context, contextType string, handler ContextHandler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.listeners[contextType] == nil {
		b.listeners[contextType] = make(map[int]ContextHandler)
	}
	id := b.nextID
	b.nextID++
	b.listeners[contextType][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners[contextType], id)
	}, nil
}

func (b *LoopbackBus) Broadcast(_ context.Context, payload json.RawMessage) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return err
	}

	b.mu.Lock()
	handlers := make([]ContextHandler, 0, len(b.listeners[head.Type]))
	for _, h := range b.listeners[head.Type] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(payload)
	}
	return nil
}
