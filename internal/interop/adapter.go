package interop

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/FinTechTonic/creditnexus/internal/common"
)

// Config for the interop adapter.
type Config struct {
	AppID          string        // identifies this app on the bus
	PublishTimeout time.Duration // per-broadcast deadline when the caller sets none
}

// Subscription is an opaque handle for one inbound listener. It is released
// exactly once; releasing an already-released or inert handle is a no-op, and
// a released handle never sees another callback.
type Subscription struct {
	id          uuid.UUID
	contextType string
	inert       bool

	active  atomic.Bool
	once    sync.Once
	release func()
}

// ID returns the handle's identifier.
func (s *Subscription) ID() uuid.UUID { return s.id }

// ContextType returns the context type this handle listens for.
func (s *Subscription) ContextType() string { return s.contextType }

// Inert reports whether the handle belongs to mock mode and never delivers.
func (s *Subscription) Inert() bool { return s.inert }

// Active reports whether callbacks are currently delivered to this handle.
func (s *Subscription) Active() bool { return s.active.Load() }

// Release detaches the listener. Idempotent; safe on inert handles.
func (s *Subscription) Release() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.active.Store(false)
		if s.release != nil {
			s.release()
		}
	})
}

// Adapter owns capability detection, subscription lifecycle, and publish calls
// against the context bus. Capability is probed once at construction: the host
// environment does not change mid-session, so re-probing per call would add
// latency without added correctness.
type Adapter struct {
	bus     BusClient
	capable bool
	cfg     Config
	logger  *slog.Logger

	mu     sync.Mutex
	subs   map[uuid.UUID]*Subscription
	closed bool
}

// NewAdapter builds an adapter around the injected bus client. A nil client
// means no bus is reachable and the adapter runs in mock mode.
func NewAdapter(bus BusClient, cfg Config, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AppID == "" {
		cfg.AppID = "creditnexus"
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	a := &Adapter{
		bus:     bus,
		capable: bus != nil,
		cfg:     cfg,
		logger:  logger,
		subs:    make(map[uuid.UUID]*Subscription),
	}
	if a.capable {
		logger.Info("interop.capability", "app_id", cfg.AppID, "bus_present", true)
	} else {
		logger.Info("interop.capability", "app_id", cfg.AppID, "bus_present", false, "mode", "mock")
	}
	return a
}

// Capable reports the cached capability probe result.
func (a *Adapter) Capable() bool { return a.capable }

// Subscribe registers an inbound listener for contextType. In mock mode the
// returned handle is inert: it never invokes handler and releasing it is a
// no-op. Callers are responsible for not double-subscribing one
// (contextType, owner) pair.
func (a *Adapter) Subscribe(ctx context.Context, contextType string, handler ContextHandler) (*Subscription, error) {
	if contextType == "" {
		return nil, common.WrapError(common.ErrInvalidInput, "interop: empty context type")
	}

	sub := &Subscription{id: uuid.New(), contextType: contextType}

	if !a.capable {
		sub.inert = true
		a.logger.Info("interop.subscribe.mock", "context_type", contextType, "sub_id", sub.id)
		return sub, nil
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		sub.inert = true
		a.logger.Warn("interop.subscribe.after_close", "context_type", contextType)
		return sub, nil
	}
	a.mu.Unlock()

	// Deliver only while the handle is active: nothing before registration
	// completes, nothing after release.
	gated := func(payload json.RawMessage) {
		if !sub.active.Load() {
			return
		}
		handler(payload)
	}

	remove, err := a.bus.AddContextListener(ctx, contextType, gated)
	if err != nil {
		a.logger.Error("interop.subscribe.failed", "context_type", contextType, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", common.ErrSubscriptionFailed, contextType, err)
	}

	sub.release = func() {
		remove()
		a.forget(sub.id)
		a.logger.Info("interop.subscribe.released", "context_type", contextType, "sub_id", sub.id)
	}
	sub.active.Store(true)

	a.mu.Lock()
	a.subs[sub.id] = sub
	a.mu.Unlock()

	a.logger.Info("interop.subscribe.active", "context_type", contextType, "sub_id", sub.id)
	return sub, nil
}

// Unsubscribe releases sub. Safe on nil, inert, and already-released handles.
func (a *Adapter) Unsubscribe(sub *Subscription) {
	sub.Release()
}

// Publish validates payload against the wire schema and broadcasts it. In mock
// mode the would-be payload is logged and the call succeeds: there is no
// transport to fail. A transport rejection surfaces as ErrPublishRejected.
func (a *Adapter) Publish(ctx context.Context, payload *LoanContext) error {
	if payload == nil {
		return common.WrapError(common.ErrInvalidInput, "interop: nil payload")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encode context: %v", common.ErrValidationFailed, err)
	}
	if err := common.ValidateJSONAgainstSchema(BuildLoanContextJSONSchema(), raw); err != nil {
		a.logger.Error("interop.publish.invalid", "context_type", payload.Type, "error", err)
		return fmt.Errorf("%w: %v", common.ErrValidationFailed, err)
	}

	if !a.capable {
		a.logger.Info("interop.publish.mock", "context_type", payload.Type, "payload", string(raw))
		return nil
	}

	start := time.Now()
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.PublishTimeout)
		defer cancel()
	}

	if err := a.bus.Broadcast(ctx, raw); err != nil {
		a.logger.Error("interop.publish.rejected",
			"context_type", payload.Type,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("%w: %v", common.ErrPublishRejected, err)
	}

	a.logger.Info("interop.publish.ok",
		"context_type", payload.Type,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Close releases every live subscription. Idempotent; part of session
// teardown, so it must run on all exit paths.
func (a *Adapter) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	live := make([]*Subscription, 0, len(a.subs))
	for _, s := range a.subs {
		live = append(live, s)
	}
	a.mu.Unlock()

	for _, s := range live {
		s.Release()
	}
	a.logger.Info("interop.closed", "released", len(live))
}

func (a *Adapter) forget(id uuid.UUID) {
	a.mu.Lock()
	delete(a.subs, id)
	a.mu.Unlock()
}
