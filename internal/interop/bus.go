package interop

import (
	"context"
	"encoding/json"
)

// ContextHandler receives one inbound context payload. The raw bytes are
// passed through so handlers can decode shapes this process does not model.
type ContextHandler func(payload json.RawMessage)

// BusClient is the injected capability: the host's context-bus client, or nil
// when no bus is present. Keeping it an explicit constructor argument (rather
// than a global lookup) lets tests drive both the real and mock paths.
type BusClient interface {
	// AddContextListener registers handler for contextType and returns a
	// remove function that detaches it. The listener is active once
	// AddContextListener returns; contexts broadcast earlier are not buffered.
	AddContextListener(ctx context.Context, contextType string, handler ContextHandler) (remove func(), err error)

	// Broadcast publishes payload to every listening application.
	Broadcast(ctx context.Context, payload json.RawMessage) error
}
