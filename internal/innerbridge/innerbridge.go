// Package innerbridge implements the Inner Bridge side of the link: the
// command router that runs inside the host's embedded scripting
// environment (spec.md §4.4). It is driven by a HostAPI so the actual host
// calls are an injected dependency, mirrored on hdhomerun.Server's injected
// StreamFunc: the real host API is out of scope (spec.md §1), but the shape
// of "a handler calls out to one abstract capability" is identical.
package innerbridge

import (
	"fmt"
	"log"

	"github.com/studiobridge/fl-mcp-bridge/internal/bridgeerr"
	"github.com/studiobridge/fl-mcp-bridge/internal/wire"
)

// HostAPI is everything a router Handler may call into the host for. It is
// the seam between this package and the real DAW scripting environment,
// which this bridge never emulates (spec.md Non-goals).
type HostAPI interface {
	// DiscoverParameters returns the live parameter list for a plugin slot.
	DiscoverParameters(channel, slot int) ([]Parameter, error)
	// SetParameter writes a value to one parameter index.
	SetParameter(channel, slot, index int, value float64) error
	// GetParameter reads a value back from the host; spec.md notes this is
	// unreliable for many plugins, which is why the resolver prefers shadow
	// state over calling this.
	GetParameter(channel, slot, index int) (float64, error)
	// OpenNoteEditor focuses the host's piano-roll window for pattern on
	// channel, so the user can run the piano-roll script after a file-IPC
	// request has been staged (spec.md §4.5 step 1).
	OpenNoteEditor(pattern, channel int) error
}

// Parameter is one entry of a plugin's parameter list (spec.md §4.6).
type Parameter struct {
	Index int     `json:"index"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Handler is a router entry: params in, a JSON-serializable result out. A
// handler that returns an error produces a status=error response frame; it
// must never block for long (spec.md §4.4) — long-running work is staged
// through the file IPC (internal/fileipc) instead.
type Handler func(params map[string]any) (any, error)

// Sender is the narrow capability the router needs to reply; satisfied by
// *correlate.Correlator's transport, or directly by *transport.Port.
type Sender interface {
	Send(f wire.Frame) error
}

// Router dispatches decoded command frames to registered handlers and sends
// the response frame immediately, never deferred (spec.md §4.4).
type Router struct {
	sender   Sender
	handlers map[string]Handler
}

// NewRouter returns an empty Router that replies through sender.
func NewRouter(sender Sender) *Router {
	return &Router{sender: sender, handlers: make(map[string]Handler)}
}

// Register adds a handler for action. Registering the same action twice
// replaces the previous handler.
func (r *Router) Register(action string, h Handler) {
	r.handlers[action] = h
}

// HandleFrame decodes f as a command, dispatches to the matching handler,
// and sends exactly one response frame sharing f's correlation id. Panics
// inside a handler are recovered and turned into a status=error response:
// a load-time or callback-time crash here would make the host refuse to
// keep running the script (spec.md §4.4 "Safe init").
func (r *Router) HandleFrame(f wire.Frame) {
	if f.Type != wire.TypeCommand || f.Origin != wire.OriginClient {
		return
	}

	var req struct {
		Action string         `json:"action"`
		Params map[string]any `json:"params"`
	}
	if err := wire.DecodeValue(f.Payload, &req); err != nil {
		r.reply(f.CorrelationID, wire.StatusError, map[string]string{"error": "malformed command: " + err.Error()})
		return
	}

	result, err := r.dispatch(req.Action, req.Params)
	if err != nil {
		r.reply(f.CorrelationID, wire.StatusError, map[string]string{"error": err.Error()})
		return
	}
	r.reply(f.CorrelationID, wire.StatusOK, result)
}

func (r *Router) dispatch(action string, params map[string]any) (result any, err error) {
	h, ok := r.handlers[action]
	if !ok {
		return nil, bridgeerr.RouterUnknownAction{Action: action}
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("innerbridge: handler %q panicked: %v", action, rec)
			err = bridgeerr.HandlerFailed{Message: fmt.Sprintf("internal error in %q: %v", action, rec)}
		}
	}()

	return h(params)
}

func (r *Router) reply(correlationID byte, status wire.Status, payload any) {
	frames, err := wire.EncodeValue(wire.OriginServer, correlationID, wire.TypeResponse, status, payload)
	if err != nil {
		log.Printf("innerbridge: encode response for correlation id %d: %v", correlationID, err)
		return
	}
	for _, f := range frames {
		if err := r.sender.Send(f); err != nil {
			log.Printf("innerbridge: send response chunk for correlation id %d: %v", correlationID, err)
			return
		}
	}
}

// SafeInit runs init, recovering any panic and logging it instead of
// letting it propagate — a load-time crash would cause the host to refuse
// to reload the script on subsequent starts (spec.md §4.4).
func SafeInit(name string, init func() error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("innerbridge: %s: init panicked: %v", name, rec)
		}
	}()
	if err := init(); err != nil {
		log.Printf("innerbridge: %s: init failed: %v", name, err)
	}
}
