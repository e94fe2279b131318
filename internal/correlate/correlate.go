// Package correlate implements the correlator (spec.md §4.2): it assigns
// per-request correlation ids, matches asynchronous responses back to the
// call that is waiting on them, enforces per-call timeouts, and fails all
// outstanding calls when the transport disconnects.
package correlate

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/studiobridge/fl-mcp-bridge/internal/bridgeerr"
	"github.com/studiobridge/fl-mcp-bridge/internal/metrics"
	"github.com/studiobridge/fl-mcp-bridge/internal/wire"
)

// Sender is the subset of transport.Port the correlator depends on. Kept
// narrow so tests can supply a loopback double without opening real MIDI
// ports.
type Sender interface {
	Send(f wire.Frame) error
}

type pendingCall struct {
	timer *time.Timer
	done  chan result
}

type result struct {
	payload []byte
	status  wire.Status
	err     error
}

// Correlator owns the correlation-id space and the map of in-flight calls
// for one MIDI link. The zero value is not usable; construct with New.
type Correlator struct {
	mu      sync.Mutex
	sender  Sender
	nextID  byte
	pending map[byte]*pendingCall
	reasm   map[byte]*wire.Reassembler
	closed  bool

	// Metrics is optional; nil means no instrumentation. Set it right after
	// New, before the first Execute, the same way bridgeclient.Client.Timeout
	// is set after construction.
	Metrics *metrics.Metrics
}

// New returns a Correlator that sends command frames through sender.
func New(sender Sender) *Correlator {
	return &Correlator{
		sender:  sender,
		nextID:  1,
		pending: make(map[byte]*pendingCall),
		reasm:   make(map[byte]*wire.Reassembler),
	}
}

// Execute encodes action and params as a command frame, sends it, and
// blocks until a matching response arrives, timeout elapses, or the link
// disconnects. On success it decodes the reassembled response payload into
// out (a pointer), mirroring net/rpc's Call signature.
func (c *Correlator) Execute(ctx context.Context, action string, params any, timeout time.Duration, out any) error {
	id, err := c.allocate()
	if err != nil {
		return err
	}

	req := struct {
		Action string `json:"action"`
		Params any    `json:"params"`
	}{Action: action, Params: params}

	frames, err := wire.EncodeValue(wire.OriginClient, id, wire.TypeCommand, wire.StatusOK, req)
	if err != nil {
		c.release(id)
		return fmt.Errorf("correlate: encode %q: %w", action, err)
	}

	call := &pendingCall{done: make(chan result, 1)}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.release(id)
		return bridgeerr.Disconnected{}
	}
	c.pending[id] = call
	c.mu.Unlock()

	if c.Metrics != nil {
		c.Metrics.InFlightRequests.Inc()
		defer c.Metrics.InFlightRequests.Dec()
	}
	start := time.Now()

	call.timer = time.AfterFunc(timeout, func() {
		c.resolve(id, result{err: bridgeerr.Timeout{Action: action, MS: int(timeout / time.Millisecond)}})
	})

	for _, f := range frames {
		if err := c.sender.Send(f); err != nil {
			c.resolve(id, result{err: fmt.Errorf("correlate: send %q: %w", action, err)})
			break
		}
	}

	select {
	case r := <-call.done:
		if c.Metrics != nil {
			c.Metrics.ObserveRequest(action, time.Since(start))
		}
		if r.err != nil {
			if _, isTimeout := r.err.(bridgeerr.Timeout); isTimeout && c.Metrics != nil {
				c.Metrics.Timeouts.WithLabelValues(action).Inc()
			}
			return r.err
		}
		if r.status != wire.StatusOK {
			var msg struct {
				Error string `json:"error"`
			}
			_ = wire.DecodeValue(r.payload, &msg)
			return bridgeerr.HandlerFailed{Message: msg.Error}
		}
		if out != nil {
			if err := wire.DecodeValue(r.payload, out); err != nil {
				return fmt.Errorf("correlate: decode response for %q: %w", action, err)
			}
		}
		return nil
	case <-ctx.Done():
		if c.Metrics != nil {
			c.Metrics.ObserveRequest(action, time.Since(start))
		}
		c.resolve(id, result{err: ctx.Err()})
		return ctx.Err()
	}
}

// HandleFrame feeds an inbound response frame from the transport. It
// reassembles chunked responses and resolves the matching pending call once
// the final chunk arrives. Frames for unknown correlation ids are dropped
// (e.g. a response that arrived after its call already timed out).
func (c *Correlator) HandleFrame(f wire.Frame) {
	if f.Type != wire.TypeResponse || f.Origin != wire.OriginServer {
		return
	}

	c.mu.Lock()
	r, ok := c.reasm[f.CorrelationID]
	if !ok {
		r = wire.NewReassembler()
		c.reasm[f.CorrelationID] = r
	}
	c.mu.Unlock()

	payload, complete, err := r.Feed(f)
	if err != nil {
		c.mu.Lock()
		delete(c.reasm, f.CorrelationID)
		c.mu.Unlock()
		log.Printf("correlate: reassembly failed for correlation id %d: %v", f.CorrelationID, err)
		c.resolve(f.CorrelationID, result{err: err})
		return
	}
	if !complete {
		return
	}

	// resolve() also clears c.reasm[id]; no need to do it here too.
	c.resolve(f.CorrelationID, result{payload: payload, status: f.Status})
}

// Disconnect fails every pending call with bridgeerr.Disconnected and marks
// the correlator closed; subsequent Execute calls fail immediately (spec.md
// §4.3: "all downstream components treat a disconnect as invalidating all
// pending work").
func (c *Correlator) Disconnect() {
	c.mu.Lock()
	c.closed = true
	ids := make([]byte, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	for _, id := range ids {
		c.resolve(id, result{err: bridgeerr.Disconnected{}})
	}
}

// Reconnect clears the closed flag so a fresh transport can resume serving
// Execute calls.
func (c *Correlator) Reconnect() {
	c.mu.Lock()
	c.closed = false
	c.mu.Unlock()
}

func (c *Correlator) allocate() (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, bridgeerr.Disconnected{}
	}
	start := c.nextID
	for {
		id := c.nextID
		c.nextID++
		if c.nextID > 127 {
			c.nextID = 1
		}
		if _, inUse := c.pending[id]; !inUse {
			c.pending[id] = nil // reserve the slot until Execute fills it in
			return id, nil
		}
		if c.nextID == start {
			return 0, bridgeerr.ResourceExhausted{}
		}
	}
}

func (c *Correlator) release(id byte) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Correlator) resolve(id byte, r result) {
	c.mu.Lock()
	call := c.pending[id]
	delete(c.pending, id)
	delete(c.reasm, id) // drop any partial reassembly so allocate() can't hand the id back with stale chunks queued
	c.mu.Unlock()

	if call == nil {
		return
	}
	if call.timer != nil {
		call.timer.Stop()
	}
	select {
	case call.done <- r:
	default:
	}
}
