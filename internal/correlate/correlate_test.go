package correlate

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/studiobridge/fl-mcp-bridge/internal/bridgeerr"
	"github.com/studiobridge/fl-mcp-bridge/internal/metrics"
	"github.com/studiobridge/fl-mcp-bridge/internal/wire"
)

// loopbackSender immediately "delivers" the sent command to a handler under
// test control, simulating the Inner Bridge's reply without any real MIDI
// port.
type loopbackSender struct {
	c       *Correlator
	respond func(req wire.Frame) []wire.Frame
}

func (l *loopbackSender) Send(f wire.Frame) error {
	if l.respond == nil {
		return nil
	}
	for _, resp := range l.respond(f) {
		l.c.HandleFrame(resp)
	}
	return nil
}

func TestExecuteSuccess(t *testing.T) {
	c := New(nil)
	sender := &loopbackSender{c: c}
	c.sender = sender

	sender.respond = func(req wire.Frame) []wire.Frame {
		resp, err := wire.EncodeValue(wire.OriginServer, req.CorrelationID, wire.TypeResponse, wire.StatusOK,
			map[string]any{"success": true, "value": 42})
		if err != nil {
			t.Fatalf("encode response: %v", err)
		}
		return resp
	}

	var out struct {
		Success bool `json:"success"`
		Value   int  `json:"value"`
	}
	if err := c.Execute(context.Background(), "ping", nil, time.Second, &out); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !out.Success || out.Value != 42 {
		t.Fatalf("out = %+v", out)
	}
}

func TestExecuteChunkedResponse(t *testing.T) {
	c := New(nil)
	sender := &loopbackSender{c: c}
	c.sender = sender

	big := make(map[string]string)
	for i := 0; i < 500; i++ {
		big["k"] = big["k"] + "0123456789"
	}
	sender.respond = func(req wire.Frame) []wire.Frame {
		resp, err := wire.EncodeValue(wire.OriginServer, req.CorrelationID, wire.TypeResponse, wire.StatusOK, big)
		if err != nil {
			t.Fatalf("encode response: %v", err)
		}
		return resp
	}

	var out map[string]string
	if err := c.Execute(context.Background(), "bigdata", nil, time.Second, &out); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out["k"] != big["k"] {
		t.Fatalf("chunked payload mismatch")
	}
}

func TestExecuteTimeout(t *testing.T) {
	c := New(nil)
	sender := &loopbackSender{c: c} // never responds
	c.sender = sender

	err := c.Execute(context.Background(), "noreply", nil, 20*time.Millisecond, nil)
	var to bridgeerr.Timeout
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if !asTimeout(err, &to) {
		t.Fatalf("expected bridgeerr.Timeout, got %T: %v", err, err)
	}
	if to.Action != "noreply" {
		t.Fatalf("Timeout.Action = %q", to.Action)
	}
}

func TestExecuteHandlerFailed(t *testing.T) {
	c := New(nil)
	sender := &loopbackSender{c: c}
	c.sender = sender
	sender.respond = func(req wire.Frame) []wire.Frame {
		resp, _ := wire.EncodeValue(wire.OriginServer, req.CorrelationID, wire.TypeResponse, wire.StatusError,
			map[string]string{"error": "plugin not found"})
		return resp
	}

	err := c.Execute(context.Background(), "boom", nil, time.Second, nil)
	var hf bridgeerr.HandlerFailed
	if !asHandlerFailed(err, &hf) {
		t.Fatalf("expected bridgeerr.HandlerFailed, got %T: %v", err, err)
	}
	if hf.Message != "plugin not found" {
		t.Fatalf("HandlerFailed.Message = %q", hf.Message)
	}
}

func TestDisconnectFailsAllPending(t *testing.T) {
	c := New(nil)
	sender := &loopbackSender{c: c} // never responds
	c.sender = sender

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Execute(context.Background(), "stuck", nil, 5*time.Second, nil)
	}()

	// give Execute a moment to register its pending call.
	time.Sleep(20 * time.Millisecond)
	c.Disconnect()

	err := <-errCh
	if _, ok := err.(bridgeerr.Disconnected); !ok {
		t.Fatalf("expected bridgeerr.Disconnected, got %T: %v", err, err)
	}

	if err := c.Execute(context.Background(), "after-disconnect", nil, time.Second, nil); err == nil {
		t.Fatalf("expected Execute to fail immediately after Disconnect")
	}
}

// TestTimeoutClearsPartialReassembly guards against a reused correlation id
// picking up a previous, timed-out call's orphaned chunk buffer: the first
// call's "response" never completes (only a continuation chunk arrives), so
// it times out with a partial reassembly still buffered; once that id is
// handed out again, the next call's normal single-frame response must not
// be corrupted by the leftover chunk.
func TestTimeoutClearsPartialReassembly(t *testing.T) {
	c := New(nil)
	sender := &loopbackSender{c: c}
	c.sender = sender

	sender.respond = func(req wire.Frame) []wire.Frame {
		return []wire.Frame{{
			Origin:        wire.OriginServer,
			CorrelationID: req.CorrelationID,
			Continuation:  true,
			Type:          wire.TypeResponse,
			Status:        wire.StatusOK,
			Payload:       []byte("partial"),
		}}
	}
	err := c.Execute(context.Background(), "first", nil, 20*time.Millisecond, nil)
	var to bridgeerr.Timeout
	if !asTimeout(err, &to) {
		t.Fatalf("expected timeout, got %T: %v", err, err)
	}

	c.mu.Lock()
	_, stillBuffered := c.reasm[1]
	c.mu.Unlock()
	if stillBuffered {
		t.Fatalf("reassembly buffer for timed-out id 1 was not cleared")
	}

	// Force id reuse the way a saturated correlation-id space eventually
	// would, and confirm the reused id's next call gets a clean payload
	// rather than the first call's orphaned chunk prepended to it.
	c.mu.Lock()
	c.nextID = 1
	c.mu.Unlock()

	sender.respond = func(req wire.Frame) []wire.Frame {
		resp, encErr := wire.EncodeValue(wire.OriginServer, req.CorrelationID, wire.TypeResponse, wire.StatusOK,
			map[string]any{"value": 7})
		if encErr != nil {
			t.Fatalf("encode response: %v", encErr)
		}
		return resp
	}
	var out struct {
		Value int `json:"value"`
	}
	if err := c.Execute(context.Background(), "second", nil, time.Second, &out); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Value != 7 {
		t.Fatalf("out = %+v, want Value=7 (reused id picked up orphaned chunk)", out)
	}
}

func TestExecuteRecordsMetrics(t *testing.T) {
	c := New(nil)
	sender := &loopbackSender{c: c}
	c.sender = sender
	m := metrics.New()
	c.Metrics = m

	sender.respond = func(req wire.Frame) []wire.Frame {
		resp, _ := wire.EncodeValue(wire.OriginServer, req.CorrelationID, wire.TypeResponse, wire.StatusOK, map[string]any{"ok": true})
		return resp
	}
	if err := c.Execute(context.Background(), "metered", nil, time.Second, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if n := testutil.CollectAndCount(m.RequestLatency); n != 1 {
		t.Fatalf("RequestLatency observations = %d, want 1", n)
	}
	if got := testutil.ToFloat64(m.InFlightRequests); got != 0 {
		t.Fatalf("InFlightRequests after completion = %v, want 0", got)
	}

	sender.respond = nil // never responds, forcing a timeout
	_ = c.Execute(context.Background(), "slow", nil, 10*time.Millisecond, nil)
	if got := testutil.ToFloat64(m.Timeouts.WithLabelValues("slow")); got != 1 {
		t.Fatalf("Timeouts{action=slow} = %v, want 1", got)
	}
}

func asTimeout(err error, target *bridgeerr.Timeout) bool {
	if t, ok := err.(bridgeerr.Timeout); ok {
		*target = t
		return true
	}
	return false
}

func asHandlerFailed(err error, target *bridgeerr.HandlerFailed) bool {
	if hf, ok := err.(bridgeerr.HandlerFailed); ok {
		*target = hf
		return true
	}
	return false
}
