package innerbridge

import (
	"testing"

	"github.com/studiobridge/fl-mcp-bridge/internal/wire"
)

type recordingSender struct {
	frames []wire.Frame
}

func (s *recordingSender) Send(f wire.Frame) error {
	s.frames = append(s.frames, f)
	return nil
}

func commandFrame(t *testing.T, id byte, action string, params map[string]any) wire.Frame {
	t.Helper()
	frames, err := wire.EncodeValue(wire.OriginClient, id, wire.TypeCommand, wire.StatusOK, struct {
		Action string         `json:"action"`
		Params map[string]any `json:"params"`
	}{Action: action, Params: params})
	if err != nil {
		t.Fatalf("encode command: %v", err)
	}
	return frames[0]
}

func TestHandleFrameSuccess(t *testing.T) {
	sender := &recordingSender{}
	r := NewRouter(sender)
	r.Register("ping", func(params map[string]any) (any, error) {
		return map[string]any{"success": true}, nil
	})

	r.HandleFrame(commandFrame(t, 3, "ping", nil))

	if len(sender.frames) != 1 {
		t.Fatalf("expected 1 response frame, got %d", len(sender.frames))
	}
	resp := sender.frames[0]
	if resp.Status != wire.StatusOK || resp.CorrelationID != 3 || resp.Type != wire.TypeResponse {
		t.Fatalf("response header = %+v", resp)
	}
}

func TestHandleFrameUnknownAction(t *testing.T) {
	sender := &recordingSender{}
	r := NewRouter(sender)

	r.HandleFrame(commandFrame(t, 4, "does_not_exist", nil))

	if len(sender.frames) != 1 || sender.frames[0].Status != wire.StatusError {
		t.Fatalf("expected error response for unknown action, got %+v", sender.frames)
	}
}

func TestHandleFramePanicRecovered(t *testing.T) {
	sender := &recordingSender{}
	r := NewRouter(sender)
	r.Register("boom", func(params map[string]any) (any, error) {
		panic("unexpected nil plugin")
	})

	r.HandleFrame(commandFrame(t, 5, "boom", nil))

	if len(sender.frames) != 1 || sender.frames[0].Status != wire.StatusError {
		t.Fatalf("expected error response after handler panic, got %+v", sender.frames)
	}
}

func TestSafeInitRecoversPanic(t *testing.T) {
	// must not propagate; a load-time crash would block future reloads.
	SafeInit("test", func() error {
		panic("boom")
	})
}
