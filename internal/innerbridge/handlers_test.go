package innerbridge

import (
	"path/filepath"
	"testing"

	"github.com/studiobridge/fl-mcp-bridge/internal/fileipc"
)

type fakeHost struct {
	params       map[[2]int][]Parameter
	setCalls     []setCall
	openedPattern int
	openedChannel int
	openErr      error
}

type setCall struct {
	channel, slot, index int
	value                float64
}

func (h *fakeHost) DiscoverParameters(channel, slot int) ([]Parameter, error) {
	return h.params[[2]int{channel, slot}], nil
}

func (h *fakeHost) SetParameter(channel, slot, index int, value float64) error {
	h.setCalls = append(h.setCalls, setCall{channel, slot, index, value})
	return nil
}

func (h *fakeHost) GetParameter(channel, slot, index int) (float64, error) {
	for _, p := range h.params[[2]int{channel, slot}] {
		if p.Index == index {
			return p.Value, nil
		}
	}
	return 0, nil
}

func (h *fakeHost) OpenNoteEditor(pattern, channel int) error {
	h.openedPattern, h.openedChannel = pattern, channel
	return h.openErr
}

func TestHandleDiscoverParameters(t *testing.T) {
	host := &fakeHost{params: map[[2]int][]Parameter{
		{0, 1}: {{Index: 0, Name: "Cutoff", Value: 0.5}},
	}}
	h := handleDiscoverParameters(host)
	result, err := h(map[string]any{"channel": float64(0), "slot": float64(1)})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	resp := result.(map[string]any)
	list := resp["parameters"].([]Parameter)
	if len(list) != 1 || list[0].Name != "Cutoff" {
		t.Fatalf("parameters = %+v", list)
	}
}

func TestHandleSetParameter(t *testing.T) {
	host := &fakeHost{}
	h := handleSetParameter(host)
	_, err := h(map[string]any{"channel": float64(0), "slot": float64(1), "index": float64(2), "value": float64(0.75)})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(host.setCalls) != 1 || host.setCalls[0] != (setCall{0, 1, 2, 0.75}) {
		t.Fatalf("setCalls = %+v", host.setCalls)
	}
}

func TestHandleSetParameterMissingField(t *testing.T) {
	host := &fakeHost{}
	h := handleSetParameter(host)
	if _, err := h(map[string]any{"channel": float64(0)}); err == nil {
		t.Fatal("expected error for missing params")
	}
}

func TestHandleOpenPianoRoll(t *testing.T) {
	host := &fakeHost{}
	h := handleOpenPianoRoll(host)
	if _, err := h(map[string]any{"pattern": float64(2), "channel": float64(3)}); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if host.openedPattern != 2 || host.openedChannel != 3 {
		t.Fatalf("OpenNoteEditor got pattern=%d channel=%d", host.openedPattern, host.openedChannel)
	}
}

func TestHandleAddNotesAndReadState(t *testing.T) {
	staging := fileipc.New(filepath.Join(t.TempDir(), "staging"))

	add := handleAddNotes(staging)
	notes := []any{
		map[string]any{"time": float64(0), "duration": float64(0.25), "key": float64(60), "velocity": float64(100)},
	}
	if _, err := add(map[string]any{"pattern": float64(1), "channel": float64(2), "notes": notes}); err != nil {
		t.Fatalf("add_notes: %v", err)
	}

	req, ok, err := staging.ReadRequest()
	if err != nil || !ok {
		t.Fatalf("ReadRequest: ok=%v err=%v", ok, err)
	}
	if req.Action != "add_notes" || len(req.Notes) != 1 || req.Notes[0].Key != 60 {
		t.Fatalf("request = %+v", req)
	}

	// Simulate the piano-roll side answering with a state file.
	if err := staging.WriteState(fileipc.State{Pattern: 1, Channel: 2, NoteCount: 1, Notes: req.Notes}); err != nil {
		t.Fatalf("WriteState: %v", err)
	}

	readState := handleReadState(staging)
	result, err := readState(nil)
	if err != nil {
		t.Fatalf("read_state: %v", err)
	}
	st := result.(fileipc.State)
	if st.NoteCount != 1 {
		t.Fatalf("state = %+v", st)
	}
}

func TestHandleClear(t *testing.T) {
	staging := fileipc.New(filepath.Join(t.TempDir(), "staging"))
	clear := handleClear(staging)
	if _, err := clear(map[string]any{"pattern": float64(1), "channel": float64(0)}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	req, ok, err := staging.ReadRequest()
	if err != nil || !ok {
		t.Fatalf("ReadRequest: ok=%v err=%v", ok, err)
	}
	if req.Action != "clear" {
		t.Fatalf("request = %+v", req)
	}
}
