// Package fileipc implements the cross-interpreter staging directory
// (spec.md §4.5): the MIDI-side handler cannot create notes directly, so it
// writes a request file that a second, piano-roll-scoped interpreter picks
// up, applies, and answers by writing a state file.
package fileipc

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/studiobridge/fl-mcp-bridge/internal/bridgeerr"
)

const (
	requestFileName = "note_request.json"
	stateFileName   = "piano_roll_state.json"
)

// NoteData is one note within a request (spec.md §6: times/durations in beats).
type NoteData struct {
	Time     float64 `json:"time"`
	Duration float64 `json:"duration"`
	Key      int     `json:"key"`
	Velocity float64 `json:"velocity"`
}

// Request is the request file schema (spec.md §6, excerpt).
type Request struct {
	Action  string     `json:"action"`
	Notes   []NoteData `json:"notes,omitempty"`
	Pattern int        `json:"pattern,omitempty"`
	Channel int        `json:"channel,omitempty"`
}

// State is the state file the piano-roll script writes back after applying
// a request.
type State struct {
	Pattern   int        `json:"pattern"`
	Channel   int        `json:"channel"`
	NoteCount int        `json:"note_count"`
	Notes     []NoteData `json:"notes,omitempty"`
}

// Staging is the fixed directory pair used for the handoff. Only one
// goroutine should write requests at a time; the Outer Server's
// single-writer-by-construction model (spec.md §5) makes this true in
// practice, but Staging also serializes internally to be safe under tests
// that don't honor that.
type Staging struct {
	mu  sync.Mutex
	dir string
}

// New returns a Staging rooted at dir. The directory is created lazily on
// first write; its absence is never an error on read (spec.md §4.5
// "Reads are tolerant of absent files").
func New(dir string) *Staging {
	return &Staging{dir: dir}
}

func (s *Staging) requestPath() string { return filepath.Join(s.dir, requestFileName) }
func (s *Staging) statePath() string   { return filepath.Join(s.dir, stateFileName) }

// WriteRequest overwrites the single outstanding request file. Per spec.md
// §4.5, at most one outstanding request exists; a new write replaces it
// unconditionally. The write goes to a temp file in the same directory and
// is renamed into place so a reader never observes a partially-written
// request (mirrors the materializer's download-then-rename pattern).
func (s *Staging) WriteRequest(req Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return err
	}

	final := s.requestPath()
	partial := final + ".partial"
	if err := os.WriteFile(partial, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(partial, final); err != nil {
		os.Remove(partial)
		return err
	}
	log.Printf("fileipc: wrote request action=%q notes=%d", req.Action, len(req.Notes))
	return nil
}

// ReadState reads and parses the state file, if present. A missing file is
// not an error: it returns (State{}, false, nil), letting read_state
// handlers reply gracefully before the piano-roll script has ever run.
func (s *Staging) ReadState() (State, bool, error) {
	data, err := os.ReadFile(s.statePath())
	if os.IsNotExist(err) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, false, err
	}
	return st, true, nil
}

// WriteState is used by the piano-roll side of the handoff (normally a
// second interpreter; exercised directly in tests) to record post-apply
// state and clear the request.
func (s *Staging) WriteState(st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.statePath(), data, 0o644); err != nil {
		return err
	}
	return s.clearRequestLocked()
}

// ClearRequest deletes the request file if present; absence is not an error.
func (s *Staging) ClearRequest() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearRequestLocked()
}

func (s *Staging) clearRequestLocked() error {
	err := os.Remove(s.requestPath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ReadRequest reads the current outstanding request file, if any. Used by
// the piano-roll side to pick up work.
func (s *Staging) ReadRequest() (Request, bool, error) {
	data, err := os.ReadFile(s.requestPath())
	if os.IsNotExist(err) {
		return Request{}, false, nil
	}
	if err != nil {
		return Request{}, false, err
	}
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, false, err
	}
	return req, true, nil
}

// Dump returns a human-readable snapshot of the staging directory's request
// and state files, for the debugfs inspector. Absence of either file is
// reported inline rather than treated as an error.
func (s *Staging) Dump() string {
	req, reqOK, reqErr := s.ReadRequest()
	st, stOK, stErr := s.ReadState()

	var b []byte
	b = append(b, []byte("request:\n")...)
	switch {
	case reqErr != nil:
		b = append(b, []byte(fmt.Sprintf("  error: %v\n", reqErr))...)
	case !reqOK:
		b = append(b, []byte("  (none)\n")...)
	default:
		b = append(b, []byte(fmt.Sprintf("  action=%s pattern=%d channel=%d notes=%d\n", req.Action, req.Pattern, req.Channel, len(req.Notes)))...)
	}
	b = append(b, []byte("state:\n")...)
	switch {
	case stErr != nil:
		b = append(b, []byte(fmt.Sprintf("  error: %v\n", stErr))...)
	case !stOK:
		b = append(b, []byte("  (none)\n")...)
	default:
		b = append(b, []byte(fmt.Sprintf("  pattern=%d channel=%d note_count=%d\n", st.Pattern, st.Channel, st.NoteCount))...)
	}
	return string(b)
}

// RequireState returns bridgeerr.FileNotFound if the state file is absent,
// for callers that need read_state to surface a remediation error rather
// than an empty result.
func (s *Staging) RequireState() (State, error) {
	st, ok, err := s.ReadState()
	if err != nil {
		return State{}, err
	}
	if !ok {
		return State{}, bridgeerr.FileNotFound{Path: s.statePath()}
	}
	return st, nil
}
