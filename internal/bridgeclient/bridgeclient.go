// Package bridgeclient is the Outer Server's typed view of the actions the
// Inner Bridge's router exposes (spec.md §4.4/§4.6): thin, typed wrappers
// over correlate.Correlator.Execute, one per action name. It is the seam
// paramcache.Discoverer and the fileipc-triggering tools are built against,
// so neither package needs to know about wire-level correlation at all.
package bridgeclient

import (
	"context"
	"time"

	"github.com/studiobridge/fl-mcp-bridge/internal/correlate"
	"github.com/studiobridge/fl-mcp-bridge/internal/fileipc"
	"github.com/studiobridge/fl-mcp-bridge/internal/paramcache"
)

// Client calls through to the Inner Bridge's router over one Correlator.
type Client struct {
	Correlator *correlate.Correlator
	Timeout    time.Duration
}

// New returns a Client with spec.md §5's default 5s request timeout.
func New(c *correlate.Correlator) *Client {
	return &Client{Correlator: c, Timeout: 5 * time.Second}
}

// DiscoverParameters implements paramcache.Discoverer by calling the Inner
// Bridge's "discover_parameters" handler.
func (c *Client) DiscoverParameters(channel, slot int) ([]paramcache.Parameter, error) {
	var resp struct {
		Parameters []paramcache.Parameter `json:"parameters"`
	}
	params := map[string]any{"channel": channel, "slot": slot}
	if err := c.Correlator.Execute(context.Background(), "discover_parameters", params, c.Timeout, &resp); err != nil {
		return nil, err
	}
	return resp.Parameters, nil
}

// SetParameter calls the Inner Bridge's "set_parameter" handler.
func (c *Client) SetParameter(channel, slot, index int, value float64) error {
	params := map[string]any{"channel": channel, "slot": slot, "index": index, "value": value}
	return c.Correlator.Execute(context.Background(), "set_parameter", params, c.Timeout, nil)
}

// GetParameter calls the Inner Bridge's "get_parameter" handler. spec.md
// §4.6 calls this read unreliable for many plugins; callers should prefer
// shadow state and only fall through to this when shadow has no entry.
func (c *Client) GetParameter(channel, slot, index int) (float64, error) {
	var resp struct {
		Value float64 `json:"value"`
	}
	params := map[string]any{"channel": channel, "slot": slot, "index": index}
	if err := c.Correlator.Execute(context.Background(), "get_parameter", params, c.Timeout, &resp); err != nil {
		return 0, err
	}
	return resp.Value, nil
}

// OpenPianoRoll calls the Inner Bridge's "open_piano_roll" handler, which
// opens the host window the user needs focused to run the piano-roll
// script after a file-IPC request has been staged (spec.md §4.5 step 1).
func (c *Client) OpenPianoRoll(pattern, channel int) error {
	params := map[string]any{"pattern": pattern, "channel": channel}
	return c.Correlator.Execute(context.Background(), "open_piano_roll", params, c.Timeout, nil)
}

// AddNotes calls the Inner Bridge's "add_notes" handler, which stages a
// file-IPC request for the piano-roll subinterpreter (spec.md §4.5).
func (c *Client) AddNotes(pattern, channel int, notes []fileipc.NoteData) error {
	params := map[string]any{"pattern": pattern, "channel": channel, "notes": notes}
	return c.Correlator.Execute(context.Background(), "add_notes", params, c.Timeout, nil)
}

// ClearNotes calls the Inner Bridge's "clear" handler, staging a file-IPC
// request that clears every note in pattern/channel.
func (c *Client) ClearNotes(pattern, channel int) error {
	params := map[string]any{"pattern": pattern, "channel": channel}
	return c.Correlator.Execute(context.Background(), "clear", params, c.Timeout, nil)
}

// ReadState calls the Inner Bridge's "read_state" handler, returning the
// piano-roll subinterpreter's last exported state file (spec.md §4.5).
func (c *Client) ReadState() (fileipc.State, error) {
	var st fileipc.State
	err := c.Correlator.Execute(context.Background(), "read_state", nil, c.Timeout, &st)
	return st, err
}
