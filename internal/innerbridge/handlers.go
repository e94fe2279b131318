package innerbridge

import (
	"fmt"

	"github.com/studiobridge/fl-mcp-bridge/internal/fileipc"
)

// RegisterDefaultHandlers wires every action named in spec.md §4.6/§6 onto
// router, backed by host and staging. This is the full Inner Bridge command
// surface; the Outer Server calls through bridgeclient, one method per
// action registered here.
func RegisterDefaultHandlers(router *Router, host HostAPI, staging *fileipc.Staging) {
	router.Register("discover_parameters", handleDiscoverParameters(host))
	router.Register("set_parameter", handleSetParameter(host))
	router.Register("get_parameter", handleGetParameter(host))
	router.Register("open_piano_roll", handleOpenPianoRoll(host))
	router.Register("add_notes", handleAddNotes(staging))
	router.Register("clear", handleClear(staging))
	router.Register("read_state", handleReadState(staging))
}

func handleDiscoverParameters(host HostAPI) Handler {
	return func(params map[string]any) (any, error) {
		channel, err := paramInt(params, "channel")
		if err != nil {
			return nil, err
		}
		slot, err := paramInt(params, "slot")
		if err != nil {
			return nil, err
		}
		list, err := host.DiscoverParameters(channel, slot)
		if err != nil {
			return nil, err
		}
		return map[string]any{"parameters": list}, nil
	}
}

func handleSetParameter(host HostAPI) Handler {
	return func(params map[string]any) (any, error) {
		channel, err := paramInt(params, "channel")
		if err != nil {
			return nil, err
		}
		slot, err := paramInt(params, "slot")
		if err != nil {
			return nil, err
		}
		index, err := paramInt(params, "index")
		if err != nil {
			return nil, err
		}
		value, err := paramFloat(params, "value")
		if err != nil {
			return nil, err
		}
		return nil, host.SetParameter(channel, slot, index, value)
	}
}

func handleGetParameter(host HostAPI) Handler {
	return func(params map[string]any) (any, error) {
		channel, err := paramInt(params, "channel")
		if err != nil {
			return nil, err
		}
		slot, err := paramInt(params, "slot")
		if err != nil {
			return nil, err
		}
		index, err := paramInt(params, "index")
		if err != nil {
			return nil, err
		}
		value, err := host.GetParameter(channel, slot, index)
		if err != nil {
			return nil, err
		}
		return map[string]any{"value": value}, nil
	}
}

func handleOpenPianoRoll(host HostAPI) Handler {
	return func(params map[string]any) (any, error) {
		pattern, err := paramInt(params, "pattern")
		if err != nil {
			return nil, err
		}
		channel, err := paramInt(params, "channel")
		if err != nil {
			return nil, err
		}
		return nil, host.OpenNoteEditor(pattern, channel)
	}
}

func handleAddNotes(staging *fileipc.Staging) Handler {
	return func(params map[string]any) (any, error) {
		pattern, err := paramInt(params, "pattern")
		if err != nil {
			return nil, err
		}
		channel, err := paramInt(params, "channel")
		if err != nil {
			return nil, err
		}
		notes, err := paramNotes(params, "notes")
		if err != nil {
			return nil, err
		}
		req := fileipc.Request{Action: "add_notes", Notes: notes, Pattern: pattern, Channel: channel}
		return nil, staging.WriteRequest(req)
	}
}

func handleClear(staging *fileipc.Staging) Handler {
	return func(params map[string]any) (any, error) {
		pattern, err := paramInt(params, "pattern")
		if err != nil {
			return nil, err
		}
		channel, err := paramInt(params, "channel")
		if err != nil {
			return nil, err
		}
		req := fileipc.Request{Action: "clear", Pattern: pattern, Channel: channel}
		return nil, staging.WriteRequest(req)
	}
}

func handleReadState(staging *fileipc.Staging) Handler {
	return func(params map[string]any) (any, error) {
		st, err := staging.RequireState()
		if err != nil {
			return nil, err
		}
		return st, nil
	}
}

func paramInt(params map[string]any, name string) (int, error) {
	v, ok := params[name]
	if !ok {
		return 0, fmt.Errorf("missing param %q", name)
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("param %q: want number, got %T", name, v)
	}
}

func paramFloat(params map[string]any, name string) (float64, error) {
	v, ok := params[name]
	if !ok {
		return 0, fmt.Errorf("missing param %q", name)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("param %q: want number, got %T", name, v)
	}
}

func paramNotes(params map[string]any, name string) ([]fileipc.NoteData, error) {
	v, ok := params[name]
	if !ok {
		return nil, fmt.Errorf("missing param %q", name)
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("param %q: want array, got %T", name, v)
	}
	notes := make([]fileipc.NoteData, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("param %q[%d]: want object, got %T", name, i, item)
		}
		timeVal, err := paramFloat(m, "time")
		if err != nil {
			return nil, fmt.Errorf("param %q[%d]: %w", name, i, err)
		}
		duration, err := paramFloat(m, "duration")
		if err != nil {
			return nil, fmt.Errorf("param %q[%d]: %w", name, i, err)
		}
		key, err := paramInt(m, "key")
		if err != nil {
			return nil, fmt.Errorf("param %q[%d]: %w", name, i, err)
		}
		velocity, err := paramFloat(m, "velocity")
		if err != nil {
			return nil, fmt.Errorf("param %q[%d]: %w", name, i, err)
		}
		notes = append(notes, fileipc.NoteData{Time: timeVal, Duration: duration, Key: key, Velocity: velocity})
	}
	return notes, nil
}
