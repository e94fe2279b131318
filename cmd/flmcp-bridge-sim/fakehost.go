package main

import (
	"log"
	"sync"

	"github.com/studiobridge/fl-mcp-bridge/internal/innerbridge"
)

// fakeHost stands in for the DAW's embedded scripting environment (spec.md
// Non-goals: "full offline emulation of the host" is explicitly out of
// scope; this is just enough behavior to drive the router end to end). It
// models one plugin slot on channel 0, slot 0, with a small fixed parameter
// list resembling FL Studio's 3x Osc.
type fakeHost struct {
	mu     sync.Mutex
	values map[int]float64
	names  []string
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		values: map[int]float64{0: 0.5, 1: 0.15, 2: 0.8},
		names:  []string{"Cut off freq", "Resonance", "Osc 1 VOL"},
	}
}

func (h *fakeHost) DiscoverParameters(channel, slot int) ([]innerbridge.Parameter, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	params := make([]innerbridge.Parameter, len(h.names))
	for i, name := range h.names {
		params[i] = innerbridge.Parameter{Index: i, Name: name, Value: h.values[i]}
	}
	log.Printf("fakehost: discovered %d parameters for channel=%d slot=%d", len(params), channel, slot)
	return params, nil
}

func (h *fakeHost) SetParameter(channel, slot, index int, value float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.values[index] = value
	log.Printf("fakehost: set channel=%d slot=%d index=%d value=%.3f", channel, slot, index, value)
	return nil
}

func (h *fakeHost) GetParameter(channel, slot, index int) (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.values[index], nil
}

func (h *fakeHost) OpenNoteEditor(pattern, channel int) error {
	log.Printf("fakehost: opened piano roll for pattern=%d channel=%d", pattern, channel)
	return nil
}
