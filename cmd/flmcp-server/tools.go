package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/studiobridge/fl-mcp-bridge/internal/alias"
	"github.com/studiobridge/fl-mcp-bridge/internal/bridgeclient"
	"github.com/studiobridge/fl-mcp-bridge/internal/bridgeerr"
	"github.com/studiobridge/fl-mcp-bridge/internal/fileipc"
	"github.com/studiobridge/fl-mcp-bridge/internal/humanize"
	"github.com/studiobridge/fl-mcp-bridge/internal/metrics"
	"github.com/studiobridge/fl-mcp-bridge/internal/paramcache"
	"github.com/studiobridge/fl-mcp-bridge/internal/renderwatch"
	"github.com/studiobridge/fl-mcp-bridge/internal/samplepipe"
	"github.com/studiobridge/fl-mcp-bridge/internal/shadow"
	"github.com/studiobridge/fl-mcp-bridge/internal/toolsurface"
)

// toolDeps bundles every subsystem a tool handler may need. Handlers close
// over this instead of globals so toolsurface.Registry stays a pure
// name->Handler map (spec.md §4: "Mostly out-of-scope glue").
type toolDeps struct {
	client    *bridgeclient.Client
	cache     *paramcache.Cache
	shadow    *shadow.Store
	aliases   *alias.Table
	renders   *renderwatch.Registry
	processor *samplepipe.Processor
	renderDir string
	sampleDir string
	metrics   *metrics.Metrics
}

func registerTools(reg *toolsurface.Registry, d toolDeps) {
	reg.Register(toolsurface.Tool{
		Name:        "discover_parameters",
		Description: "Discover (or re-discover) a plugin slot's parameter list",
		Handler:     discoverParametersTool(d),
	})
	reg.Register(toolsurface.Tool{
		Name:        "set_parameter",
		Description: "Resolve a parameter by name and set its value",
		Handler:     setParameterTool(d),
	})
	reg.Register(toolsurface.Tool{
		Name:        "get_parameter",
		Description: "Resolve a parameter by name and read its value (shadow-preferred)",
		Handler:     getParameterTool(d),
	})
	reg.Register(toolsurface.Tool{
		Name:        "apply_recipe",
		Description: "Apply a named semantic-alias recipe to a plugin slot",
		Handler:     applyRecipeTool(d),
	})
	reg.Register(toolsurface.Tool{
		Name:        "humanize_notes",
		Description: "Run the swing/drift/velocity/length pipeline over a note array",
		Handler:     humanizeNotesTool(),
	})
	reg.Register(toolsurface.Tool{
		Name:        "open_piano_roll",
		Description: "Focus the host's piano-roll window for a pattern/channel",
		Handler:     openPianoRollTool(d),
	})
	reg.Register(toolsurface.Tool{
		Name:        "add_notes",
		Description: "Stage a note-add request for the piano-roll subinterpreter",
		Handler:     addNotesTool(d),
	})
	reg.Register(toolsurface.Tool{
		Name:        "clear_notes",
		Description: "Stage a clear request for a pattern/channel's notes",
		Handler:     clearNotesTool(d),
	})
	reg.Register(toolsurface.Tool{
		Name:        "read_note_state",
		Description: "Read back the piano-roll subinterpreter's last exported state",
		Handler:     readStateTool(d),
	})
	reg.Register(toolsurface.Tool{
		Name:        "list_renders",
		Description: "List audio files registered by render-watch this session",
		Handler:     listRendersTool(d),
	})
	reg.Register(toolsurface.Tool{
		Name:        "pitch_shift_sample",
		Description: "Resolve a sample by name and run the pitch/split/merge/normalize pipeline",
		Handler:     pitchShiftSampleTool(d),
	})
}

func discoverParametersTool(d toolDeps) toolsurface.Handler {
	type input struct {
		Channel int `json:"channel"`
		Slot    int `json:"slot"`
	}
	return func(raw json.RawMessage) (any, error) {
		var in input
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, fmt.Errorf("discover_parameters: %w", err)
		}
		if err := d.cache.Discover(in.Channel, in.Slot); err != nil {
			return nil, err
		}
		params, _ := d.cache.Parameters(in.Channel, in.Slot)
		return map[string]any{"parameters": params}, nil
	}
}

func setParameterTool(d toolDeps) toolsurface.Handler {
	type input struct {
		Plugin  string  `json:"plugin"`
		Channel int     `json:"channel"`
		Slot    int     `json:"slot"`
		Name    string  `json:"name"`
		Value   float64 `json:"value"`
	}
	return func(raw json.RawMessage) (any, error) {
		var in input
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, fmt.Errorf("set_parameter: %w", err)
		}
		p, err := d.cache.Resolve(in.Plugin, in.Channel, in.Slot, in.Name)
		if err != nil {
			return nil, err
		}
		if err := d.client.SetParameter(in.Channel, in.Slot, p.Index, in.Value); err != nil {
			return nil, err
		}
		d.shadow.Set(in.Channel, in.Slot, p.Index, in.Value)
		return map[string]any{"resolved_name": p.Name, "index": p.Index, "value": in.Value}, nil
	}
}

func getParameterTool(d toolDeps) toolsurface.Handler {
	type input struct {
		Plugin  string `json:"plugin"`
		Channel int    `json:"channel"`
		Slot    int    `json:"slot"`
		Name    string `json:"name"`
	}
	return func(raw json.RawMessage) (any, error) {
		var in input
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, fmt.Errorf("get_parameter: %w", err)
		}
		p, err := d.cache.Resolve(in.Plugin, in.Channel, in.Slot, in.Name)
		if err != nil {
			return nil, err
		}
		if entry, ok := d.shadow.Get(in.Channel, in.Slot, p.Index); ok {
			return map[string]any{"resolved_name": p.Name, "index": p.Index, "value": entry.Value, "source": string(entry.Source)}, nil
		}
		value, err := d.client.GetParameter(in.Channel, in.Slot, p.Index)
		if err != nil {
			return nil, err
		}
		return map[string]any{"resolved_name": p.Name, "index": p.Index, "value": value, "source": "host_readback"}, nil
	}
}

func applyRecipeTool(d toolDeps) toolsurface.Handler {
	type input struct {
		Plugin  string `json:"plugin"`
		Channel int    `json:"channel"`
		Slot    int    `json:"slot"`
		Recipe  string `json:"recipe"`
	}
	return func(raw json.RawMessage) (any, error) {
		var in input
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, fmt.Errorf("apply_recipe: %w", err)
		}
		values, ok := d.aliases.Recipe(in.Plugin, in.Recipe)
		if !ok {
			return nil, bridgeerr.ParameterNotFound{Name: in.Recipe}
		}
		applied := make(map[string]float64, len(values))
		for name, value := range values {
			p, err := d.cache.Resolve(in.Plugin, in.Channel, in.Slot, name)
			if err != nil {
				return nil, fmt.Errorf("apply_recipe: resolve %q: %w", name, err)
			}
			if err := d.client.SetParameter(in.Channel, in.Slot, p.Index, value); err != nil {
				return nil, fmt.Errorf("apply_recipe: set %q: %w", name, err)
			}
			d.shadow.Set(in.Channel, in.Slot, p.Index, value)
			applied[p.Name] = value
		}
		return map[string]any{"applied": applied}, nil
	}
}

func humanizeNotesTool() toolsurface.Handler {
	type input struct {
		Notes     []humanize.Note `json:"notes"`
		Preset    string          `json:"preset"`
		Overrides humanize.Params `json:"overrides"`
	}
	return func(raw json.RawMessage) (any, error) {
		var in input
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, fmt.Errorf("humanize_notes: %w", err)
		}
		params := in.Overrides
		if in.Preset != "" {
			merged, ok := humanize.Preset(in.Preset, in.Overrides)
			if !ok {
				return nil, fmt.Errorf("humanize_notes: unknown preset %q", in.Preset)
			}
			params = merged
		}
		result := humanize.Apply(in.Notes, params)
		return map[string]any{"notes": result.Notes, "seed": result.Seed}, nil
	}
}

func openPianoRollTool(d toolDeps) toolsurface.Handler {
	type input struct {
		Pattern int `json:"pattern"`
		Channel int `json:"channel"`
	}
	return func(raw json.RawMessage) (any, error) {
		var in input
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, fmt.Errorf("open_piano_roll: %w", err)
		}
		return nil, d.client.OpenPianoRoll(in.Pattern, in.Channel)
	}
}

func addNotesTool(d toolDeps) toolsurface.Handler {
	type input struct {
		Pattern int                `json:"pattern"`
		Channel int                `json:"channel"`
		Notes   []fileipc.NoteData `json:"notes"`
	}
	return func(raw json.RawMessage) (any, error) {
		var in input
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, fmt.Errorf("add_notes: %w", err)
		}
		return nil, d.client.AddNotes(in.Pattern, in.Channel, in.Notes)
	}
}

func clearNotesTool(d toolDeps) toolsurface.Handler {
	type input struct {
		Pattern int `json:"pattern"`
		Channel int `json:"channel"`
	}
	return func(raw json.RawMessage) (any, error) {
		var in input
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, fmt.Errorf("clear_notes: %w", err)
		}
		return nil, d.client.ClearNotes(in.Pattern, in.Channel)
	}
}

func readStateTool(d toolDeps) toolsurface.Handler {
	return func(raw json.RawMessage) (any, error) {
		return d.client.ReadState()
	}
}

func listRendersTool(d toolDeps) toolsurface.Handler {
	return func(raw json.RawMessage) (any, error) {
		entries := d.renders.All()
		d.metrics.RenderedFiles.Set(float64(len(entries)))
		return map[string]any{"renders": entries}, nil
	}
}

func pitchShiftSampleTool(d toolDeps) toolsurface.Handler {
	type input struct {
		Name         string  `json:"name"`
		Output       string  `json:"output"`
		Semitones    float64 `json:"semitones"`
		MicroDelayMS float64 `json:"micro_delay_ms"`
	}
	return func(raw json.RawMessage) (any, error) {
		var in input
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, fmt.Errorf("pitch_shift_sample: %w", err)
		}
		registry := samplepipe.AdaptRegistry(func(name string) (string, bool) {
			e, ok := d.renders.Lookup(name)
			return e.AbsolutePath, ok
		})
		sourcePath, err := samplepipe.ResolveInput(in.Name, registry, d.renderDir, d.sampleDir)
		if err != nil {
			d.metrics.SamplePipelineRuns.WithLabelValues("error").Inc()
			return nil, err
		}
		if err := d.processor.PitchSplitMergeNormalize(context.Background(), sourcePath, in.Output, in.Semitones, in.MicroDelayMS); err != nil {
			d.metrics.SamplePipelineRuns.WithLabelValues("error").Inc()
			return nil, err
		}
		d.metrics.SamplePipelineRuns.WithLabelValues("ok").Inc()
		return map[string]any{"input": sourcePath, "output": in.Output}, nil
	}
}
