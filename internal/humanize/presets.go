package humanize

// Presets are named parameter bundles (spec.md §4.8). Values here are this
// project's own worked-out numbers for the four named presets spec.md only
// names without specifying (SPEC_FULL.md's "Supplemented features").
var presets = map[string]Params{
	"tight": {
		Swing:    SwingParams{Amount: 50, Grid: 0.25},
		Drift:    DriftParams{Theta: 0.9, Sigma: 0.002, ContextAware: false},
		Velocity: VelocityParams{Instrument: InstrumentDefault, BaseRange: [2]float64{0.70, 0.85}, VariationAmount: 0.05, DownbeatBoost: 0.05},
		Length:   LengthParams{Amount: 0.10},
	},
	"loose": {
		Swing:    SwingParams{Amount: 58, Grid: 0.25},
		Drift:    DriftParams{Theta: 0.3, Sigma: 0.012, ContextAware: true},
		Velocity: VelocityParams{Instrument: InstrumentDefault, BaseRange: [2]float64{0.55, 0.90}, VariationAmount: 0.15, DownbeatBoost: 0.12},
		Length:   LengthParams{Amount: 0.35},
	},
	"jazz": {
		Swing: SwingParams{Amount: 62, Grid: 0.5},
		Drift: DriftParams{Theta: 0.4, Sigma: 0.010, ContextAware: true},
		Velocity: VelocityParams{
			Instrument: InstrumentPiano, BaseRange: [2]float64{0.50, 0.95}, VariationAmount: 0.18,
			DownbeatBoost: 0.10, PhraseLength: 12,
		},
		Length: LengthParams{Amount: 0.40},
	},
	"lo-fi": {
		Swing:    SwingParams{Amount: 68, Grid: 0.25},
		Drift:    DriftParams{Theta: 0.25, Sigma: 0.018, ContextAware: true},
		Velocity: VelocityParams{Instrument: InstrumentDefault, BaseRange: [2]float64{0.40, 0.80}, VariationAmount: 0.22, DownbeatBoost: 0.06},
		Length:   LengthParams{Amount: 0.50},
	},
}

// drumsVelocityDefaults is applied whenever an override or preset names the
// drums instrument but leaves the drums-specific fields at their zero
// value, so callers don't have to restate the ghost/accent bands every time.
var drumsVelocityDefaults = VelocityParams{
	GhostThreshold: 0.25,
	GhostRange:     [2]float64{0.08, 0.22},
	AccentRange:    [2]float64{0.95, 1.0},
}

// Preset returns a deep copy of the named preset, deep-merged with
// overrides: any field left at its zero value in overrides keeps the
// preset's value, and any non-zero field in overrides wins (spec.md §4.8:
// "explicit per-field overrides win over preset defaults (deep merge, not
// replacement)"). ok is false for an unknown preset name.
func Preset(name string, overrides Params) (Params, bool) {
	base, ok := presets[name]
	if !ok {
		return Params{}, false
	}
	merged := base // value copy; Params has no pointer/slice fields

	merged.Swing = mergeSwing(base.Swing, overrides.Swing)
	merged.Drift = mergeDrift(base.Drift, overrides.Drift)
	merged.Velocity = mergeVelocity(base.Velocity, overrides.Velocity)
	merged.Length = mergeLength(base.Length, overrides.Length)
	if overrides.Seed != "" {
		merged.Seed = overrides.Seed
	}

	if merged.Velocity.Instrument == InstrumentDrums {
		merged.Velocity = fillDrumsDefaults(merged.Velocity)
	}
	return merged, true
}

func mergeSwing(base, o SwingParams) SwingParams {
	if o.Amount != 0 {
		base.Amount = o.Amount
	}
	if o.Grid != 0 {
		base.Grid = o.Grid
	}
	return base
}

func mergeDrift(base, o DriftParams) DriftParams {
	if o.Theta != 0 {
		base.Theta = o.Theta
	}
	if o.Sigma != 0 {
		base.Sigma = o.Sigma
	}
	if o.ContextAware {
		base.ContextAware = true
	}
	return base
}

func mergeVelocity(base, o VelocityParams) VelocityParams {
	if o.Instrument != "" {
		base.Instrument = o.Instrument
	}
	if o.BaseRange != [2]float64{} {
		base.BaseRange = o.BaseRange
	}
	if o.VariationAmount != 0 {
		base.VariationAmount = o.VariationAmount
	}
	if o.DownbeatBoost != 0 {
		base.DownbeatBoost = o.DownbeatBoost
	}
	if o.GhostThreshold != 0 {
		base.GhostThreshold = o.GhostThreshold
	}
	if o.GhostRange != [2]float64{} {
		base.GhostRange = o.GhostRange
	}
	if o.AccentRange != [2]float64{} {
		base.AccentRange = o.AccentRange
	}
	if o.PhraseLength != 0 {
		base.PhraseLength = o.PhraseLength
	}
	return base
}

func mergeLength(base, o LengthParams) LengthParams {
	if o.Amount != 0 {
		base.Amount = o.Amount
	}
	return base
}

func fillDrumsDefaults(v VelocityParams) VelocityParams {
	if v.GhostThreshold == 0 {
		v.GhostThreshold = drumsVelocityDefaults.GhostThreshold
	}
	if v.GhostRange == [2]float64{} {
		v.GhostRange = drumsVelocityDefaults.GhostRange
	}
	if v.AccentRange == [2]float64{} {
		v.AccentRange = drumsVelocityDefaults.AccentRange
	}
	return v
}

// PresetNames returns the names of all built-in presets, sorted-ish by
// definition order (tight, loose, jazz, lo-fi), for tool-surface listing.
func PresetNames() []string {
	return []string{"tight", "loose", "jazz", "lo-fi"}
}
