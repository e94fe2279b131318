package humanize

import "math/rand"

// Instrument selects the per-instrument velocity-shaping profile
// (spec.md §4.8).
type Instrument string

const (
	InstrumentDefault Instrument = "default"
	InstrumentDrums   Instrument = "drums"
	InstrumentPiano   Instrument = "piano"
)

// VelocityParams configures the velocity stage. BaseRange and
// VariationAmount describe the instrument's profile; downbeats/off-beats
// are boosted/cut relative to DownbeatBoost.
type VelocityParams struct {
	Instrument      Instrument
	BaseRange       [2]float64 // [min,max]
	VariationAmount float64    // scales the simplex-noise contribution
	DownbeatBoost   float64

	// Drums-only.
	GhostThreshold float64 // velocities below this clamp into GhostRange
	GhostRange     [2]float64
	AccentRange    [2]float64 // velocities above the profile midpoint blend toward this

	// Piano-only.
	PhraseLength int // notes per phrase-arc cycle, ~12
}

// Velocity applies smooth per-note variation (2D simplex noise, so
// neighbouring notes drift together rather than jumping independently),
// additively combines a beat-position boost, then layers the Drums/Piano
// special cases before clamping to [0,1] and rounding to the nearest
// 1/127 (MIDI velocity resolution) expressed as a 0..1 float.
func Velocity(notes []Note, p VelocityParams, rng *rand.Rand) []Note {
	out := cloneNotes(notes)
	if len(out) == 0 {
		return out
	}
	noise := newSimplex2D(rng)
	mid := (p.BaseRange[0] + p.BaseRange[1]) / 2

	for i := range out {
		n := noise.Noise2D(out[i].Time*0.5, float64(i)*0.37)
		v := mid + n*p.VariationAmount*(p.BaseRange[1]-p.BaseRange[0])/2

		switch classifyBeat(out[i].Time) {
		case beatDown:
			v += p.DownbeatBoost
		case beatOff:
			v -= 0.5 * p.DownbeatBoost
		}

		switch p.Instrument {
		case InstrumentDrums:
			v = shapeDrums(v, p, mid)
		case InstrumentPiano:
			v = shapePiano(v, p, i)
		}

		out[i].Velocity = clamp01(round127(v))
	}
	return out
}

func shapeDrums(v float64, p VelocityParams, mid float64) float64 {
	if v < p.GhostThreshold {
		span := p.GhostRange[1] - p.GhostRange[0]
		frac := v / p.GhostThreshold
		if frac < 0 {
			frac = 0
		}
		return p.GhostRange[0] + frac*span
	}
	if v > mid {
		blend := (v - mid) / (1 - mid)
		if blend > 1 {
			blend = 1
		}
		return v + blend*(p.AccentRange[1]-v)*0.5
	}
	return v
}

func shapePiano(v float64, p VelocityParams, index int) float64 {
	length := p.PhraseLength
	if length <= 0 {
		length = 12
	}
	phase := float64(index%length) / float64(length)
	arc := sin2pi(phase) * 0.08
	return v + arc
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round127(v float64) float64 {
	const steps = 127
	return float64(int(v*steps+0.5)) / steps
}
