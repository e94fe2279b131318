package humanize

import "math"

const beatEps = 0.05

// beatClass classifies a beat-time position within a 4/4 bar. Both the
// velocity stage's beat-position boost and the note-length stage's
// downbeat/off-beat bias key off this, and both run after timing drift so
// the classification reflects the final, humanized timing (spec.md's
// Design Notes: "velocity and length... depend on beat position
// classification which should use the final timing").
type beatClass int

const (
	beatOther beatClass = iota
	beatDown
	beatBack
	beatOff
)

func classifyBeat(t float64) beatClass {
	inBar := math.Mod(t, 4.0)
	if inBar < 0 {
		inBar += 4.0
	}
	switch {
	// Beats 1 and 3 are both downbeats in 4/4; beats 2 and 4 are the
	// backbeat. Without beat 3 here, a quarter of every bar got neither the
	// downbeat boost nor its length bias and fell through to beatOther.
	case nearAny(inBar, 0, 2.0, 4.0):
		return beatDown
	case nearAny(inBar, 1.0, 3.0):
		return beatBack
	case nearAny(inBar, 0.5, 1.5, 2.5, 3.5):
		return beatOff
	default:
		return beatOther
	}
}

func nearAny(v float64, targets ...float64) bool {
	for _, t := range targets {
		if math.Abs(v-t) <= beatEps {
			return true
		}
	}
	return false
}
