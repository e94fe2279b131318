package humanize

import "math"

func sin2pi(phase float64) float64 {
	return math.Sin(2 * math.Pi * phase)
}
