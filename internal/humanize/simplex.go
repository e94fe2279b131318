package humanize

import "math/rand"

// simplex2D is a minimal 2D simplex-noise generator (Gustavson's classic
// construction), seeded from the pipeline's PRNG so the "smooth, not white"
// per-note velocity variation spec.md §4.8 calls for is reproducible
// end-to-end from a single seed.
type simplex2D struct {
	perm [512]int
}

func newSimplex2D(rng *rand.Rand) *simplex2D {
	var p [256]int
	for i := range p {
		p[i] = i
	}
	for i := len(p) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		p[i], p[j] = p[j], p[i]
	}
	s := &simplex2D{}
	for i := 0; i < 512; i++ {
		s.perm[i] = p[i&255]
	}
	return s
}

var simplexGrad2 = [8][2]float64{
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
	{1, 0}, {-1, 0}, {1, 0}, {-1, 0},
}

const (
	simplexF2 = 0.3660254037844386  // 0.5*(sqrt(3)-1)
	simplexG2 = 0.21132486540518713 // (3-sqrt(3))/6
)

// Noise2D returns a value in approximately [-1, 1] for coordinates (x, y).
func (s *simplex2D) Noise2D(x, y float64) float64 {
	skew := (x + y) * simplexF2
	i := floorInt(x + skew)
	j := floorInt(y + skew)

	t := float64(i+j) * simplexG2
	x0 := x - (float64(i) - t)
	y0 := y - (float64(j) - t)

	var i1, j1 int
	if x0 > y0 {
		i1, j1 = 1, 0
	} else {
		i1, j1 = 0, 1
	}

	x1 := x0 - float64(i1) + simplexG2
	y1 := y0 - float64(j1) + simplexG2
	x2 := x0 - 1 + 2*simplexG2
	y2 := y0 - 1 + 2*simplexG2

	ii := i & 255
	jj := j & 255

	n0 := s.corner(ii, jj, x0, y0)
	n1 := s.corner(ii+i1, jj+j1, x1, y1)
	n2 := s.corner(ii+1, jj+1, x2, y2)

	return 70 * (n0 + n1 + n2)
}

func (s *simplex2D) corner(ii, jj int, x, y float64) float64 {
	t := 0.5 - x*x - y*y
	if t < 0 {
		return 0
	}
	gi := s.perm[(ii+s.perm[jj&255])&511] % 8
	g := simplexGrad2[gi]
	t *= t
	return t * t * (g[0]*x + g[1]*y)
}

func floorInt(v float64) int {
	i := int(v)
	if v < float64(i) {
		return i - 1
	}
	return i
}
