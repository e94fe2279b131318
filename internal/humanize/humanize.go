package humanize

// Params bundles one configuration for the full pipeline. Seed is optional;
// an empty Seed gets a fresh one from NewSeed, which is then echoed back in
// Result.Seed so the caller can replay the exact run.
type Params struct {
	Swing    SwingParams
	Drift    DriftParams
	Velocity VelocityParams
	Length   LengthParams
	Seed     string
}

// Result is the pipeline's output: the humanized notes plus the seed that
// produced them.
type Result struct {
	Notes []Note
	Seed  string
}

// Apply runs the fixed pipeline order spec.md §4.8 mandates: swing first
// because it redefines the rhythmic grid, drift second because it perturbs
// around the swung positions, then velocity and length, which are
// independent of each other but both depend on beat-position classification
// of the final (post-drift) timing.
func Apply(notes []Note, p Params) Result {
	seed := p.Seed
	if seed == "" {
		seed = NewSeed()
	}
	rng := rngFromSeed(seed)

	out := Swing(notes, p.Swing)
	out = Drift(out, p.Drift, rng)
	out = Velocity(out, p.Velocity, rng)
	out = Length(out, p.Length, rng)

	return Result{Notes: out, Seed: seed}
}
