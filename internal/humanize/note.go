// Package humanize implements the humanization engine (spec.md §4.8): a
// pure transform over note arrays with a fixed pipeline order — swing,
// then timing drift, then velocity, then note length. Each stage is a
// free function over a slice of Note; Apply wires them together and
// returns a fresh slice, never mutating its input (spec.md's "Idempotence"
// note: callers, not this package, must track whether a note array has
// already been humanized).
package humanize

// Note is one note in the pipeline. It mirrors fileipc.NoteData's beat-based
// timing but carries the full field set spec.md §3 defines for NoteData.
// fileipc.NoteData is narrower (no Pan or Color, and the pitch field is Key
// rather than MIDI); nothing in this module converts between the two types.
type Note struct {
	MIDI     int     `json:"midi"`
	Time     float64 `json:"time"`     // beats
	Duration float64 `json:"duration"` // beats
	Velocity float64 `json:"velocity"` // 0..1
	Pan      float64 `json:"pan"`      // 0..1, default 0.5
	Color    int     `json:"color"`    // default 0
}

func cloneNotes(notes []Note) []Note {
	out := make([]Note, len(notes))
	copy(out, notes)
	return out
}
