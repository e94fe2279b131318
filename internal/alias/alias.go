// Package alias is the semantic alias layer (spec.md §4.7): a pure,
// static table of per-plugin-family friendly-phrase-to-parameter-name maps,
// plus named "recipes" that expand a friendly phrase into a set of
// parameter values. It performs no inference; unknown names pass through
// unchanged so the fuzzy resolver in paramcache still gets a chance at them.
package alias

import "strings"

// Family groups the alias map and recipe table for one plugin.
type Family struct {
	// Aliases maps a friendly phrase (matched case-insensitively) to the
	// plugin's actual parameter name.
	Aliases map[string]string
	// Recipes maps a friendly phrase to a set of parameter-name/value pairs
	// to apply together.
	Recipes map[string]map[string]float64
}

// Table is the full set of known families, keyed by plugin name exactly as
// the host reports it.
type Table struct {
	families map[string]Family
}

// NewTable returns the built-in family table. Callers may add more with
// Register before passing the table to the resolver.
func NewTable() *Table {
	t := &Table{families: make(map[string]Family)}
	t.Register("3x Osc", threeOscFamily())
	t.Register("FLEX", flexFamily())
	return t
}

// Register adds or replaces a family's aliases/recipes.
func (t *Table) Register(plugin string, f Family) {
	t.families[plugin] = f
}

// Resolve performs the alias pre-lookup step (spec.md §4.6 step 1): given a
// plugin name and a user-supplied query, it returns the substituted target
// name and true if query matched a known alias for that family. Unknown
// names return (query, false) unchanged.
func (t *Table) Resolve(plugin, query string) (string, bool) {
	f, ok := t.families[plugin]
	if !ok {
		return query, false
	}
	for phrase, target := range f.Aliases {
		if strings.EqualFold(phrase, query) {
			return target, true
		}
	}
	return query, false
}

// Recipe looks up a named recipe for a plugin family. ok is false if either
// the family or the recipe name is unknown.
func (t *Table) Recipe(plugin, name string) (map[string]float64, bool) {
	f, ok := t.families[plugin]
	if !ok {
		return nil, false
	}
	r, ok := f.Recipes[name]
	return r, ok
}

// threeOscFamily is the fully worked example promised for FL Studio's
// stock 3x Osc synth: friendly phrases for its per-oscillator controls,
// plus a couple of recipes that set several at once.
func threeOscFamily() Family {
	return Family{
		Aliases: map[string]string{
			"cutoff":        "Cut off freq",
			"filter cutoff": "Cut off freq",
			"resonance":     "Resonance",
			"filter reso":   "Resonance",
			"osc 1 volume":  "Osc 1 VOL",
			"osc 2 volume":  "Osc 2 VOL",
			"osc 3 volume":  "Osc 3 VOL",
			"osc 1 coarse":  "Osc 1 FRQ",
			"osc 1 detune":  "Osc 1 FINE",
			"envelope attack":  "ENV ATT",
			"envelope decay":   "ENV DEC",
			"envelope sustain": "ENV SUS",
			"envelope release": "ENV REL",
		},
		Recipes: map[string]map[string]float64{
			"warm pad": {
				"Cut off freq": 0.35,
				"Resonance":    0.15,
				"ENV ATT":      0.60,
				"ENV REL":      0.70,
			},
			"bright pluck": {
				"Cut off freq": 0.85,
				"Resonance":    0.30,
				"ENV ATT":      0.0,
				"ENV DEC":      0.20,
				"ENV SUS":      0.0,
			},
		},
	}
}

// flexFamily covers a handful of FLEX's macro controls.
func flexFamily() Family {
	return Family{
		Aliases: map[string]string{
			"brightness": "Timbre",
			"movement":   "Motion",
			"character":  "Character",
			"volume":     "Master Vol",
		},
		Recipes: map[string]map[string]float64{
			"lo-fi texture": {
				"Character":  0.8,
				"Timbre":     0.2,
				"Motion":     0.1,
			},
		},
	}
}
