package alias

import "testing"

func TestResolveKnownAliasCaseInsensitive(t *testing.T) {
	tbl := NewTable()
	target, ok := tbl.Resolve("3x Osc", "Filter Cutoff")
	if !ok || target != "Cut off freq" {
		t.Fatalf("Resolve = %q, %v", target, ok)
	}
}

func TestResolveUnknownPassesThrough(t *testing.T) {
	tbl := NewTable()
	target, ok := tbl.Resolve("3x Osc", "some totally novel phrasing")
	if ok || target != "some totally novel phrasing" {
		t.Fatalf("Resolve = %q, %v, want unchanged passthrough", target, ok)
	}
}

func TestResolveUnknownPlugin(t *testing.T) {
	tbl := NewTable()
	target, ok := tbl.Resolve("Some Third Party Synth", "cutoff")
	if ok || target != "cutoff" {
		t.Fatalf("Resolve for unregistered family = %q, %v", target, ok)
	}
}

func TestRecipeAppliesMultipleParams(t *testing.T) {
	tbl := NewTable()
	r, ok := tbl.Recipe("3x Osc", "warm pad")
	if !ok {
		t.Fatalf("expected recipe to be found")
	}
	if r["Cut off freq"] != 0.35 || r["ENV REL"] != 0.70 {
		t.Fatalf("recipe values = %+v", r)
	}
}

func TestRecipeUnknownName(t *testing.T) {
	tbl := NewTable()
	if _, ok := tbl.Recipe("3x Osc", "nonexistent"); ok {
		t.Fatalf("expected unknown recipe to miss")
	}
}
