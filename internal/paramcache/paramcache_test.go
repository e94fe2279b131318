package paramcache

import (
	"testing"

	"github.com/studiobridge/fl-mcp-bridge/internal/alias"
	"github.com/studiobridge/fl-mcp-bridge/internal/bridgeerr"
	"github.com/studiobridge/fl-mcp-bridge/internal/shadow"
)

type fakeDiscoverer struct {
	calls int
	lists [][]Parameter // successive responses, last one repeats once exhausted
}

func (f *fakeDiscoverer) DiscoverParameters(channel, slot int) ([]Parameter, error) {
	i := f.calls
	if i >= len(f.lists) {
		i = len(f.lists) - 1
	}
	f.calls++
	return f.lists[i], nil
}

func baseParams() []Parameter {
	return []Parameter{
		{Index: 0, Name: "Cut off freq", Value: 0.5},
		{Index: 1, Name: "Resonance", Value: 0.2},
		{Index: 2, Name: "Osc 1 VOL", Value: 1.0},
		{Index: 3, Name: "Osc 2 VOL", Value: 0.8},
	}
}

func newTestCache(t *testing.T, disc Discoverer) *Cache {
	t.Helper()
	return New(disc, shadow.New(), alias.NewTable())
}

func TestResolveExactMatch(t *testing.T) {
	disc := &fakeDiscoverer{lists: [][]Parameter{baseParams()}}
	c := newTestCache(t, disc)
	if err := c.Discover(1, 0); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	p, err := c.Resolve("3x Osc", 1, 0, "Resonance")
	if err != nil || p.Index != 1 {
		t.Fatalf("Resolve exact: %+v, err=%v", p, err)
	}
}

func TestResolveAliasPreLookup(t *testing.T) {
	disc := &fakeDiscoverer{lists: [][]Parameter{baseParams()}}
	c := newTestCache(t, disc)
	if err := c.Discover(1, 0); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	p, err := c.Resolve("3x Osc", 1, 0, "filter cutoff")
	if err != nil || p.Name != "Cut off freq" {
		t.Fatalf("Resolve alias: %+v, err=%v", p, err)
	}
}

func TestResolveCaseInsensitivePrefixUnique(t *testing.T) {
	disc := &fakeDiscoverer{lists: [][]Parameter{baseParams()}}
	c := newTestCache(t, disc)
	c.Discover(1, 0)
	p, err := c.Resolve("", 1, 0, "reso")
	if err != nil || p.Name != "Resonance" {
		t.Fatalf("Resolve prefix: %+v, err=%v", p, err)
	}
}

func TestResolveAmbiguousPrefix(t *testing.T) {
	disc := &fakeDiscoverer{lists: [][]Parameter{baseParams()}}
	c := newTestCache(t, disc)
	c.Discover(1, 0)
	_, err := c.Resolve("", 1, 0, "osc")
	amb, ok := err.(bridgeerr.Ambiguous)
	if !ok {
		t.Fatalf("expected bridgeerr.Ambiguous, got %T: %v", err, err)
	}
	if len(amb.Candidates) != 2 {
		t.Fatalf("candidates = %v", amb.Candidates)
	}
}

func TestResolveMissTriggersRediscoverThenFound(t *testing.T) {
	renamed := []Parameter{
		{Index: 0, Name: "Cutoff Frequency", Value: 0.5}, // plugin changed its own naming
	}
	disc := &fakeDiscoverer{lists: [][]Parameter{baseParams(), renamed}}
	c := newTestCache(t, disc)
	c.Discover(1, 0) // seeds with baseParams()

	p, err := c.Resolve("", 1, 0, "Cutoff Frequency")
	if err != nil || p.Name != "Cutoff Frequency" {
		t.Fatalf("Resolve after rediscovery: %+v, err=%v", p, err)
	}
	if disc.calls != 2 {
		t.Fatalf("expected exactly one rediscovery call, calls=%d", disc.calls)
	}
}

func TestResolveSecondMissReturnsParameterNotFoundWithHint(t *testing.T) {
	disc := &fakeDiscoverer{lists: [][]Parameter{baseParams(), baseParams()}}
	c := newTestCache(t, disc)
	c.Discover(1, 0)

	_, err := c.Resolve("", 1, 0, "does not exist anywhere")
	pnf, ok := err.(bridgeerr.ParameterNotFound)
	if !ok {
		t.Fatalf("expected bridgeerr.ParameterNotFound, got %T: %v", err, err)
	}
	if len(pnf.Hint) != 4 {
		t.Fatalf("hint = %v", pnf.Hint)
	}
}
