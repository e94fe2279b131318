// Package paramcache implements the parameter resolver (spec.md §4.6): a
// cache of each (channel, slot)'s plugin parameter list, indexed four ways
// so a user-supplied name can be matched without knowing the host's exact
// internal spelling, with shadow state (internal/shadow) preferred over the
// host's own (unreliable) read-back.
package paramcache

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/studiobridge/fl-mcp-bridge/internal/alias"
	"github.com/studiobridge/fl-mcp-bridge/internal/bridgeerr"
	"github.com/studiobridge/fl-mcp-bridge/internal/shadow"
)

// maxHint bounds the number of names returned in a ParameterNotFound hint
// and the number of candidates in an Ambiguous error (spec.md §4.6/§7).
const maxHint = 20

// Parameter mirrors innerbridge.Parameter; kept as its own type since this
// package lives on the Outer Server side of the link and must not import
// the Inner Bridge package.
type Parameter struct {
	Index int
	Name  string
	Value float64
}

// Discoverer is however the cache learns a slot's current parameter list;
// satisfied by a thin wrapper over *correlate.Correlator.Execute in
// production, and by a fake in tests.
type Discoverer interface {
	DiscoverParameters(channel, slot int) ([]Parameter, error)
}

type slotKey struct{ channel, slot int }

// index is the four-way lookup structure built for one slot's parameter
// list (spec.md §4.6 steps 2-5), modeled on vodfs's unique-name-index
// construction: build once per refresh, query many times.
type index struct {
	params          []Parameter
	exact           map[string]int            // raw_name -> position in params
	ciExact         map[string][]int          // lowercase name -> positions (collisions possible)
	names           []string                  // lowercase names, parallel to params, for prefix/substring scans
}

func buildIndex(params []Parameter) *index {
	idx := &index{
		params:  params,
		exact:   make(map[string]int, len(params)),
		ciExact: make(map[string][]int, len(params)),
		names:   make([]string, len(params)),
	}
	for i, p := range params {
		idx.exact[p.Name] = i
		lower := strings.ToLower(p.Name)
		idx.names[i] = lower
		idx.ciExact[lower] = append(idx.ciExact[lower], i)
	}
	return idx
}

// Cache holds one index per (channel, slot), a reference to shadow state,
// and the alias table used for pre-lookup.
type Cache struct {
	mu         sync.RWMutex
	indexes    map[slotKey]*index
	discoverer Discoverer
	shadow     *shadow.Store
	aliases    *alias.Table
}

// New returns an empty Cache.
func New(discoverer Discoverer, shadowStore *shadow.Store, aliases *alias.Table) *Cache {
	return &Cache{
		indexes:    make(map[slotKey]*index),
		discoverer: discoverer,
		shadow:     shadowStore,
		aliases:    aliases,
	}
}

// Discover forces a (re-)discovery for a slot and rebuilds its index. Newly
// observed values seed shadow state via Observe, which never overwrites an
// existing user write (spec.md §4.6's read-preference invariant).
func (c *Cache) Discover(channel, slot int) error {
	params, err := c.discoverer.DiscoverParameters(channel, slot)
	if err != nil {
		return err
	}
	for _, p := range params {
		c.shadow.Observe(channel, slot, p.Index, p.Value)
	}
	c.mu.Lock()
	c.indexes[slotKey{channel, slot}] = buildIndex(params)
	c.mu.Unlock()
	return nil
}

// Resolve implements the full resolution order from spec.md §4.6: alias
// pre-lookup, exact, case-insensitive exact, case-insensitive prefix,
// case-insensitive substring — retrying once via a fresh Discover on a
// total miss.
func (c *Cache) Resolve(plugin string, channel, slot int, query string) (Parameter, error) {
	if c.aliases != nil {
		if target, ok := c.aliases.Resolve(plugin, query); ok {
			query = target
		}
	}

	p, err := c.resolveOnce(channel, slot, query)
	if err == nil {
		return p, nil
	}
	var notFound bridgeerr.ParameterNotFound
	if !isParameterNotFound(err, &notFound) {
		return Parameter{}, err
	}

	if derr := c.Discover(channel, slot); derr != nil {
		return Parameter{}, derr
	}
	p, err = c.resolveOnce(channel, slot, query)
	if err != nil {
		return Parameter{}, err
	}
	return p, nil
}

func (c *Cache) resolveOnce(channel, slot int, query string) (Parameter, error) {
	c.mu.RLock()
	idx, ok := c.indexes[slotKey{channel, slot}]
	c.mu.RUnlock()
	if !ok {
		return Parameter{}, bridgeerr.ParameterNotFound{Name: query}
	}

	if pos, ok := idx.exact[query]; ok {
		return idx.params[pos], nil
	}

	lower := strings.ToLower(query)
	if positions, ok := idx.ciExact[lower]; ok && len(positions) == 1 {
		return idx.params[positions[0]], nil
	} else if ok && len(positions) > 1 {
		return Parameter{}, bridgeerr.Ambiguous{Candidates: namesAt(idx, positions, maxHint)}
	}

	if positions := matchPositions(idx, func(name string) bool { return strings.HasPrefix(name, lower) }); len(positions) == 1 {
		return idx.params[positions[0]], nil
	} else if len(positions) > 1 {
		return Parameter{}, bridgeerr.Ambiguous{Candidates: namesAt(idx, positions, maxHint)}
	}

	if positions := matchPositions(idx, func(name string) bool { return strings.Contains(name, lower) }); len(positions) == 1 {
		return idx.params[positions[0]], nil
	} else if len(positions) > 1 {
		return Parameter{}, bridgeerr.Ambiguous{Candidates: namesAt(idx, positions, maxHint)}
	}

	return Parameter{}, bridgeerr.ParameterNotFound{Name: query, Hint: hintNames(idx, maxHint)}
}

func matchPositions(idx *index, match func(name string) bool) []int {
	var positions []int
	for i, name := range idx.names {
		if match(name) {
			positions = append(positions, i)
		}
	}
	return positions
}

func namesAt(idx *index, positions []int, limit int) []string {
	out := make([]string, 0, len(positions))
	for _, pos := range positions {
		out = append(out, idx.params[pos].Name)
		if len(out) >= limit {
			break
		}
	}
	sort.Strings(out)
	return out
}

func hintNames(idx *index, limit int) []string {
	out := make([]string, 0, limit)
	for _, p := range idx.params {
		out = append(out, p.Name)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// Parameters returns the cached parameter list for (channel, slot), if a
// discovery has populated it yet.
func (c *Cache) Parameters(channel, slot int) ([]Parameter, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.indexes[slotKey{channel, slot}]
	if !ok {
		return nil, false
	}
	out := make([]Parameter, len(idx.params))
	copy(out, idx.params)
	return out, true
}

// Dump returns a human-readable snapshot of every cached slot's parameter
// list, for the debugfs inspector.
func (c *Cache) Dump() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var b strings.Builder
	keys := make([]slotKey, 0, len(c.indexes))
	for k := range c.indexes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].channel != keys[j].channel {
			return keys[i].channel < keys[j].channel
		}
		return keys[i].slot < keys[j].slot
	})
	for _, k := range keys {
		fmt.Fprintf(&b, "channel=%d slot=%d\n", k.channel, k.slot)
		for _, p := range c.indexes[k].params {
			fmt.Fprintf(&b, "  [%d] %s = %.4f\n", p.Index, p.Name, p.Value)
		}
	}
	return b.String()
}

func isParameterNotFound(err error, target *bridgeerr.ParameterNotFound) bool {
	if pnf, ok := err.(bridgeerr.ParameterNotFound); ok {
		*target = pnf
		return true
	}
	return false
}
