package samplepipe

import (
	"os"
	"path/filepath"

	"github.com/studiobridge/fl-mcp-bridge/internal/bridgeerr"
)

// Lookup is the narrow capability samplepipe needs from the render
// registry. *renderwatch.Registry does not satisfy it directly (its Lookup
// returns a renderwatch.Entry); wrap it with AdaptRegistry.
type Lookup interface {
	Lookup(filename string) (AbsolutePath string, ok bool)
}

// registryAdapter lets samplepipe depend on an interface with the exact
// shape it needs without importing renderwatch.Entry's full field set.
type registryAdapter struct {
	lookup func(string) (string, bool)
}

func (a registryAdapter) Lookup(filename string) (string, bool) { return a.lookup(filename) }

// AdaptRegistry wraps a filename -> (absolute path, bool) function into the
// Lookup interface samplepipe needs; the caller supplies the function, e.g.
// a closure over *renderwatch.Registry.Lookup that returns the entry's
// AbsolutePath.
func AdaptRegistry(lookup func(string) (string, bool)) Lookup {
	return registryAdapter{lookup: lookup}
}

// ResolveInput implements spec.md §4.10's input-resolution order: registry
// lookup by filename, then as an absolute path, then under the default
// render directory, then under the default sample directory. First hit
// wins; a miss on all four returns bridgeerr.FileNotFound.
func ResolveInput(name string, registry Lookup, renderDir, sampleDir string) (string, error) {
	if registry != nil {
		if abs, ok := registry.Lookup(name); ok {
			if fileExists(abs) {
				return abs, nil
			}
		}
	}
	if filepath.IsAbs(name) && fileExists(name) {
		return name, nil
	}
	if renderDir != "" {
		candidate := filepath.Join(renderDir, name)
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	if sampleDir != "" {
		candidate := filepath.Join(sampleDir, name)
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", bridgeerr.FileNotFound{Path: name}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
