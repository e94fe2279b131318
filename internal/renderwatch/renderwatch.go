// Package renderwatch implements the render-watch component (spec.md
// §4.9): a filesystem watcher over a configured output directory that
// registers newly-produced, size-stable audio files so sample-pipeline
// tools (internal/samplepipe) can find them by filename alone. Modeled on
// gravwell's filewatch.WatchManager: an fsnotify.Watcher wrapped with our
// own debounce and registration bookkeeping, not a bare passthrough.
package renderwatch

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Entry is one render-registry record (spec.md §3). Session-scoped: the
// registry is cleared at process start and never persisted.
type Entry struct {
	Filename     string
	AbsolutePath string
	FirstSeenAt  time.Time
	SessionID    string
}

// Registry is the process-wide, session-scoped table of registered render
// files (spec.md §3 "Lifecycle"). Safe for concurrent use; the watcher is
// its only writer in normal operation.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry // keyed by filename
}

// NewRegistry returns an empty registry for one session.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register records (or re-records) an entry under its filename.
func (r *Registry) Register(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.Filename] = e
}

// Lookup finds a previously-registered file by exact filename.
func (r *Registry) Lookup(filename string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[filename]
	return e, ok
}

// All returns a snapshot of every registered entry, for diagnostics.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

// Dump returns a human-readable snapshot of every registered entry, sorted
// by filename, for the debugfs inspector.
func (r *Registry) Dump() string {
	entries := r.All()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Filename < entries[j].Filename })

	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s -> %s (session=%s, seen=%s)\n", e.Filename, e.AbsolutePath, e.SessionID, e.FirstSeenAt.Format(time.RFC3339))
	}
	return b.String()
}

// recognizedExt is the set of audio file extensions render-watch reacts to.
var recognizedExt = map[string]bool{
	".wav": true, ".aiff": true, ".aif": true, ".flac": true, ".mp3": true, ".ogg": true,
}

// Watcher wraps an fsnotify.Watcher, debouncing "created" events until the
// file's size has stopped changing (spec.md §4.9/§5: "size-stable window",
// ">=200ms", so a partially-written render is never registered too early).
type Watcher struct {
	fsw       *fsnotify.Watcher
	registry  *Registry
	sessionID string
	debounce  time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer

	done chan struct{}
}

// Watch starts watching dir for newly-created recognized audio files.
// onWarn, if non-nil, receives non-fatal watcher errors (spec.md §4.9:
// "surfaced as a non-fatal warning; previously-registered entries remain
// usable"); it may be nil.
func Watch(dir, sessionID string, registry *Registry, debounce time.Duration, onWarn func(error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fsw.Close()
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}

	w := &Watcher{
		fsw:       fsw,
		registry:  registry,
		sessionID: sessionID,
		debounce:  debounce,
		pending:   make(map[string]*time.Timer),
		done:      make(chan struct{}),
	}
	go w.loop(onWarn)
	return w, nil
}

func (w *Watcher) loop(onWarn func(error)) {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !recognizedExt[strings.ToLower(filepath.Ext(ev.Name))] {
				continue
			}
			w.scheduleCheck(ev.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("renderwatch: watcher error: %v", err)
			if onWarn != nil {
				onWarn(err)
			}
		case <-w.done:
			return
		}
	}
}

// scheduleCheck (re)arms a debounce timer for path: every new event for the
// same path resets the wait, so a file that's still being written never
// gets checked mid-write.
func (w *Watcher) scheduleCheck(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() { w.checkStable(path) })
}

func (w *Watcher) checkStable(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	w.mu.Unlock()

	info1, err := os.Stat(path)
	if err != nil {
		return // file disappeared or isn't readable yet; drop silently
	}
	time.Sleep(w.debounce)
	info2, err := os.Stat(path)
	if err != nil || info2.Size() != info1.Size() {
		// still changing; fsnotify will fire another Write event that
		// re-arms the debounce, so nothing to do here.
		return
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	w.registry.Register(Entry{
		Filename:     filepath.Base(path),
		AbsolutePath: abs,
		FirstSeenAt:  time.Now(),
		SessionID:    w.sessionID,
	})
	log.Printf("renderwatch: registered %s", filepath.Base(path))
}

// Close stops the watcher. Previously-registered entries remain in the
// registry and usable.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
