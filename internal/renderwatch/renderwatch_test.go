package renderwatch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Entry{Filename: "Pattern_1.wav", AbsolutePath: "/renders/Pattern_1.wav", SessionID: "s1"})

	e, ok := reg.Lookup("Pattern_1.wav")
	if !ok {
		t.Fatal("expected lookup to find the registered entry")
	}
	if e.AbsolutePath != "/renders/Pattern_1.wav" {
		t.Errorf("got %q", e.AbsolutePath)
	}
	if _, ok := reg.Lookup("missing.wav"); ok {
		t.Error("lookup of an unregistered filename must miss")
	}
}

func TestWatchDetectsNewStableFile(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry()

	w, err := Watch(dir, "session-1", reg, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	path := filepath.Join(dir, "Pattern_1.wav")
	if err := os.WriteFile(path, []byte("fake-audio-data"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.After(1 * time.Second)
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			if e, ok := reg.Lookup("Pattern_1.wav"); ok {
				if e.SessionID != "session-1" {
					t.Errorf("unexpected session id %q", e.SessionID)
				}
				return
			}
		case <-deadline:
			t.Fatal("file was not registered within 1s")
		}
	}
}
