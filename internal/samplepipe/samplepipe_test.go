package samplepipe

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// fakeSox writes a tiny shell script standing in for the real sox binary:
// it copies its first non-flag input argument to the last argument, so
// every multi-step pipeline "succeeds" without needing sox installed.
func fakeSox(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake sox script is POSIX-shell only")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "fakesox.sh")
	script := "#!/bin/sh\nsrc=\"\"\nfor a in \"$@\"; do\n  last=\"$a\"\n  if [ -z \"$src\" ] && [ -f \"$a\" ]; then src=\"$a\"; fi\ndone\ncp \"$src\" \"$last\"\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake sox: %v", err)
	}
	return path
}

func TestResolveInputOrder(t *testing.T) {
	renderDir := t.TempDir()
	sampleDir := t.TempDir()

	renderFile := filepath.Join(renderDir, "Pattern_1.wav")
	os.WriteFile(renderFile, []byte("x"), 0o644)

	registry := AdaptRegistry(func(name string) (string, bool) {
		if name == "Pattern_1.wav" {
			return renderFile, true
		}
		return "", false
	})

	got, err := ResolveInput("Pattern_1.wav", registry, renderDir, sampleDir)
	if err != nil {
		t.Fatalf("ResolveInput: %v", err)
	}
	if got != renderFile {
		t.Errorf("registry hit should win, got %q want %q", got, renderFile)
	}

	// no registry hit: falls through to sample dir
	sampleFile := filepath.Join(sampleDir, "other.wav")
	os.WriteFile(sampleFile, []byte("x"), 0o644)
	emptyRegistry := AdaptRegistry(func(string) (string, bool) { return "", false })
	got, err = ResolveInput("other.wav", emptyRegistry, renderDir, sampleDir)
	if err != nil {
		t.Fatalf("ResolveInput: %v", err)
	}
	if got != sampleFile {
		t.Errorf("got %q want %q", got, sampleFile)
	}
}

func TestResolveInputMiss(t *testing.T) {
	registry := AdaptRegistry(func(string) (string, bool) { return "", false })
	_, err := ResolveInput("nope.wav", registry, t.TempDir(), t.TempDir())
	if err == nil {
		t.Fatal("expected a FileNotFound-shaped error")
	}
}

func TestPitchSplitMergeNormalizeCleansUpTemps(t *testing.T) {
	sox := fakeSox(t)
	dir := t.TempDir()

	input := filepath.Join(dir, "in.wav")
	os.WriteFile(input, []byte("fake-wav-bytes"), 0o644)
	output := filepath.Join(dir, "out.wav")

	p := New(sox, 1, 10*time.Second)
	if err := p.PitchSplitMergeNormalize(context.Background(), input, output, -12, 5); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != filepath.Base(input) && e.Name() != filepath.Base(output) {
			t.Errorf("leftover temp file: %s", e.Name())
		}
	}
}
