// Package samplepipe builds and executes external audio-processor CLI
// commands (spec.md §4.10). It never spawns a shell — every invocation goes
// through os/exec.CommandContext with an explicit argument vector, so there
// is no argument-interpolation surface at all — and treats the processor's
// stderr as informational: only a non-zero exit code is a failure.
package samplepipe

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"time"

	"golang.org/x/time/rate"

	"github.com/studiobridge/fl-mcp-bridge/internal/bridgeerr"
)

// Processor invokes one external audio-processing executable (spec.md §6:
// SOX_PATH, default "sox"). The rate at which invocations start is limited
// with a token-bucket limiter: a burst of maxConcurrent starts, then one
// more start every Timeout/maxConcurrent. The limiter does not count
// invocations that are still running, so it does not cap how many run at
// once.
type Processor struct {
	ExePath string
	Timeout time.Duration

	limiter *rate.Limiter
}

// New returns a Processor invoking exePath whose limiter allows a burst of
// maxConcurrent starts and refills one start every timeout/maxConcurrent.
func New(exePath string, maxConcurrent int, timeout time.Duration) *Processor {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Processor{
		ExePath: exePath,
		Timeout: timeout,
		limiter: rate.NewLimiter(rate.Every(timeout/time.Duration(maxConcurrent)), maxConcurrent),
	}
}

// Run waits for a limiter token, then executes ExePath with args under a
// context bounded by Timeout. It returns bridgeerr.ExternalToolMissing if
// the executable cannot be located, and stdout otherwise; non-empty stderr
// is written to the standard log but never treated as an error signal on
// its own (spec.md §4.10).
func (p *Processor) Run(ctx context.Context, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(p.ExePath); err != nil {
		return nil, bridgeerr.ExternalToolMissing{Tool: p.ExePath}
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("samplepipe: waiting for concurrency slot: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, p.ExePath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if stderr.Len() > 0 {
		log.Printf("samplepipe: %s stderr: %s", p.ExePath, stderr.String())
	}
	if err != nil {
		return nil, fmt.Errorf("samplepipe: %s %v: %w", p.ExePath, args, err)
	}
	return stdout.Bytes(), nil
}
