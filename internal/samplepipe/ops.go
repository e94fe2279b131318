package samplepipe

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
)

// Pitch shifts input by semitones (positive = up) into output, using sox's
// "pitch" effect (cents = semitones*100).
func (p *Processor) Pitch(ctx context.Context, input, output string, semitones float64) error {
	cents := int(semitones * 100)
	_, err := p.Run(ctx, input, output, "pitch", strconv.Itoa(cents))
	return err
}

// Normalize applies sox's "gain -n" normalization.
func (p *Processor) Normalize(ctx context.Context, input, output string) error {
	_, err := p.Run(ctx, input, output, "gain", "-n")
	return err
}

// SplitChannel extracts one channel (1-indexed, matching sox's "remix")
// from a stereo (or multi-channel) input.
func (p *Processor) SplitChannel(ctx context.Context, input, output string, channel int) error {
	_, err := p.Run(ctx, input, output, "remix", strconv.Itoa(channel))
	return err
}

// Delay applies a pure time delay (in milliseconds) to input.
func (p *Processor) Delay(ctx context.Context, input, output string, ms float64) error {
	_, err := p.Run(ctx, input, output, "delay", fmt.Sprintf("%.4f", ms/1000))
	return err
}

// MergeStereo combines two mono files into one stereo output.
func (p *Processor) MergeStereo(ctx context.Context, left, right, output string) error {
	_, err := p.Run(ctx, "-M", left, right, output)
	return err
}

// PitchSplitMergeNormalize runs spec.md §4.10's named multi-step pipeline:
// pitch-shift both channels independently, optionally apply a micro-delay
// to one of them (for a chorus/widening effect), merge back to stereo, and
// normalize. Every intermediate file is created under filepath.Dir(output)
// and removed on the way out, success or failure (spec.md: "try/finally
// cleanup around all intermediate temp files").
func (p *Processor) PitchSplitMergeNormalize(ctx context.Context, input, output string, semitones, microDelayMS float64) (err error) {
	dir := filepath.Dir(output)
	base := filepath.Base(output)

	left := filepath.Join(dir, "."+base+".tmp.left.wav")
	right := filepath.Join(dir, "."+base+".tmp.right.wav")
	rightDelayed := filepath.Join(dir, "."+base+".tmp.right.delayed.wav")
	leftPitched := filepath.Join(dir, "."+base+".tmp.left.pitch.wav")
	rightPitched := filepath.Join(dir, "."+base+".tmp.right.pitch.wav")
	merged := filepath.Join(dir, "."+base+".tmp.merged.wav")

	temps := []string{left, right, rightDelayed, leftPitched, rightPitched, merged}
	defer cleanupTemps(temps)

	if err = p.SplitChannel(ctx, input, left, 1); err != nil {
		return fmt.Errorf("samplepipe: split left: %w", err)
	}
	if err = p.SplitChannel(ctx, input, right, 2); err != nil {
		return fmt.Errorf("samplepipe: split right: %w", err)
	}

	if err = p.Pitch(ctx, left, leftPitched, semitones); err != nil {
		return fmt.Errorf("samplepipe: pitch left: %w", err)
	}

	rightSource := right
	if microDelayMS > 0 {
		if err = p.Delay(ctx, right, rightDelayed, microDelayMS); err != nil {
			return fmt.Errorf("samplepipe: delay right: %w", err)
		}
		rightSource = rightDelayed
	}
	if err = p.Pitch(ctx, rightSource, rightPitched, semitones); err != nil {
		return fmt.Errorf("samplepipe: pitch right: %w", err)
	}

	if err = p.MergeStereo(ctx, leftPitched, rightPitched, merged); err != nil {
		return fmt.Errorf("samplepipe: merge stereo: %w", err)
	}
	if err = p.Normalize(ctx, merged, output); err != nil {
		return fmt.Errorf("samplepipe: normalize: %w", err)
	}
	return nil
}
