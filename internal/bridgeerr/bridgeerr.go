// Package bridgeerr defines the error kinds callers across the bridge need
// to distinguish (spec.md §7), as plain value-type errors in the style of
// materializer.ErrNotReady: small structs carrying just the data a caller
// needs to decide what to do next.
package bridgeerr

import "fmt"

// Disconnected indicates the MIDI link is not up.
type Disconnected struct{}

func (Disconnected) Error() string { return "fl-bridge: MIDI link disconnected" }

// Timeout indicates no response arrived within the request's budget.
type Timeout struct {
	Action string
	MS     int
}

func (e Timeout) Error() string {
	return fmt.Sprintf("fl-bridge: timeout waiting for %q after %dms", e.Action, e.MS)
}

// FrameMalformed wraps a transport-level decode failure with its byte offset.
type FrameMalformed struct {
	Offset int
	Reason string
}

func (e FrameMalformed) Error() string {
	return fmt.Sprintf("fl-bridge: malformed frame at offset %d: %s", e.Offset, e.Reason)
}

// RouterUnknownAction indicates no handler is registered for the name.
type RouterUnknownAction struct{ Action string }

func (e RouterUnknownAction) Error() string {
	return fmt.Sprintf("fl-bridge: no handler registered for action %q", e.Action)
}

// HandlerFailed wraps the error string an Inner Bridge handler returned.
type HandlerFailed struct{ Message string }

func (e HandlerFailed) Error() string { return "fl-bridge: handler failed: " + e.Message }

// ParameterNotFound reports a resolver miss with a truncated hint list.
type ParameterNotFound struct {
	Name string
	Hint []string
}

func (e ParameterNotFound) Error() string {
	return fmt.Sprintf("fl-bridge: parameter %q not found (%d candidates in hint)", e.Name, len(e.Hint))
}

// Ambiguous reports a resolver match against more than one candidate.
type Ambiguous struct{ Candidates []string }

func (e Ambiguous) Error() string {
	return fmt.Sprintf("fl-bridge: ambiguous parameter match, %d candidates", len(e.Candidates))
}

// FileNotFound wraps a missing file path: a file-IPC path or an unresolved
// sample-pipeline input.
type FileNotFound struct{ Path string }

func (e FileNotFound) Error() string { return "fl-bridge: file not found: " + e.Path }

// ExternalToolMissing indicates a required external executable could not be located.
type ExternalToolMissing struct{ Tool string }

func (e ExternalToolMissing) Error() string {
	return "fl-bridge: external tool not found: " + e.Tool
}

// ResourceExhausted indicates no free correlation ids remain.
type ResourceExhausted struct{}

func (ResourceExhausted) Error() string { return "fl-bridge: correlation ids exhausted" }
