// Package toolsurface registers named tools and serves them over rpcio
// (spec.md §4: "Tool surface... Mostly out-of-scope glue; listed for
// completeness"). Each tool validates its own typed input and calls
// straight through to the correlator or a local subsystem; this package
// contributes only the registration/dispatch plumbing.
package toolsurface

import (
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/studiobridge/fl-mcp-bridge/internal/rpcio"
)

// Handler validates and executes one tool call. params is the raw JSON
// params object from the RPC request; the handler is responsible for
// unmarshaling it into its own typed input and returning a JSON-serializable
// result or an error.
type Handler func(params json.RawMessage) (any, error)

// Tool is one registered named operation.
type Tool struct {
	Name        string
	Description string
	Handler     Handler
}

// Registry is the set of tools exposed over one rpcio.Conn.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds t, replacing any existing tool with the same name.
func (r *Registry) Register(t Tool) {
	r.tools[t.Name] = t
}

// Names returns every registered tool's name, for a tools/list response.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.tools))
	for name := range r.tools {
		out = append(out, name)
	}
	return out
}

// Serve reads requests from conn until the input closes, dispatching each
// to its matching registered tool and writing exactly one response per
// request. It is single-threaded by design (spec.md §5: the Outer Server
// is single-threaded cooperative concurrency); a tool handler that blocks
// on a correlator call blocks the whole loop until it resolves.
func Serve(conn *rpcio.Conn, reg *Registry) error {
	for {
		req, err := conn.ReadRequest()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("toolsurface: read request: %w", err)
		}

		tool, ok := reg.tools[req.Method]
		if !ok {
			if werr := conn.WriteError(req.ID, -32601, fmt.Sprintf("unknown tool %q", req.Method)); werr != nil {
				return werr
			}
			continue
		}

		result, err := tool.Handler(req.Params)
		if err != nil {
			log.Printf("toolsurface: tool %q failed: %v", req.Method, err)
			if werr := conn.WriteError(req.ID, -32000, err.Error()); werr != nil {
				return werr
			}
			continue
		}
		if err := conn.WriteResult(req.ID, result); err != nil {
			return err
		}
	}
}
