// Command flmcp-bridge-sim is a dev harness that runs the Inner Bridge
// (internal/innerbridge) against a loopback transport and a fake host, so
// the command router and file-IPC staging can be exercised end to end
// without real MIDI hardware or a running DAW (spec.md's Inner Bridge is an
// importable package precisely so this is possible).
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/studiobridge/fl-mcp-bridge/internal/bridgeclient"
	"github.com/studiobridge/fl-mcp-bridge/internal/correlate"
	"github.com/studiobridge/fl-mcp-bridge/internal/fileipc"
	"github.com/studiobridge/fl-mcp-bridge/internal/innerbridge"
	"github.com/studiobridge/fl-mcp-bridge/internal/wire"
)

// mutableSender lets two constructors that each need the other's result
// wire up a Sender after both exist, instead of requiring a three-way
// circular construction.
type mutableSender struct{ target interface{ Send(wire.Frame) error } }

func (m *mutableSender) Send(f wire.Frame) error { return m.target.Send(f) }

// toRouter delivers frames sent by the correlator straight into the Inner
// Bridge's router, in-process, standing in for the MIDI transport.
type toRouter struct{ router *innerbridge.Router }

func (t toRouter) Send(f wire.Frame) error {
	t.router.HandleFrame(f)
	return nil
}

// toCorrelator delivers the router's reply frames straight back into the
// correlator.
type toCorrelator struct{ corr *correlate.Correlator }

func (t toCorrelator) Send(f wire.Frame) error {
	t.corr.HandleFrame(f)
	return nil
}

func main() {
	stagingDir := flag.String("staging", "./fl-bridge-sim-staging", "file-IPC staging directory")
	flag.Parse()

	staging := fileipc.New(*stagingDir)
	host := newFakeHost()

	toRouterSender := &mutableSender{}
	corr := correlate.New(toRouterSender)

	router := innerbridge.NewRouter(toCorrelator{corr: corr})
	innerbridge.RegisterDefaultHandlers(router, host, staging)

	toRouterSender.target = toRouter{router: router}

	client := bridgeclient.New(corr)
	client.Timeout = 5 * time.Second

	runDemo(client, staging)
}

// runDemo exercises every Inner Bridge action once, printing results as it
// goes, so this binary doubles as a smoke test a developer can run by eye.
func runDemo(client *bridgeclient.Client, staging *fileipc.Staging) {
	fmt.Println("== discover_parameters ==")
	params, err := client.DiscoverParameters(0, 0)
	must(err)
	for _, p := range params {
		fmt.Printf("  [%d] %s = %.3f\n", p.Index, p.Name, p.Value)
	}

	fmt.Println("== set_parameter ==")
	must(client.SetParameter(0, 0, 0, 0.42))
	value, err := client.GetParameter(0, 0, 0)
	must(err)
	fmt.Printf("  index 0 now reads back %.3f\n", value)

	fmt.Println("== open_piano_roll + add_notes ==")
	must(client.OpenPianoRoll(1, 0))
	must(client.AddNotes(1, 0, demoNotes()))

	req, ok, err := staging.ReadRequest()
	must(err)
	if !ok {
		log.Fatal("expected a staged request after add_notes")
	}
	fmt.Printf("  staged request: action=%s notes=%d\n", req.Action, len(req.Notes))

	// Simulate the piano-roll subinterpreter picking up the request and
	// writing back its state, the way a second host-side script would.
	must(staging.WriteState(fileipc.State{
		Pattern:   req.Pattern,
		Channel:   req.Channel,
		NoteCount: len(req.Notes),
		Notes:     req.Notes,
	}))

	fmt.Println("== read_state ==")
	st, err := client.ReadState()
	must(err)
	fmt.Printf("  pattern=%d channel=%d note_count=%d\n", st.Pattern, st.Channel, st.NoteCount)

	fmt.Println("== clear_notes ==")
	must(client.ClearNotes(1, 0))
}

func demoNotes() []fileipc.NoteData {
	return []fileipc.NoteData{
		{Time: 0, Duration: 0.5, Key: 60, Velocity: 0.9},
		{Time: 0.5, Duration: 0.5, Key: 64, Velocity: 0.8},
		{Time: 1.0, Duration: 1.0, Key: 67, Velocity: 0.85},
	}
}

func must(err error) {
	if err != nil {
		log.Fatalf("flmcp-bridge-sim: %v", err)
	}
}
