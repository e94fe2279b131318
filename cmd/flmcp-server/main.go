// Command flmcp-server is the Outer Server (spec.md §1): it opens the MIDI
// link to the host, exposes a named tool surface over line-oriented
// JSON-RPC on stdin/stdout, and drives every Outer-Server-side subsystem
// (parameter resolution, humanization, render-watch, sample pipeline).
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/studiobridge/fl-mcp-bridge/internal/alias"
	"github.com/studiobridge/fl-mcp-bridge/internal/bridgeclient"
	"github.com/studiobridge/fl-mcp-bridge/internal/config"
	"github.com/studiobridge/fl-mcp-bridge/internal/correlate"
	"github.com/studiobridge/fl-mcp-bridge/internal/debugfs"
	"github.com/studiobridge/fl-mcp-bridge/internal/debuglog"
	"github.com/studiobridge/fl-mcp-bridge/internal/fileipc"
	"github.com/studiobridge/fl-mcp-bridge/internal/metrics"
	"github.com/studiobridge/fl-mcp-bridge/internal/paramcache"
	"github.com/studiobridge/fl-mcp-bridge/internal/renderwatch"
	"github.com/studiobridge/fl-mcp-bridge/internal/rpcio"
	"github.com/studiobridge/fl-mcp-bridge/internal/samplepipe"
	"github.com/studiobridge/fl-mcp-bridge/internal/shadow"
	"github.com/studiobridge/fl-mcp-bridge/internal/toolsurface"
	"github.com/studiobridge/fl-mcp-bridge/internal/tracestore"
	"github.com/studiobridge/fl-mcp-bridge/internal/transport"
	"github.com/studiobridge/fl-mcp-bridge/internal/wire"
)

func main() {
	envFile := flag.String("env", "", "optional .env-style file to load before reading the environment")
	sessionID := flag.String("session", "default", "render-watch session id tagged on newly registered files")
	flag.Parse()

	if *envFile != "" {
		if err := config.LoadEnvFile(*envFile); err != nil {
			log.Fatalf("flmcp-server: load env file: %v", err)
		}
	}
	cfg := config.Load()

	var dlog *debuglog.Logger
	if cfg.Debug {
		var err error
		dlog, err = debuglog.Open(cfg.DebugFile)
		if err != nil {
			log.Fatalf("flmcp-server: open debug log: %v", err)
		}
		defer dlog.Close()
		dlog.Printf("flmcp-server: starting, debug log at %s", cfg.DebugFile)
	}

	var trace *tracestore.Store
	if cfg.TraceDBPath != "" {
		var err error
		trace, err = tracestore.Open(cfg.TraceDBPath)
		if err != nil {
			log.Fatalf("flmcp-server: open trace store: %v", err)
		}
		defer trace.Close()
	}

	m := metrics.New()

	aliases := alias.NewTable()
	shadowStore := shadow.New()
	staging := fileipc.New(cfg.StagingDir)
	renderRegistry := renderwatch.NewRegistry()
	processor := samplepipe.New(cfg.SoxPath, cfg.MaxSoxJobs, cfg.ToolTimeout)

	watcher, err := renderwatch.Watch(cfg.RenderWatchDir, *sessionID, renderRegistry, cfg.WatchDebounce, func(warnErr error) {
		log.Printf("flmcp-server: render-watch warning: %v", warnErr)
	})
	if err != nil {
		log.Fatalf("flmcp-server: start render-watch: %v", err)
	}
	defer watcher.Close()

	var corr *correlate.Correlator
	onFrame := func(f wire.Frame) {
		if trace != nil {
			trace.Record(tracestore.DirectionIn, int(f.CorrelationID), frameTypeName(f.Type), statusName(f.Status), len(f.Payload))
		}
		corr.HandleFrame(f)
	}
	onDisconnect := func() {
		log.Printf("flmcp-server: MIDI link disconnected")
		m.Disconnects.Inc()
		corr.Disconnect()
	}

	port, err := transport.Open(cfg.PortFromFL, cfg.PortToFL, onFrame, onDisconnect)
	if err != nil {
		log.Fatalf("flmcp-server: open MIDI transport: %v", err)
	}
	defer port.Close()

	corr = correlate.New(tracingSender{port: port, trace: trace})
	corr.Metrics = m

	client := bridgeclient.New(corr)
	client.Timeout = cfg.RequestTimeout
	cache := paramcache.New(client, shadowStore, aliases)

	if cfg.DebugFSMount != "" {
		unmount, err := debugfs.Mount(cfg.DebugFSMount, bridgeState{cache: cache, shadow: shadowStore, renders: renderRegistry, staging: staging})
		if err != nil {
			log.Printf("flmcp-server: mount debugfs: %v", err)
		} else {
			defer unmount()
			log.Printf("flmcp-server: debugfs mounted at %s", cfg.DebugFSMount)
		}
	}

	metricsCtx, cancelMetrics := context.WithCancel(context.Background())
	defer cancelMetrics()
	go func() {
		if err := m.Serve(metricsCtx, cfg.MetricsAddr); err != nil {
			log.Printf("flmcp-server: metrics server: %v", err)
		}
	}()

	reg := toolsurface.NewRegistry()
	registerTools(reg, toolDeps{
		client:    client,
		cache:     cache,
		shadow:    shadowStore,
		aliases:   aliases,
		renders:   renderRegistry,
		processor: processor,
		renderDir: cfg.RenderWatchDir,
		sampleDir: cfg.SampleDir,
		metrics:   m,
	})

	conn := rpcio.New(os.Stdin, os.Stdout)
	serveErr := make(chan error, 1)
	go func() { serveErr <- toolsurface.Serve(conn, reg) }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sig:
		log.Printf("flmcp-server: shutting down")
	case err := <-serveErr:
		if err != nil {
			log.Printf("flmcp-server: tool surface stopped: %v", err)
		}
	}
}

// tracingSender wraps transport.Port's Send with an optional outbound
// wire-trace recording, independent of the correlator's own bookkeeping.
type tracingSender struct {
	port  *transport.Port
	trace *tracestore.Store
}

func (s tracingSender) Send(f wire.Frame) error {
	if s.trace != nil {
		s.trace.Record(tracestore.DirectionOut, int(f.CorrelationID), frameTypeName(f.Type), statusName(f.Status), len(f.Payload))
	}
	return s.port.Send(f)
}

func frameTypeName(t wire.Type) string {
	if t == wire.TypeCommand {
		return "command"
	}
	return "response"
}

func statusName(s wire.Status) string {
	if s == wire.StatusOK {
		return "ok"
	}
	return "error"
}

// bridgeState implements debugfs.StateProvider over the live subsystems.
type bridgeState struct {
	cache   *paramcache.Cache
	shadow  *shadow.Store
	renders *renderwatch.Registry
	staging *fileipc.Staging
}

func (s bridgeState) ParamCacheSnapshot() string     { return s.cache.Dump() }
func (s bridgeState) ShadowSnapshot() string         { return s.shadow.Dump() }
func (s bridgeState) RenderRegistrySnapshot() string { return s.renders.Dump() }
func (s bridgeState) StagingSnapshot() string        { return s.staging.Dump() }
