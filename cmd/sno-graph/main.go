package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tbakker/sno-graph/pkg/config"
	"github.com/tbakker/sno-graph/pkg/graph"
	"github.com/tbakker/sno-graph/pkg/logging"
	"github.com/tbakker/sno-graph/pkg/output"
	"github.com/tbakker/sno-graph/pkg/render"
	"github.com/tbakker/sno-graph/pkg/sno"
	"github.com/tbakker/sno-graph/pkg/watcher"
	"github.com/tbakker/sno-graph/pkg/web"
)

// Exit codes, distinguishable for scripting.
const (
	exitGeneric        = 1
	exitMalformedInput = 2
	exitMissingTarget  = 3
)

func main() {
	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitGeneric)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitGeneric)
	}
	// A positional argument names the input path, like the flag does.
	if args := flags.Args(); len(args) > 0 {
		cfg.Input = args[0]
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitGeneric)
	}

	logging.Setup(cfg.Verbosity, cfg.JSONLogs)

	ext, err := run(cfg)
	if err != nil {
		fail(err)
	}

	doc, err := render.WriteFile(cfg.OutFile, ext.sg)
	if err != nil {
		fail(err)
	}
	output.PrintSummary(cfg.Input, ext.idx, ext.sg, cfg.OutFile)

	var server *web.Server
	if cfg.WebMode {
		server = web.NewServer()
		if err := server.SetSubgraph(ext.idx, ext.sg, doc); err != nil {
			logging.Error("failed to publish initial extraction", "error", err)
		}
		go func() {
			if err := server.Start(cfg.Port); err != nil {
				logging.Fatal("web server failed", "error", err)
			}
		}()
	}

	switch {
	case cfg.Watch:
		watchLoop(cfg, server) // blocks
	case cfg.WebMode:
		select {} // server runs in its goroutine
	}
}

// extraction bundles one full pipeline run. Rendering happens at the
// write site so the document bytes exist exactly once.
type extraction struct {
	idx *graph.Index
	sg  *graph.Subgraph
}

// run loads the records, builds the index, traverses around the target,
// and assembles the subgraph.
func run(cfg *config.Config) (*extraction, error) {
	bundle, err := load(cfg.Input)
	if err != nil {
		return nil, err
	}
	logging.Debug("loaded records", "nodes", len(bundle.Nodes), "edges", len(bundle.Edges))

	idx := graph.NewIndex(bundle)

	res, err := graph.Traverse(idx, cfg.TargetID, graph.Limits{
		Incoming: cfg.Incoming,
		Outgoing: cfg.Outgoing,
		FanOut:   cfg.FanOut,
	})
	if err != nil {
		return nil, err
	}

	sg := graph.Assemble(idx, res)
	logging.Info("extracted neighborhood",
		"target", cfg.TargetID,
		"nodes", len(sg.Nodes()),
		"edges", len(sg.Edges()),
	)

	return &extraction{idx: idx, sg: sg}, nil
}

// load picks the loader by input shape: a directory is scanned for
// record files, anything else is read as a single bundle document.
func load(input string) (*sno.Bundle, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return sno.ScanDir(input)
	}
	return sno.LoadBundle(input)
}

// watchLoop re-runs the pipeline whenever the input changes.
func watchLoop(cfg *config.Config, server *web.Server) {
	ctx := context.Background()

	w, err := watcher.NewInputWatcher(cfg.Input)
	if err != nil {
		fail(err)
	}
	if err := w.Start(ctx); err != nil {
		fail(err)
	}

	deb := watcher.NewDebouncer(w.Events(), 500*time.Millisecond, 5*time.Second)
	deb.Start(ctx)

	for ev := range deb.Output() {
		logging.Info("input changed, re-extracting", "changes", len(ev.Paths))

		ext, err := run(cfg)
		if err != nil {
			// Watch mode tolerates a broken intermediate state; the
			// previous document stays in place.
			logging.Error("re-extraction failed", "error", err)
			continue
		}

		doc, err := render.WriteFile(cfg.OutFile, ext.sg)
		if err != nil {
			logging.Error("failed to write document", "path", cfg.OutFile, "error", err)
			continue
		}
		if server != nil {
			if err := server.SetSubgraph(ext.idx, ext.sg, doc); err != nil {
				logging.Error("failed to publish extraction", "error", err)
			}
		}
	}
}

// fail prints the error and exits with the code for its kind.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var missing *graph.MissingTargetError
	switch {
	case errors.Is(err, sno.ErrMalformedInput):
		os.Exit(exitMalformedInput)
	case errors.As(err, &missing):
		os.Exit(exitMissingTarget)
	default:
		os.Exit(exitGeneric)
	}
}
