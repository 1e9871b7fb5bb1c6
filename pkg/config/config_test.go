package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Input != "." {
		t.Errorf("Expected input '.', got %q", cfg.Input)
	}
	if cfg.TargetID != 1315204 {
		t.Errorf("Expected default target 1315204, got %d", cfg.TargetID)
	}
	if cfg.Incoming != 3 || cfg.Outgoing != 3 {
		t.Errorf("Expected hop limits 3/3, got %d/%d", cfg.Incoming, cfg.Outgoing)
	}
	if cfg.FanOut != 20 {
		t.Errorf("Expected fan-out 20, got %d", cfg.FanOut)
	}
	if cfg.OutFile != "graph.dot" {
		t.Errorf("Expected out graph.dot, got %q", cfg.OutFile)
	}
	if cfg.Watch || cfg.WebMode {
		t.Error("Watch and web mode should default off")
	}
	if cfg.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Port)
	}
}

func TestLoadFlagsOverride(t *testing.T) {
	f := Flags()
	args := []string{
		"--target", "42",
		"--incoming", "1",
		"--outgoing", "0",
		"-o", "custom.dot",
		"--web",
		"--port", "9000",
	}
	if err := f.Parse(args); err != nil {
		t.Fatalf("Parsing flags failed: %v", err)
	}

	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.TargetID != 42 {
		t.Errorf("Expected target 42, got %d", cfg.TargetID)
	}
	if cfg.Incoming != 1 || cfg.Outgoing != 0 {
		t.Errorf("Expected hop limits 1/0, got %d/%d", cfg.Incoming, cfg.Outgoing)
	}
	if cfg.OutFile != "custom.dot" {
		t.Errorf("Expected out custom.dot, got %q", cfg.OutFile)
	}
	if !cfg.WebMode || cfg.Port != 9000 {
		t.Errorf("Expected web mode on port 9000, got %v/%d", cfg.WebMode, cfg.Port)
	}
	// Flags left at their default keep the default value.
	if cfg.FanOut != 20 {
		t.Errorf("Untouched flag changed the fan-out: %d", cfg.FanOut)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SNO_GRAPH_PORT", "9090")
	t.Setenv("SNO_GRAPH_OUT", "env.dot")
	t.Setenv("SNO_GRAPH_JSON_LOGS", "true")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Expected env port 9090, got %d", cfg.Port)
	}
	if cfg.OutFile != "env.dot" {
		t.Errorf("Expected env out env.dot, got %q", cfg.OutFile)
	}
	if !cfg.JSONLogs {
		t.Error("Expected env to enable JSON logs")
	}
}

func TestValidate(t *testing.T) {
	good := &Config{Incoming: 3, Outgoing: 3, OutFile: "graph.dot"}
	if err := good.Validate(); err != nil {
		t.Errorf("Valid config rejected: %v", err)
	}

	negative := &Config{Incoming: -1, Outgoing: 3, OutFile: "graph.dot"}
	if err := negative.Validate(); err == nil {
		t.Error("Expected error for negative hop limit")
	} else if !strings.Contains(err.Error(), "non-negative") {
		t.Errorf("Unexpected error text: %v", err)
	}

	noOut := &Config{Incoming: 0, Outgoing: 0}
	if err := noOut.Validate(); err == nil {
		t.Error("Expected error for empty output path")
	}
}
