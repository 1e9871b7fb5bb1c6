package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds every invocation parameter. The pipeline receives it
// explicitly; nothing is read from ambient global state.
type Config struct {
	Input     string `koanf:"input"`     // record bundle file, or a directory of record files
	TargetID  int64  `koanf:"target"`    // SNO id of the node to extract around
	Incoming  int    `koanf:"incoming"`  // incoming hop limit
	Outgoing  int    `koanf:"outgoing"`  // outgoing hop limit
	FanOut    int    `koanf:"fan-out"`   // skip expanding nodes with more edges than this; <= 0 disables
	OutFile   string `koanf:"out"`       // DOT output path
	Watch     bool   `koanf:"watch"`     // re-extract on input changes
	WebMode   bool   `koanf:"web"`       // serve the subgraph over HTTP
	Port      int    `koanf:"port"`      // web server port
	Verbosity string `koanf:"verbosity"` // trace, debug, info, warn, error
	JSONLogs  bool   `koanf:"json-logs"` // emit JSON log lines instead of the compact format
}

// Validate rejects parameter combinations the engine cannot honor.
func (c *Config) Validate() error {
	if c.Incoming < 0 || c.Outgoing < 0 {
		return fmt.Errorf("hop limits must be non-negative (incoming=%d, outgoing=%d)", c.Incoming, c.Outgoing)
	}
	if c.OutFile == "" {
		return fmt.Errorf("output path must not be empty")
	}
	return nil
}

// Load loads configuration from defaults, config file, environment
// variables, and flags. Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults. The target id defaults to the quest record the tool
	// was originally built to inspect.
	defaults := map[string]interface{}{
		"input":     ".",
		"target":    int64(1315204),
		"incoming":  3,
		"outgoing":  3,
		"fan-out":   20,
		"out":       "graph.dot",
		"watch":     false,
		"web":       false,
		"port":      8080,
		"verbosity": "",
		"json-logs": false,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional) - sno-graph.toml
	// We ignore errors here as the file might not exist
	_ = k.Load(file.Provider("sno-graph.toml"), toml.Parser())

	// 3. Environment Variables
	// Prefix: SNO_GRAPH_ (e.g., SNO_GRAPH_PORT=9090)
	if err := k.Load(env.Provider("SNO_GRAPH_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "SNO_GRAPH_")), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Flags returns the flag set the CLI binds. Positional handling of the
// input path stays in main.
func Flags() *pflag.FlagSet {
	f := pflag.NewFlagSet("sno-graph", pflag.ContinueOnError)
	f.String("input", ".", "Record bundle file or directory of record files")
	f.Int64P("target", "t", 1315204, "SNO id of the target node")
	f.Int("incoming", 3, "Number of hops to trace back from the target")
	f.Int("outgoing", 3, "Number of hops to follow forward from the target")
	f.Int("fan-out", 20, "Skip expanding nodes with more than this many edges in a direction (0 disables)")
	f.StringP("out", "o", "graph.dot", "Output path for the DOT document")
	f.Bool("watch", false, "Watch the input and re-extract on changes")
	f.Bool("web", false, "Serve the extracted subgraph over HTTP")
	f.Int("port", 8080, "Port for the web server (only used with --web)")
	f.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	f.Bool("json-logs", false, "Emit JSON log lines")
	return f
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
