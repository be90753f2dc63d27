// Package config handles stackvm.toml run configuration.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"
	"github.com/tliron/commonlog/simple"

	"github.com/chazu/stackvm/pkg/bytecode"
)

// FileName is the name of the configuration file Load and FindAndLoad look for.
const FileName = "stackvm.toml"

// Trace output formats.
const (
	FormatText = "text"
	FormatCBOR = "cbor"
	FormatLog  = "log"
)

// Config represents a stackvm.toml configuration.
type Config struct {
	Trace       Trace       `toml:"trace"`
	Interpreter Interpreter `toml:"interpreter"`
	Log         Log         `toml:"log"`

	// Dir is the directory containing the stackvm.toml file (set at load time).
	Dir string `toml:"-"`
}

// Trace configures execution tracing.
type Trace struct {
	Enabled bool   `toml:"enabled"`
	Format  string `toml:"format"`
	Output  string `toml:"output"`
}

// Interpreter configures interpreter behavior.
type Interpreter struct {
	StrictReturn bool `toml:"strict-return"`
}

// Log configures commonlog output.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no stackvm.toml exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load parses a stackvm.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return c, nil
}

// Parse decodes and validates TOML configuration data.
func Parse(data []byte) (*Config, error) {
	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// FindAndLoad walks up from startDir to find a stackvm.toml file,
// then loads and returns it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

func (c *Config) applyDefaults() {
	if c.Trace.Format == "" {
		c.Trace.Format = FormatText
	}
}

// Validate reports settings that cannot be honored.
func (c *Config) Validate() error {
	switch c.Trace.Format {
	case FormatText, FormatCBOR, FormatLog:
	default:
		return fmt.Errorf("trace format %q: want %s, %s or %s",
			c.Trace.Format, FormatText, FormatCBOR, FormatLog)
	}
	if c.Trace.Format == FormatLog && c.Trace.Output != "" {
		return fmt.Errorf("trace format %s writes to the log; output %q is not used", FormatLog, c.Trace.Output)
	}
	if c.Log.Verbosity < 0 {
		return fmt.Errorf("log verbosity %d is negative", c.Log.Verbosity)
	}
	return nil
}

// OutputPath returns the trace output path resolved against Dir, or "" for
// stdout.
func (c *Config) OutputPath() string {
	return c.resolve(c.Trace.Output)
}

// LogPath returns the log file path resolved against Dir, or nil for stderr.
func (c *Config) LogPath() *string {
	if c.Log.File == "" {
		return nil
	}
	p := c.resolve(c.Log.File)
	return &p
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// ConfigureLogging installs an unbuffered commonlog simple backend for the
// [log] section, so every message is written before the process exits.
//
// Log tracing emits Debug messages on stackvm.trace, so when it is enabled
// that logger is raised to Debug whatever the verbosity.
func (c *Config) ConfigureLogging() {
	backend := simple.NewBackend()
	backend.Buffered = false
	commonlog.SetBackend(backend)
	commonlog.Configure(c.Log.Verbosity, c.LogPath())

	if c.Trace.Enabled && c.Trace.Format == FormatLog {
		// A named level shadows the root for its whole subtree.
		commonlog.SetMaxLevel(commonlog.GetMaxLevel(), "stackvm")
		commonlog.SetMaxLevel(commonlog.Debug, "stackvm", "trace")
	}
}

// NewTracer builds the tracer selected by the [trace] section, writing to w.
// It returns nil when tracing is disabled.
func (c *Config) NewTracer(w io.Writer) bytecode.Tracer {
	if !c.Trace.Enabled {
		return nil
	}
	switch c.Trace.Format {
	case FormatCBOR:
		return bytecode.NewCBORTracer(w)
	case FormatLog:
		return bytecode.NewLogTracer(nil)
	default:
		return bytecode.NewTextTracer(w)
	}
}

// Options returns the interpreter options implied by the configuration.
// tracer may be nil.
func (c *Config) Options(tracer bytecode.Tracer) []bytecode.Option {
	opts := []bytecode.Option{
		bytecode.WithStrictReturn(c.Interpreter.StrictReturn),
	}
	if tracer != nil {
		opts = append(opts, bytecode.WithTracer(tracer))
	}
	return opts
}
