// Completion: 100% - Configuration layering complete
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"

	"github.com/xyproto/beefit/internal/engine"
	"github.com/xyproto/beefit/internal/tape"
)

// Config holds every setting of a run. Values are layered: defaults, then
// the YAML file given with -config, then BEEFIT_* environment variables,
// then command line flags.
type Config struct {
	TapeSize int    `yaml:"tape_size"`
	Padding  int    `yaml:"padding"`
	Backend  string `yaml:"backend"`
	Verbose  bool   `yaml:"verbose"`
	NoOpt    bool   `yaml:"no_opt"`
	DumpCode string `yaml:"dump_code"`
	Stats    bool   `yaml:"stats"`
	Profile  bool   `yaml:"profile"`
	// KeepFinalTape keeps writes right before the end of the program. Only
	// useful together with a tape dump, which the command line does not
	// offer, so it is a config file setting.
	KeepFinalTape bool `yaml:"keep_final_tape"`
}

// DefaultConfig returns the built-in settings
func DefaultConfig() Config {
	return Config{
		TapeSize: tape.DefaultSize,
		Padding:  tape.DefaultPadding,
		Backend:  "auto",
	}
}

// LoadConfigFile overlays the settings found in a YAML file. Keys that are
// not present keep their current value.
func (c *Config) LoadConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays the BEEFIT_* environment variables
func (c *Config) ApplyEnv() {
	c.TapeSize = env.Int("BEEFIT_TAPE_SIZE", c.TapeSize)
	c.Padding = env.Int("BEEFIT_PADDING", c.Padding)
	c.Backend = env.Str("BEEFIT_BACKEND", c.Backend)
	c.DumpCode = env.Str("BEEFIT_DUMP", c.DumpCode)
	if env.Has("BEEFIT_VERBOSE") {
		c.Verbose = env.Bool("BEEFIT_VERBOSE")
	}
	if env.Has("BEEFIT_NO_OPT") {
		c.NoOpt = env.Bool("BEEFIT_NO_OPT")
	}
}

// Validate checks the settings and resolves the backend for the host
func (c *Config) Validate() (engine.Backend, error) {
	if c.TapeSize <= 0 {
		return engine.BackendAuto, fmt.Errorf("tape size must be positive, got %d", c.TapeSize)
	}
	if c.Padding < 0 {
		return engine.BackendAuto, fmt.Errorf("padding must not be negative, got %d", c.Padding)
	}
	b, err := engine.ParseBackend(c.Backend)
	if err != nil {
		return b, err
	}
	return b.Resolve(engine.Host())
}
