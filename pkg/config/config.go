// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Defaults used when neither a config file nor a flag sets a value.
const (
	DefaultExecutable   = "hmdv.exe"
	DefaultPattern      = "*.json"
	DefaultWorkerFactor = 1.5
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config file from bytes
	Parse(ctx context.Context, data []byte) (*File, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config is the resolved configuration of one run
type Config struct {
	Executable   string        // tool name or path, looked up on PATH
	Pattern      string        // glob for data files
	Parallel     bool          // use the worker pool
	Workers      int           // pool size, 0 derives it from WorkerFactor
	WorkerFactor float64       // pool size per CPU
	Verbose      int           // verbosity, passed to the tool in transform mode
	Timeout      time.Duration // per job limit, 0 means none
	Report       string        // optional JSON report path
}

// 🏭 Default returns the built in configuration
func Default() *Config {
	return &Config{
		Executable:   DefaultExecutable,
		Pattern:      DefaultPattern,
		WorkerFactor: DefaultWorkerFactor,
	}
}

// 📄 File holds what a config file may set. Nil fields leave the current
// value alone.
type File struct {
	Executable   *string  `json:"executable,omitempty" yaml:"executable,omitempty" hcl:"executable,optional"`
	Pattern      *string  `json:"pattern,omitempty" yaml:"pattern,omitempty" hcl:"pattern,optional"`
	Parallel     *bool    `json:"parallel,omitempty" yaml:"parallel,omitempty" hcl:"parallel,optional"`
	Workers      *int     `json:"workers,omitempty" yaml:"workers,omitempty" hcl:"workers,optional"`
	WorkerFactor *float64 `json:"worker_factor,omitempty" yaml:"worker_factor,omitempty" hcl:"worker_factor,optional"`
	Verbose      *int     `json:"verbose,omitempty" yaml:"verbose,omitempty" hcl:"verbose,optional"`
	Timeout      *string  `json:"timeout,omitempty" yaml:"timeout,omitempty" hcl:"timeout,optional"` // e.g. "90s"
	Report       *string  `json:"report,omitempty" yaml:"report,omitempty" hcl:"report,optional"`
}

// 🔄 Apply copies the fields set in f onto cfg
func (f *File) Apply(cfg *Config) error {
	if f.Executable != nil {
		cfg.Executable = *f.Executable
	}
	if f.Pattern != nil {
		cfg.Pattern = *f.Pattern
	}
	if f.Parallel != nil {
		cfg.Parallel = *f.Parallel
	}
	if f.Workers != nil {
		cfg.Workers = *f.Workers
	}
	if f.WorkerFactor != nil {
		cfg.WorkerFactor = *f.WorkerFactor
	}
	if f.Verbose != nil {
		cfg.Verbose = *f.Verbose
	}
	if f.Timeout != nil {
		d, err := time.ParseDuration(*f.Timeout)
		if err != nil {
			return errors.Errorf("%w: timeout %q: %s", ErrInvalidConfig, *f.Timeout, err.Error())
		}
		cfg.Timeout = d
	}
	if f.Report != nil {
		cfg.Report = *f.Report
	}
	return nil
}

// 🎯 Load reads a config file and applies it over the defaults
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	f, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	cfg := Default()
	if err := f.Apply(cfg); err != nil {
		return nil, err
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if cfg.Executable == "" {
		return errors.Errorf("%w: executable is required", ErrInvalidConfig)
	}
	if cfg.Pattern == "" {
		return errors.Errorf("%w: pattern is required", ErrInvalidConfig)
	}
	if !doublestar.ValidatePattern(cfg.Pattern) {
		return errors.Errorf("%w: bad pattern %q", ErrInvalidConfig, cfg.Pattern)
	}
	if cfg.Workers < 0 {
		return errors.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}
	if cfg.WorkerFactor <= 0 {
		return errors.Errorf("%w: worker_factor must be positive", ErrInvalidConfig)
	}
	if cfg.Verbose < 0 {
		return errors.Errorf("%w: verbose must not be negative", ErrInvalidConfig)
	}
	if cfg.Timeout < 0 {
		return errors.Errorf("%w: timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	mode := "sequential"
	if cfg.Parallel {
		mode = "parallel"
	}
	return fmt.Sprintf("%s on %s (%s, v%d)", cfg.Executable, cfg.Pattern, mode, cfg.Verbose)
}
