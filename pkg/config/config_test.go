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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		config      string
		wantErr     bool
		wantInvalid bool
		errContains string
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name:     "yaml_overrides_defaults",
			filename: "hmdvbatch.yaml",
			config: `
executable: /opt/hmdv/hmdv
parallel: true
timeout: 90s
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/opt/hmdv/hmdv", cfg.Executable, "executable should match")
				assert.True(t, cfg.Parallel, "parallel should be true")
				assert.Equal(t, 90*time.Second, cfg.Timeout, "timeout should be parsed")
				assert.Equal(t, DefaultPattern, cfg.Pattern, "pattern should keep its default")
				assert.InDelta(t, DefaultWorkerFactor, cfg.WorkerFactor, 0.0001, "factor should keep its default")
			},
		},
		{
			name:     "hcl_config",
			filename: "hmdvbatch.hcl",
			config: `
pattern = "**/*.json"
workers = 6
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "**/*.json", cfg.Pattern)
				assert.Equal(t, 6, cfg.Workers)
				assert.Equal(t, DefaultExecutable, cfg.Executable)
			},
		},
		{
			name:     "json_config",
			filename: "hmdvbatch.json",
			config:   `{"verbose": 2, "report": "report.json"}`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 2, cfg.Verbose)
				assert.Equal(t, "report.json", cfg.Report)
			},
		},
		{
			name:        "bad_timeout",
			filename:    "hmdvbatch.yaml",
			config:      "timeout: soon\n",
			wantErr:     true,
			wantInvalid: true,
			errContains: "timeout",
		},
		{
			name:        "negative_workers",
			filename:    "hmdvbatch.yaml",
			config:      "workers: -1\n",
			wantErr:     true,
			wantInvalid: true,
			errContains: "validating config",
		},
		{
			name:        "bad_pattern",
			filename:    "hmdvbatch.yaml",
			config:      "pattern: \"[\"\n",
			wantErr:     true,
			wantInvalid: true,
			errContains: "bad pattern",
		},
		{
			name:        "unknown_format",
			filename:    "hmdvbatch.toml",
			config:      "verbose = 1",
			wantErr:     true,
			errContains: "no parser found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create temp config file
			path := filepath.Join(t.TempDir(), tt.filename)
			err := os.WriteFile(path, []byte(tt.config), 0o644)
			require.NoError(t, err, "writing config file should succeed")

			ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())

			cfg, err := Load(ctx, path)
			if tt.wantErr {
				require.Error(t, err, "should return error")
				assert.Contains(t, err.Error(), tt.errContains, "error should contain expected message")
				if tt.wantInvalid {
					assert.ErrorIs(t, err, ErrInvalidConfig)
				}
				return
			}

			require.NoError(t, err, "should not return error")
			require.NotNil(t, cfg, "config should not be nil")
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	ctx := zerolog.Nop().WithContext(context.Background())
	_, err := Load(ctx, filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist), "missing file should surface os.ErrNotExist")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(cfg *Config) {}},
		{name: "empty_executable", mutate: func(cfg *Config) { cfg.Executable = "" }, wantErr: "executable is required"},
		{name: "empty_pattern", mutate: func(cfg *Config) { cfg.Pattern = "" }, wantErr: "pattern is required"},
		{name: "zero_factor", mutate: func(cfg *Config) { cfg.WorkerFactor = 0 }, wantErr: "worker_factor"},
		{name: "negative_verbose", mutate: func(cfg *Config) { cfg.Verbose = -1 }, wantErr: "verbose"},
		{name: "negative_timeout", mutate: func(cfg *Config) { cfg.Timeout = -time.Second }, wantErr: "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigString(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "hmdv.exe on *.json (sequential, v0)", cfg.String())
	cfg.Parallel = true
	cfg.Verbose = 2
	assert.Equal(t, "hmdv.exe on *.json (parallel, v2)", cfg.String())
}
