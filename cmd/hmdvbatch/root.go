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

package main

import (
	"context"
	"io"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/hmdvbatch/pkg/batch"
	"github.com/walteh/hmdvbatch/pkg/config"
	"github.com/walteh/hmdvbatch/pkg/discover"
	"github.com/walteh/hmdvbatch/pkg/executor"
	"github.com/walteh/hmdvbatch/pkg/job"
	"github.com/walteh/hmdvbatch/pkg/log"
	"github.com/walteh/hmdvbatch/pkg/report"
	"gitlab.com/tozd/go/errors"
)

// rootOpts holds the flag values of one invocation
type rootOpts struct {
	configFile string
	verbose    int
	parallel   bool
	executable string
	pattern    string
	timeout    time.Duration
	report     string
	debug      bool

	stdout io.Writer
	stderr io.Writer
}

// execute runs the command line and returns the process exit code
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		// the missing root message was already printed
		if !errors.Is(err, discover.ErrPathNotFound) {
			log.New(stderr, zerolog.Nop()).Errorf("Error: %v", err)
		}
		return 1
	}
	return 0
}

// newRootCommand creates the hmdvbatch command
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOpts{stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:   "hmdvbatch <mode> <dir_path>",
		Short: "Run hmdv over every JSON file below a directory",
		Long: `hmdvbatch walks dir_path, runs the hmdv tool once per matching file and
prints one [OK] or [ERROR] line per file. Failed files are listed again at
the end. The exit code is 0 whenever the run itself completed, even if some
files failed.

Modes:
  verify     hmdv verify <file>
  transform  hmdv all --out_json <file> -v<N> <file>  (rewrites the file)`,
		Args:          cobra.ExactArgs(2),
		ValidArgs:     job.ModeNames(),
		Version:       GetVersionInfo().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args[0], args[1])
		},
	}
	cmd.SetVersionTemplate(FormatVersion())

	cmd.Flags().CountVarP(&opts.verbose, "verbose", "v", "increase verbosity, passed on to hmdv in transform mode")
	cmd.Flags().BoolVarP(&opts.parallel, "parallel", "p", false, "run hmdv processes in parallel")
	cmd.Flags().StringVarP(&opts.executable, "hmdv_exe", "x", config.DefaultExecutable, "hmdv executable, looked up on PATH")
	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "config file (yaml, hcl or json)")
	cmd.Flags().StringVar(&opts.pattern, "pattern", config.DefaultPattern, "glob of the files to process")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "kill a single hmdv run after this long (0 disables)")
	cmd.Flags().StringVar(&opts.report, "report", "", "write a JSON report to this path")
	cmd.Flags().BoolVarP(&opts.debug, "debug", "d", false, "enable debug logging")

	return cmd
}

// setupLogging builds the zerolog logger for one run
func (o *rootOpts) setupLogging(ctx context.Context) context.Context {
	level := zerolog.ErrorLevel
	if o.debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: o.stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().
		Logger()
	return logger.WithContext(ctx)
}

// resolveConfig merges the config file and the flags, flags winning
func (o *rootOpts) resolveConfig(ctx context.Context, cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if o.configFile != "" {
		loaded, err := config.Load(ctx, o.configFile)
		if err != nil {
			return nil, errors.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("hmdv_exe") {
		cfg.Executable = o.executable
	}
	if flags.Changed("pattern") {
		cfg.Pattern = o.pattern
	}
	if flags.Changed("parallel") {
		cfg.Parallel = o.parallel
	}
	if flags.Changed("verbose") {
		cfg.Verbose = o.verbose
	}
	if flags.Changed("timeout") {
		cfg.Timeout = o.timeout
	}
	if flags.Changed("report") {
		cfg.Report = o.report
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run is one batch: discover, execute, report
func (o *rootOpts) run(cmd *cobra.Command, modeName, dir string) error {
	ctx := o.setupLogging(cmd.Context())
	logger := zerolog.Ctx(ctx)

	mode, err := job.ParseMode(modeName)
	if err != nil {
		return err
	}

	cfg, err := o.resolveConfig(ctx, cmd)
	if err != nil {
		return err
	}
	logger.Debug().Str("config", cfg.String()).Str("mode", mode.Name()).Msg("starting run")

	ui := log.New(o.stdout, *logger)
	ui.SetVerbosity(cfg.Verbose)
	ctx = log.NewContext(ctx, ui)

	root, err := filepath.Abs(dir)
	if err != nil {
		return errors.Errorf("resolving %s: %w", dir, err)
	}

	paths, err := discover.Discover(ctx, root, cfg.Pattern)
	if err != nil {
		if errors.Is(err, discover.ErrPathNotFound) {
			log.New(o.stderr, zerolog.Nop()).Errorf("Directory %s does not exist", dir)
		}
		return err
	}

	tool, err := executor.Resolve(cfg.Executable)
	if err != nil {
		// keep the raw name, the first job reports the failure
		log.New(o.stderr, *logger).Warningf("%s not found on PATH, running it as given", cfg.Executable)
		tool = cfg.Executable
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = batch.WorkerCount(cfg.WorkerFactor, runtime.NumCPU())
	}
	runner := batch.New(executor.New(executor.Options{Timeout: cfg.Timeout}), batch.Options{
		Parallel: cfg.Parallel,
		Workers:  workers,
		OnStart: func(ctx context.Context, j job.Job) {
			log.FromContext(ctx).Processing(j.Command())
		},
	})
	if cfg.Parallel {
		ui.Verbosef(1, "Running %d workers in parallel", runner.Workers())
	}

	started := time.Now()
	outcomes, runErr := runner.Run(ctx, batch.Plan(paths, mode, tool, cfg.Verbose), ui.Status)

	rep := report.New(uuid.New(), mode, root, started, outcomes)
	rep.Render(ctx)

	if cfg.Report != "" {
		if err := rep.WriteJSON(ctx, cfg.Report); err != nil {
			return err
		}
	}

	return runErr
}
