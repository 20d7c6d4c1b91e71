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

// Package executor runs the external tool for a single job.
package executor

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/hmdvbatch/pkg/job"
	"gitlab.com/tozd/go/errors"
)

// waitDelay bounds how long Wait keeps reading pipes after a timed out
// process was killed, in case it left children holding them open.
const waitDelay = 2 * time.Second

// 🔧 Options configures an Executor
type Options struct {
	// Timeout kills a job that runs longer. Zero means no limit.
	Timeout time.Duration
}

// 🏃 Executor runs jobs as subprocesses
type Executor struct {
	timeout time.Duration
}

// 🏭 New creates an executor
func New(opts Options) *Executor {
	return &Executor{
		timeout: opts.Timeout,
	}
}

// Resolve looks name up on PATH the way the shell would.
func Resolve(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", &StartError{Tool: name, Err: err}
	}
	return path, nil
}

// 🎯 Execute runs the tool for j and blocks until it exits.
//
// A nonzero exit is not an error, it is an ERROR outcome. The returned error
// is only set when the process could not be started at all, and then it
// wraps ErrExecutableNotResolved.
func (e *Executor) Execute(ctx context.Context, j job.Job) (job.Outcome, error) {
	logger := zerolog.Ctx(ctx).With().Str("file", j.Path).Str("mode", j.Mode.Name()).Logger()

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	argv := j.Command()
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	if e.timeout > 0 {
		cmd.WaitDelay = waitDelay
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug().Strs("argv", argv).Msg("starting tool")

	start := time.Now()
	err := cmd.Run()
	outcome := job.Outcome{
		Path:     j.Path,
		Output:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	if err == nil {
		outcome.Status = job.StatusOK
		logger.Debug().Dur("duration", outcome.Duration).Msg("tool succeeded")
		return outcome, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return job.Outcome{}, errors.Errorf("executing %s: %w", j, &StartError{Tool: argv[0], Err: err})
	}

	outcome.ExitCode = exitErr.ExitCode()
	outcome.Status = job.StatusFromExitCode(outcome.ExitCode)
	switch {
	case e.timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		outcome.ExitCode = -1
		outcome.Status = job.StatusError
		outcome.Reason = job.ReasonTimedOut
	case outcome.ExitCode < 0:
		outcome.Status = job.StatusError
		outcome.Reason = job.ReasonCrashed
	default:
		outcome.Reason = job.ReasonFailed
	}

	logger.Debug().
		Int("exit_code", outcome.ExitCode).
		Str("reason", string(outcome.Reason)).
		Dur("duration", outcome.Duration).
		Msg("tool failed")

	return outcome, nil
}
