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

package batch

import (
	"context"
	"iter"
	"math"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/walteh/hmdvbatch/pkg/job"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkerFactor sizes the pool relative to the CPU count. Jobs mostly
// wait on the external process, so the pool is a bit larger than the CPUs.
const DefaultWorkerFactor = 1.5

// 🔌 JobExecutor runs a single job to completion
type JobExecutor interface {
	Execute(ctx context.Context, j job.Job) (job.Outcome, error)
}

// Notify receives every outcome as soon as it is known. Calls never overlap.
type Notify func(job.Outcome)

// 🔧 Options configures a Runner
type Options struct {
	// Parallel selects the worker pool over one-at-a-time execution
	Parallel bool
	// Workers is the pool size; zero derives it from DefaultWorkerFactor
	Workers int
	// OnStart is called right before a job is executed, possibly from
	// several goroutines at once
	OnStart func(ctx context.Context, j job.Job)
}

// 🏃 Runner drives an executor over a sequence of jobs
type Runner struct {
	exec     JobExecutor
	parallel bool
	workers  int
	onStart  func(ctx context.Context, j job.Job)
}

// 🏗️ New creates a new runner
func New(exec JobExecutor, opts Options) *Runner {
	workers := opts.Workers
	if workers <= 0 {
		workers = WorkerCount(DefaultWorkerFactor, runtime.NumCPU())
	}
	return &Runner{
		exec:     exec,
		parallel: opts.Parallel,
		workers:  workers,
		onStart:  opts.OnStart,
	}
}

// WorkerCount returns floor(factor * cpus), at least 1.
func WorkerCount(factor float64, cpus int) int {
	n := int(math.Floor(factor * float64(cpus)))
	if n < 1 {
		return 1
	}
	return n
}

// Workers returns the pool size used in parallel mode.
func (r *Runner) Workers() int {
	return r.workers
}

// 🏃 Run executes every job exactly once and returns the outcomes in the
// order they arrived.
//
// A job whose tool exits nonzero is just an ERROR outcome. Run only fails
// for a job sequence error or an executor error (the tool could not be
// started); it then stops handing out new jobs, waits for the ones already
// running and returns the outcomes collected so far with the error.
func (r *Runner) Run(ctx context.Context, jobs iter.Seq2[job.Job, error], notify Notify) ([]job.Outcome, error) {
	if notify == nil {
		notify = func(job.Outcome) {}
	}
	if r.parallel {
		return r.runParallel(ctx, jobs, notify)
	}
	return r.runSequential(ctx, jobs, notify)
}

// 🔄 runSequential runs jobs one at a time in discovery order
func (r *Runner) runSequential(ctx context.Context, jobs iter.Seq2[job.Job, error], notify Notify) ([]job.Outcome, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Msg("running jobs sequentially")

	var outcomes []job.Outcome
	for j, err := range jobs {
		if err != nil {
			return outcomes, errors.Errorf("listing jobs: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return outcomes, errors.Errorf("run cancelled: %w", err)
		}
		out, err := r.execute(ctx, j)
		if err != nil {
			return outcomes, errors.Errorf("running jobs: %w", err)
		}
		notify(out)
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// ⚡ runParallel runs jobs on a bounded pool. Workers hand outcomes to a
// single collector goroutine, which is the only writer of the result slice.
func (r *Runner) runParallel(ctx context.Context, jobs iter.Seq2[job.Job, error], notify Notify) ([]job.Outcome, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Int("workers", r.workers).Msg("running jobs in parallel")

	results := make(chan job.Outcome, r.workers)
	var outcomes []job.Outcome
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for out := range results {
			notify(out)
			outcomes = append(outcomes, out)
		}
	}()

	// gctx only stops dispatch; running jobs keep ctx so a hard failure in
	// one worker never kills its siblings
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	var listErr error
	submitted := 0
	for j, err := range jobs {
		if err != nil {
			listErr = err
			break
		}
		if gctx.Err() != nil {
			break
		}
		submitted++
		g.Go(func() error {
			out, err := r.execute(ctx, j)
			if err != nil {
				return err
			}
			results <- out
			return nil
		})
	}

	runErr := g.Wait()
	close(results)
	<-collected

	logger.Debug().Int("submitted", submitted).Int("collected", len(outcomes)).Msg("worker pool drained")

	if listErr != nil {
		return outcomes, errors.Errorf("listing jobs: %w", listErr)
	}
	if runErr != nil {
		return outcomes, errors.Errorf("running jobs: %w", runErr)
	}
	if err := ctx.Err(); err != nil {
		return outcomes, errors.Errorf("run cancelled: %w", err)
	}
	return outcomes, nil
}

func (r *Runner) execute(ctx context.Context, j job.Job) (job.Outcome, error) {
	if r.onStart != nil {
		r.onStart(ctx, j)
	}
	return r.exec.Execute(ctx, j)
}
