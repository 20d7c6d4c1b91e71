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

// Package report builds and renders the summary of a batch run.
package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/hmdvbatch/pkg/job"
	"github.com/walteh/hmdvbatch/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// 📦 Report is everything one run produced. It is built once all outcomes
// are in, never while jobs are still running.
type Report struct {
	ID       uuid.UUID
	Mode     string
	Root     string
	Started  time.Time
	Duration time.Duration

	// Outcomes in arrival order
	Outcomes []job.Outcome
	// Errors is the subset of Outcomes with status ERROR, same order
	Errors []job.Outcome
}

// 🏭 New builds the report for a finished run
func New(id uuid.UUID, mode job.Mode, root string, started time.Time, outcomes []job.Outcome) *Report {
	r := &Report{
		ID:       id,
		Mode:     mode.Name(),
		Root:     root,
		Started:  started,
		Duration: time.Since(started),
		Outcomes: outcomes,
	}
	for _, o := range outcomes {
		if o.IsError() {
			r.Errors = append(r.Errors, o)
		}
	}
	return r
}

// Counts returns the number of OK and ERROR outcomes.
func (r *Report) Counts() (ok, failed int) {
	return len(r.Outcomes) - len(r.Errors), len(r.Errors)
}

// 📝 Render prints the closing marker and lists every failure again, since
// the per-file lines may have scrolled away.
func (r *Report) Render(ctx context.Context) {
	l := log.FromContext(ctx)
	l.Finished()
	l.LogNewline()
	for _, o := range r.Errors {
		l.Failure(o)
	}

	ok, failed := r.Counts()
	zerolog.Ctx(ctx).Info().
		Str("run_id", r.ID.String()).
		Int("ok", ok).
		Int("failed", failed).
		Dur("duration", r.Duration).
		Msg("run complete")
}

// 📝 Entry is one outcome in the JSON report
type Entry struct {
	File       string `json:"file"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	ExitCode   int    `json:"exit_code"`
	DurationMS int64  `json:"duration_ms"`
	Output     string `json:"output,omitempty"`
}

// 📦 File is the JSON report layout
type File struct {
	RunID      string    `json:"run_id"`
	Mode       string    `json:"mode"`
	Root       string    `json:"root"`
	Started    time.Time `json:"started"`
	DurationMS int64     `json:"duration_ms"`
	Total      int       `json:"total"`
	OK         int       `json:"ok"`
	Failed     int       `json:"failed"`
	Outcomes   []Entry   `json:"outcomes"`
	Errors     []string  `json:"errors"`
}

func entry(o job.Outcome) Entry {
	return Entry{
		File:       o.Path,
		Status:     string(o.Status),
		Reason:     string(o.Reason),
		ExitCode:   o.ExitCode,
		DurationMS: o.Duration.Milliseconds(),
		Output:     string(o.Output),
	}
}

// ToFile converts the report to its JSON layout.
func (r *Report) ToFile() *File {
	ok, failed := r.Counts()
	f := &File{
		RunID:      r.ID.String(),
		Mode:       r.Mode,
		Root:       r.Root,
		Started:    r.Started,
		DurationMS: r.Duration.Milliseconds(),
		Total:      len(r.Outcomes),
		OK:         ok,
		Failed:     failed,
		Outcomes:   make([]Entry, 0, len(r.Outcomes)),
		Errors:     make([]string, 0, len(r.Errors)),
	}
	for _, o := range r.Outcomes {
		f.Outcomes = append(f.Outcomes, entry(o))
	}
	for _, o := range r.Errors {
		f.Errors = append(f.Errors, o.Path)
	}
	return f
}

// 📝 WriteJSON writes the report to path
func (r *Report) WriteJSON(ctx context.Context, path string) error {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("writing report")

	data, err := json.MarshalIndent(r.ToFile(), "", "\t")
	if err != nil {
		return errors.Errorf("marshaling report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Errorf("creating report directory: %w", err)
		}
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Errorf("writing report: %w", err)
	}
	return nil
}
