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

// Package job holds the unit of work handed to the external tool and the
// outcome recorded for it.
package job

import (
	"fmt"
	"time"
)

// 📦 Job is one request to run the tool against one file in one mode.
// Jobs are values and are never modified after New.
type Job struct {
	Path    string // Absolute path of the file to process
	Mode    Mode   // Verify or Transform
	Tool    string // Resolved path (or bare name) of the tool executable
	Verbose int    // Verbosity level passed through in transform mode
}

// 🏭 New creates a job, falling back to DefaultMode for a nil mode
func New(path string, mode Mode, tool string, verbose int) Job {
	if mode == nil {
		mode = DefaultMode
	}
	return Job{
		Path:    path,
		Mode:    mode,
		Tool:    tool,
		Verbose: verbose,
	}
}

// Command returns the full argv, tool first.
func (j Job) Command() []string {
	return append([]string{j.Tool}, j.Mode.Args(j)...)
}

func (j Job) String() string {
	return fmt.Sprintf("%s %s", j.Mode.Name(), j.Path)
}

// 🚦 Status is derived only from the tool's exit code.
type Status string

const (
	StatusOK    Status = "OK"
	StatusError Status = "ERROR"
)

// StatusFromExitCode maps zero to OK and everything else to ERROR.
func StatusFromExitCode(code int) Status {
	if code == 0 {
		return StatusOK
	}
	return StatusError
}

// Reason says why an outcome is ERROR.
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonFailed   Reason = "failed"    // exited nonzero
	ReasonCrashed  Reason = "crashed"   // killed by a signal
	ReasonTimedOut Reason = "timed out" // killed after the job timeout
)

// 📝 Outcome is the recorded result of executing a Job.
type Outcome struct {
	Path     string
	Output   []byte // captured stdout, possibly empty
	Stderr   []byte // diagnostics only
	ExitCode int    // -1 when the process did not exit normally
	Status   Status
	Reason   Reason
	Duration time.Duration
}

// IsError reports whether the outcome counts as a failure.
func (o Outcome) IsError() bool {
	return o.Status != StatusOK
}

// Text is the one line status shown to the user, e.g. "[OK] /data/a.json".
func (o Outcome) Text() string {
	return fmt.Sprintf("[%s] %s", o.Status, o.Path)
}
