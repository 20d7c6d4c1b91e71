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

package executor

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/hmdvbatch/pkg/job"
	"gitlab.com/tozd/go/errors"
)

// writeTool writes an executable shell script standing in for hmdv.
func writeTool(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are shell scripts")
	}
	path := filepath.Join(t.TempDir(), "hmdv")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755), "writing fake tool")
	return path
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name       string
		tool       string
		mode       job.Mode
		timeout    time.Duration
		wantStatus job.Status
		wantReason job.Reason
		wantCode   int
		check      func(t *testing.T, out job.Outcome)
	}{
		{
			name:       "exit_zero_is_ok",
			tool:       `echo "checked $*"; exit 0`,
			mode:       job.Verify{},
			wantStatus: job.StatusOK,
			wantReason: job.ReasonNone,
			wantCode:   0,
			check: func(t *testing.T, out job.Outcome) {
				assert.True(t, strings.HasPrefix(string(out.Output), "checked verify "), "stdout should be captured")
			},
		},
		{
			name:       "exit_one_is_error",
			tool:       `echo "bad checksum" >&2; exit 1`,
			mode:       job.Verify{},
			wantStatus: job.StatusError,
			wantReason: job.ReasonFailed,
			wantCode:   1,
			check: func(t *testing.T, out job.Outcome) {
				assert.Empty(t, out.Output, "nothing was written to stdout")
				assert.Equal(t, "bad checksum\n", string(out.Stderr), "stderr should be kept for diagnostics")
			},
		},
		{
			name:       "exit_137_is_error",
			tool:       `exit 137`,
			mode:       job.Verify{},
			wantStatus: job.StatusError,
			wantReason: job.ReasonFailed,
			wantCode:   137,
		},
		{
			name:       "killed_by_signal_is_crashed",
			tool:       `kill -9 $$`,
			mode:       job.Verify{},
			wantStatus: job.StatusError,
			wantReason: job.ReasonCrashed,
			wantCode:   -1,
		},
		{
			name:       "timeout_is_timed_out",
			tool:       `exec sleep 5`,
			mode:       job.Verify{},
			timeout:    100 * time.Millisecond,
			wantStatus: job.StatusError,
			wantReason: job.ReasonTimedOut,
			wantCode:   -1,
			check: func(t *testing.T, out job.Outcome) {
				assert.Less(t, out.Duration, 4*time.Second, "process should be killed early")
			},
		},
		{
			name:       "transform_receives_out_json_and_verbosity",
			tool:       `echo "$@"`,
			mode:       job.Transform{},
			wantStatus: job.StatusOK,
			check: func(t *testing.T, out job.Outcome) {
				want := "all --out_json " + out.Path + " -v2 " + out.Path + "\n"
				assert.Equal(t, want, string(out.Output), "transform argv should reach the tool")
			},
		},
	}

	ctx := zerolog.Nop().WithContext(context.Background())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := writeTool(t, tt.tool)
			target := filepath.Join(t.TempDir(), "a.json")
			require.NoError(t, os.WriteFile(target, []byte("{}"), 0o644))

			ex := New(Options{Timeout: tt.timeout})
			out, err := ex.Execute(ctx, job.New(target, tt.mode, tool, 2))
			require.NoError(t, err, "a finished process is never an error")

			assert.Equal(t, target, out.Path, "outcome should carry the job path")
			assert.Equal(t, tt.wantStatus, out.Status, "status should match")
			assert.Equal(t, tt.wantReason, out.Reason, "reason should match")
			assert.Equal(t, tt.wantCode, out.ExitCode, "exit code should match")
			if tt.check != nil {
				tt.check(t, out)
			}
		})
	}
}

func TestExecuteStartFailure(t *testing.T) {
	ctx := zerolog.Nop().WithContext(context.Background())
	dir := t.TempDir()

	notExecutable := filepath.Join(dir, "hmdv-noexec")
	require.NoError(t, os.WriteFile(notExecutable, []byte("#!/bin/sh\nexit 0\n"), 0o644))

	tests := []struct {
		name string
		tool string
	}{
		{name: "missing_executable", tool: filepath.Join(dir, "does-not-exist")},
		{name: "not_executable", tool: notExecutable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if runtime.GOOS == "windows" {
				t.Skip("permission bits are not meaningful on windows")
			}
			out, err := New(Options{}).Execute(ctx, job.New(filepath.Join(dir, "a.json"), job.Verify{}, tt.tool, 0))
			require.Error(t, err, "a tool that cannot start is a hard failure")
			assert.True(t, errors.Is(err, ErrExecutableNotResolved), "error should wrap ErrExecutableNotResolved")
			assert.Contains(t, err.Error(), tt.tool, "error should name the tool")
			assert.Equal(t, job.Outcome{}, out, "no outcome is produced")

			var startErr *StartError
			require.True(t, errors.As(err, &startErr), "error should be a StartError")
			assert.Equal(t, tt.tool, startErr.Tool)
		})
	}
}

func TestResolve(t *testing.T) {
	tool := writeTool(t, "exit 0")
	t.Setenv("PATH", filepath.Dir(tool))

	got, err := Resolve("hmdv")
	require.NoError(t, err, "tool on PATH should resolve")
	assert.Equal(t, tool, got)

	_, err = Resolve("hmdv.exe")
	require.Error(t, err, "unknown tool should not resolve")
	assert.True(t, errors.Is(err, ErrExecutableNotResolved), "error should wrap ErrExecutableNotResolved")
}
