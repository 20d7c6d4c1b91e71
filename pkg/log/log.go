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

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/hmdvbatch/pkg/job"
)

// 🎯 Logger writes user facing lines to the console and mirrors them as
// structured zerolog records. Safe for concurrent use.
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	verbose int
}

// 🏭 New creates a new logger
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// SetVerbosity sets the level Verbosef compares against.
func (l *Logger) SetVerbosity(level int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = level
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatStatus renders "[OK] path" with a colored tag
func formatStatus(o job.Outcome) string {
	tagColor := color.FgGreen
	if o.IsError() {
		tagColor = color.FgRed
	}
	return fmt.Sprintf("%s %s", color.New(tagColor).Sprintf("[%s]", o.Status), o.Path)
}

// 📝 Status prints the one line result of a job
func (l *Logger) Status(o job.Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, formatStatus(o))

	ev := l.zlog.Info()
	if o.IsError() {
		ev = l.zlog.Warn()
	}
	ev.Str("file", o.Path).
		Str("status", string(o.Status)).
		Str("reason", string(o.Reason)).
		Int("exit_code", o.ExitCode).
		Dur("duration", o.Duration).
		Msg("job finished")
}

// 📝 Failure repeats a failed job in the closing listing
func (l *Logger) Failure(o job.Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.console, "%s %s\n", color.New(color.FgRed, color.Bold).Sprint("ERROR:"), formatStatus(o))
}

// 📝 Finished marks the end of a run
func (l *Logger) Finished() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console, "Finished...")
	l.zlog.Info().Msg("finished")
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Verbosef prints a detail line when the verbosity is at least level
func (l *Logger) Verbosef(level int, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.zlog.Debug().Int("level", level).Msg(msg)
	if l.verbose < level {
		return
	}
	pterm.Info.
		WithPrefix(pterm.Prefix{Text: "VERBOSE", Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack)}).
		WithWriter(l.console).
		Println(msg)
}

// 📝 Processing shows the command line about to run
func (l *Logger) Processing(argv []string) {
	l.Verbosef(1, "Processing: %q", argv)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "%s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}
