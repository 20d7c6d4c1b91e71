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

// Package discover finds the data files a batch run works on.
package discover

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultPattern matches the JSON dumps written by hmdq.
const DefaultPattern = "*.json"

var (
	// ErrPathNotFound is returned when the root does not exist.
	ErrPathNotFound = errors.New("path not found")
	// ErrInvalidPattern is returned for a malformed glob.
	ErrInvalidPattern = errors.New("invalid pattern")
)

// 🔍 Discover checks root and returns a lazy sequence of matching files below it.
//
// Patterns without a slash are matched against the base name, so "*.json"
// finds files at any depth. Patterns with a slash are matched against the
// slash separated path relative to root. The walk only starts when the
// sequence is ranged over and follows filesystem order. An unreadable entry
// below root is logged and skipped along with everything under it; only a
// failure to read root itself is yielded, as the error of the last pair.
func Discover(ctx context.Context, root, pattern string) (iter.Seq2[string, error], error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, errors.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}

	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Errorf("%w: %s", ErrPathNotFound, root)
		}
		return nil, errors.Errorf("checking root %s: %w", root, err)
	}

	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("root", root).Str("pattern", pattern).Msg("discovering files")

	byName := !strings.Contains(pattern, "/")
	matches := func(path string, d fs.DirEntry) bool {
		name := d.Name()
		if !byName {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return false
			}
			name = filepath.ToSlash(rel)
		}
		ok, _ := doublestar.Match(pattern, name)
		return ok
	}

	// a single file root is its own result
	if !info.IsDir() {
		return func(yield func(string, error) bool) {
			if matches(root, fs.FileInfoToDirEntry(info)) {
				yield(root, nil)
			}
		}, nil
	}

	return func(yield func(string, error) bool) {
		stopped := false
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return err
				}
				logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable path")
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !matches(path, d) {
				return nil
			}
			if !yield(path, nil) {
				stopped = true
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil && !stopped {
			yield("", errors.Errorf("walking %s: %w", root, err))
		}
	}, nil
}

// Collect drains a sequence into a slice, stopping at the first error.
func Collect(seq iter.Seq2[string, error]) ([]string, error) {
	var files []string
	for path, err := range seq {
		if err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}
