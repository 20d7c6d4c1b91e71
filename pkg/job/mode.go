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

package job

import (
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ErrUnknownMode is returned by ParseMode for anything but verify or transform.
var ErrUnknownMode = errors.New("unknown mode")

// 🎯 Mode selects what the external tool does with a file. The set is closed:
// Verify and Transform are the only implementations.
type Mode interface {
	// Name returns the command line name of the mode
	Name() string
	// Args returns the tool arguments for the job, without the tool itself
	Args(j Job) []string

	sealed()
}

// ✅ Verify checks a file without touching it.
type Verify struct{}

func (Verify) Name() string { return "verify" }

func (Verify) Args(j Job) []string {
	return []string{"verify", j.Path}
}

func (Verify) sealed() {}

// 🔄 Transform runs every tool stage and rewrites the file in place.
type Transform struct{}

func (Transform) Name() string { return "transform" }

// Args writes the JSON output back over the input path.
func (Transform) Args(j Job) []string {
	return []string{"all", "--out_json", j.Path, fmt.Sprintf("-v%d", j.Verbose), j.Path}
}

func (Transform) sealed() {}

// DefaultMode is used by programmatic callers that do not choose one.
var DefaultMode Mode = Verify{}

// ModeNames lists the accepted mode names in help order.
func ModeNames() []string {
	return []string{Verify{}.Name(), Transform{}.Name()}
}

// 🔍 ParseMode maps a command line name to its Mode. Names are matched
// exactly, "Verify" is not a mode.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "verify":
		return Verify{}, nil
	case "transform":
		return Transform{}, nil
	case "":
		return DefaultMode, nil
	}
	return nil, errors.Errorf("%w: %q (expected one of %s)", ErrUnknownMode, name, strings.Join(ModeNames(), ", "))
}
