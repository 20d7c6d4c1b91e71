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
	"fmt"

	"gitlab.com/tozd/go/errors"
)

// ErrExecutableNotResolved means the tool could not be found or started.
var ErrExecutableNotResolved = errors.New("executable not resolved")

// StartError carries the underlying exec failure for a tool that never ran.
type StartError struct {
	Tool string
	Err  error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrExecutableNotResolved.Error(), e.Tool, e.Err)
}

func (e *StartError) Unwrap() []error {
	return []error{ErrExecutableNotResolved, e.Err}
}
