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
	"iter"

	"github.com/walteh/hmdvbatch/pkg/job"
)

// 📋 Plan turns discovered paths into jobs lazily, one per path.
func Plan(paths iter.Seq2[string, error], mode job.Mode, tool string, verbose int) iter.Seq2[job.Job, error] {
	return func(yield func(job.Job, error) bool) {
		for path, err := range paths {
			if err != nil {
				yield(job.Job{}, err)
				return
			}
			if !yield(job.New(path, mode, tool, verbose), nil) {
				return
			}
		}
	}
}
