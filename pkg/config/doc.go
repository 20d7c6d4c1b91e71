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

/*
Package config loads the optional settings file for hmdvbatch.

	            +-------------+
	            |   Config    |
	            |  (defaults) |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|   YAML   | |   HCL    | |   JSON   |
	|  Parser  | |  Parser  | |  Parser  |
	+----------+ +----------+ +----------+

🎯 Purpose:
- Holds the defaults of a run (tool name, file pattern, pool sizing)
- Reads an optional file that overrides some of them
- Rejects keys it does not know

🔄 Flow:
1. Default() builds the baseline
2. The parser picked by file extension decodes a File
3. File.Apply copies only the fields that were set
4. Validate checks the result

Command line flags are applied on top by the caller, so a flag always wins
over the file and the file always wins over the defaults.

🔍 Example:

	# hmdvbatch.hcl
	executable = "/opt/hmdv/hmdv"
	parallel   = true
	timeout    = "2m"
*/
package config
