// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package config manages the configuration of the dependence analyses.

Use [Load](filename) to load a configuration from a specific filename.

Use [SetGlobalConfig](filename) to set filename as the global config, and then [LoadGlobal]() to load the global config.

A config file is in yaml format. The fields are those of the [Options]
struct. For example, a valid config file is:

	recursion-max-depth: 2
	loop-max-iterations: 10
	log-level: 3
	verbose: true

The recursion depth and loop iteration budgets are policy knobs, not
correctness requirements: raising them trades analysis time for precision,
never soundness.

The package also provides the [LogGroup] leveled logging facility used by
every analysis.
*/
package config
