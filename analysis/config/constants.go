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

package config

const (
	// DefaultRecursionMaxDepth bounds how many times the interprocedural
	// linker follows a call edge inside a recursive call-graph component
	// before switching to the opaque-call approximation.
	DefaultRecursionMaxDepth = 2

	// DefaultLoopMaxIterations bounds the fixed-point iteration of the
	// dependence graph builder over a function's CFG. Reaching definitions
	// need at most one revisit per loop on well-formed input; the bound
	// guards against malformed, irreducible inputs.
	DefaultLoopMaxIterations = 10

	// DefaultNumWorkers is the number of goroutines used when building the
	// graphs of independent functions in parallel.
	DefaultNumWorkers = 4
)
