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

// Package ir defines the control-flow-graph intermediate representation
// consumed by the dependence analyses. A function is a list of basic blocks,
// each holding a sequence of statements and one terminator. Statements read
// and write places: a place is a base variable together with a projection
// path of field, index and dereference operations.
//
// The package also defines the conflict relation between places, the
// ProgramPoint positions used to identify statements and terminators, and a
// FunctionBuilder that frontends use to produce well-formed functions. The
// analyses in analysis/dataflow never mutate a Function after it has been
// validated.
package ir
