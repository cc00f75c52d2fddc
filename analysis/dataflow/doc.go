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

// Package dataflow builds dependence graphs over the ir of analyzed
// functions. A graph's nodes are observations of a place at a program
// point; its edges record data dependences (the target's value was computed
// from the source's), control dependences (the branch at the source decides
// whether the target runs) and, across functions, argument passing and
// return value flow.
//
// Graphs are built per function by a forward fixed point over the CFG
// (BuildGraph) and cached by (function, revision) in a State. The Linker
// stitches cached graphs into a whole-program LinkedGraph by connecting
// call sites to callee summaries; unresolved callees and recursion beyond
// the configured depth budget fall back to the opaque-call approximation,
// which conservatively connects every argument to the call's result and to
// every reference argument's mutation.
package dataflow
