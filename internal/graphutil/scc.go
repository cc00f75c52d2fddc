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

// Package graphutil implements the graph algorithms the analyses need on
// top of generic node types: strongly connected components for detecting
// recursive call-graph cycles, and elementary-cycle enumeration for
// diagnostics.
package graphutil

// StronglyConnectedComponents partitions a directed graph, given as a node
// list and a successor function, into its strongly connected components
// using Tarjan's algorithm. Every node appears in exactly one component;
// the order inside a component is unspecified. Components come out in
// reverse topological order (callees before callers on a call graph),
// which is the processing order summary-based passes want.
func StronglyConnectedComponents[T comparable](nodes []T, successors func(T) []T) [][]T {
	type nodeState struct {
		index, lowlink int
		onStack        bool
	}
	states := map[T]*nodeState{}
	var stack []T
	var comps [][]T
	next := 0

	var strongConnect func(v T)
	strongConnect = func(v T) {
		s := &nodeState{index: next, lowlink: next}
		states[v] = s
		next++
		stack = append(stack, v)
		s.onStack = true

		for _, w := range successors(v) {
			ws, seen := states[w]
			switch {
			case !seen:
				strongConnect(w)
				if l := states[w].lowlink; l < s.lowlink {
					s.lowlink = l
				}
			case ws.onStack:
				if ws.index < s.lowlink {
					s.lowlink = ws.index
				}
			}
		}

		// v is the root of a component: everything above it on the stack
		// belongs to the same component.
		if s.lowlink == s.index {
			var comp []T
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				states[w].onStack = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			comps = append(comps, comp)
		}
	}

	for _, v := range nodes {
		if _, seen := states[v]; !seen {
			strongConnect(v)
		}
	}
	return comps
}
