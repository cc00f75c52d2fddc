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

package graphutil

import (
	"sort"

	"github.com/yourbasic/graph"
)

// A Digraph is a directed graph over dense vertices 0..Order-1 in the
// adjacency representation shared with the yourbasic graph library.
type Digraph struct {
	// Keys are the live vertices of the graph
	Keys []int

	// Edges is an adjacency set: Edges[x][y] means there is a directed edge
	// from x to y
	Edges map[int]map[int]bool

	order int
}

// NewDigraph returns a digraph with order vertices and no edges.
func NewDigraph(order int) Digraph {
	keys := make([]int, order)
	edges := make(map[int]map[int]bool, order)
	for i := 0; i < order; i++ {
		keys[i] = i
		edges[i] = map[int]bool{}
	}
	return Digraph{Keys: keys, Edges: edges, order: order}
}

// AddEdge adds the directed edge from x to y.
func (g Digraph) AddEdge(x, y int) {
	g.Edges[x][y] = true
}

// Order implements graph.Iterator.
func (g Digraph) Order() int { return g.order }

// Visit implements graph.Iterator. Successors are visited in increasing
// order so that algorithms over the graph stay deterministic.
func (g Digraph) Visit(v int, do func(w int, c int64) bool) bool {
	ws := make([]int, 0, len(g.Edges[v]))
	for w := range g.Edges[v] {
		ws = append(ws, w)
	}
	sort.Ints(ws)
	for _, w := range ws {
		if do(w, 0) {
			return true
		}
	}
	return false
}

// Subgraph returns a new graph that is the original graph restricted to the
// vertices in include. Only the edges with both endpoints in include are
// kept. The subgraph's order is the same as the original's, so vertex
// indices stay consistent across subgraphs.
func Subgraph(original Digraph, include []int) Digraph {
	keep := map[int]bool{}
	for _, v := range include {
		keep[v] = true
	}
	edges := make(map[int]map[int]bool, len(include))
	for _, v := range include {
		edges[v] = map[int]bool{}
		for w := range original.Edges[v] {
			if keep[w] {
				edges[v][w] = true
			}
		}
	}
	keys := make([]int, len(include))
	copy(keys, include)
	sort.Ints(keys)
	return Digraph{Keys: keys, Edges: edges, order: original.order}
}

// FindAllElementaryCycles finds all elementary cycles in the digraph.
// This uses Donald B. Johnson's algorithm presented in
// "Finding All The Elementary Circuits of a Directed Graph", 1975.
func FindAllElementaryCycles(g Digraph) [][]int {
	s := &cycleState{
		blocked: map[int]bool{},
		blist:   map[int]map[int]bool{},
		stack:   []int{},
		cycles:  [][]int{},
	}
	nodeid := 0
	for nodeid < len(g.Keys) {
		fg := Subgraph(g, g.Keys[nodeid:])
		components := graph.StrongComponents(fg)
		foundC2 := false
		for _, component := range components {
			if len(component) >= 2 {
				foundC2 = true
				sort.Ints(component)
				node := component[0]
				nodeid = node
				s.stack = []int{}
				s.blocked = map[int]bool{}
				s.blist = map[int]map[int]bool{}
				s.circuit(node, node, fg)
				nodeid++
			}
		}
		if !foundC2 {
			break
		}
	}
	// Self loops are elementary cycles too, but the SCC pass above only
	// finds components of size >= 2.
	for _, v := range g.Keys {
		if g.Edges[v][v] {
			s.cycles = append(s.cycles, []int{v, v})
		}
	}
	return s.cycles
}

type cycleState struct {
	blocked map[int]bool
	blist   map[int]map[int]bool
	stack   []int
	cycles  [][]int
}

func (s *cycleState) unblock(u int) {
	s.blocked[u] = false
	for w := range s.blist[u] {
		if s.blocked[w] {
			s.unblock(w)
		}
	}
}

func (s *cycleState) circuit(v int, i int, g Digraph) bool {
	f := false
	s.stack = append(s.stack, v)
	s.blocked[v] = true
	for _, w := range sortedNeighbors(g, v) {
		if w == i {
			stackCopy := make([]int, len(s.stack))
			copy(stackCopy, s.stack)
			stackCopy = append(stackCopy, w)
			s.cycles = append(s.cycles, stackCopy)
			f = true
		} else if !s.blocked[w] {
			if s.circuit(w, i, g) {
				f = true
			}
		}
	}

	if f {
		s.unblock(v)
	} else {
		for w := range g.Edges[v] {
			m := s.blist[w]
			if m != nil {
				s.blist[w][v] = true
			} else {
				s.blist[w] = map[int]bool{v: true}
			}
		}
	}
	s.stack = s.stack[:len(s.stack)-1]
	return f
}

func sortedNeighbors(g Digraph, v int) []int {
	ws := make([]int, 0, len(g.Edges[v]))
	for w := range g.Edges[v] {
		ws = append(ws, w)
	}
	sort.Ints(ws)
	return ws
}
