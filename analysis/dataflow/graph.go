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

package dataflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/awslabs/flow-go-tools/analysis/aliasing"
	"github.com/awslabs/flow-go-tools/analysis/ir"
	"golang.org/x/exp/slices"
)

// A CallSite records a call terminator of the parent function together with
// the graph nodes that anchor its interprocedural edges.
type CallSite struct {
	// Point is the terminator position of the call
	Point ir.ProgramPoint

	// Callee is the name of the called function
	Callee ir.FuncID

	// Resolved reports whether the callee's body was available when the
	// graph was built
	Resolved bool

	// Args holds, per argument position, the node reading the argument, or
	// InvalidNode for constant arguments
	Args []NodeID

	// Result is the node writing the call's destination, or InvalidNode
	// when the result is discarded
	Result NodeID

	// ArgMutations holds, per argument position, the node modeling the
	// callee's possible write through that argument, or InvalidNode for
	// non-reference arguments
	ArgMutations []NodeID
}

// A FunctionGraph is the dependence graph of a single function: nodes are
// (place, point) observations, edges are data and control dependences.
// Graphs are immutable once Constructed is set; the interprocedural layer
// only reads them.
type FunctionGraph struct {
	// Parent is the function this graph was built for
	Parent *ir.Function

	// Places interns every place observed by the graph's nodes
	Places *ir.PlaceTable

	// Aliases is the tracker populated during construction; the slicing
	// layer reuses it to resolve reference queries
	Aliases *aliasing.Tracker

	// Constructed is true once the builder has finished
	Constructed bool

	nodes []DepNode
	index map[DepNode]NodeID
	out   [][]DepEdge
	in    [][]DepEdge

	edgeSet map[DepEdge]bool

	// params[i] is the node holding parameter i's value at function entry
	params []NodeID

	// returns collects the nodes read by return terminators
	returns []NodeID

	// mutatedParams maps a parameter position to the nodes writing through
	// that parameter (directly or through a reference rooted at it)
	mutatedParams map[int][]NodeID

	calls map[ir.ProgramPoint]*CallSite
}

// NewFunctionGraph returns an empty graph for fn. The builder populates it;
// other packages should obtain graphs through State.FunctionGraph.
func NewFunctionGraph(fn *ir.Function) *FunctionGraph {
	places := ir.NewPlaceTable()
	return &FunctionGraph{
		Parent:        fn,
		Places:        places,
		Aliases:       aliasing.NewTracker(places),
		index:         map[DepNode]NodeID{},
		edgeSet:       map[DepEdge]bool{},
		mutatedParams: map[int][]NodeID{},
		calls:         map[ir.ProgramPoint]*CallSite{},
	}
}

// node interns the (place, point) observation and returns its id.
func (g *FunctionGraph) node(place ir.PlaceID, point ir.ProgramPoint) NodeID {
	n := DepNode{Place: place, Point: point}
	if id, ok := g.index[n]; ok {
		return id
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.index[n] = id
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return id
}

// addEdge inserts the edge if it is not already present.
func (g *FunctionGraph) addEdge(from, to NodeID, kind EdgeKind) {
	e := DepEdge{From: from, To: to, Kind: kind}
	if g.edgeSet[e] {
		return
	}
	g.edgeSet[e] = true
	g.out[from] = append(g.out[from], e)
	g.in[to] = append(g.in[to], e)
}

// NumNodes returns the number of nodes in the graph.
func (g *FunctionGraph) NumNodes() int { return len(g.nodes) }

// Node returns the observation behind id.
func (g *FunctionGraph) Node(id NodeID) DepNode { return g.nodes[id] }

// LookupNode returns the id of the (place, point) observation if the graph
// contains it.
func (g *FunctionGraph) LookupNode(place ir.PlaceID, point ir.ProgramPoint) (NodeID, bool) {
	id, ok := g.index[DepNode{Place: place, Point: point}]
	return id, ok
}

// Out returns the edges leaving id. The slice is owned by the graph.
func (g *FunctionGraph) Out(id NodeID) []DepEdge { return g.out[id] }

// In returns the edges entering id. The slice is owned by the graph.
func (g *FunctionGraph) In(id NodeID) []DepEdge { return g.in[id] }

// NumEdges returns the number of distinct edges.
func (g *FunctionGraph) NumEdges() int { return len(g.edgeSet) }

// Params returns the entry nodes of the function's parameters, indexed by
// parameter position.
func (g *FunctionGraph) Params() []NodeID { return g.params }

// Returns returns the nodes read by the function's return terminators.
func (g *FunctionGraph) Returns() []NodeID { return g.returns }

// MutatedParams returns the nodes writing through parameter pos.
func (g *FunctionGraph) MutatedParams(pos int) []NodeID { return g.mutatedParams[pos] }

// Calls returns the function's call sites sorted by program point.
func (g *FunctionGraph) Calls() []*CallSite {
	cs := make([]*CallSite, 0, len(g.calls))
	for _, c := range g.calls {
		cs = append(cs, c)
	}
	slices.SortFunc(cs, func(a, b *CallSite) bool {
		return a.Point.Compare(b.Point) < 0
	})
	return cs
}

// CallAt returns the call site at the given terminator point, if any.
func (g *FunctionGraph) CallAt(point ir.ProgramPoint) (*CallSite, bool) {
	c, ok := g.calls[point]
	return c, ok
}

// NodesForPlace returns every node observing a place that conflicts with p,
// sorted by program point. Reference bases are resolved through the alias
// tracker, so nodes reached through an alias of p are included.
func (g *FunctionGraph) NodesForPlace(p ir.Place) []NodeID {
	targets, universal := g.Aliases.ResolvePlace(p, ir.ProgramPoint{Block: ir.BlockID(len(g.Parent.Blocks)), Index: 0})
	var ids []NodeID
	if universal {
		for id := range g.nodes {
			ids = append(ids, NodeID(id))
		}
	} else {
		seen := map[NodeID]bool{}
		for _, t := range targets {
			for _, c := range g.Places.Conflicting(g.Places.Place(t)) {
				for id, n := range g.nodes {
					if n.Place == c && !seen[NodeID(id)] {
						seen[NodeID(id)] = true
						ids = append(ids, NodeID(id))
					}
				}
			}
		}
	}
	slices.SortFunc(ids, func(a, b NodeID) bool {
		na, nb := g.nodes[a], g.nodes[b]
		if c := na.Point.Compare(nb.Point); c != 0 {
			return c < 0
		}
		return na.Place < nb.Place
	})
	return ids
}

// nodeString renders a node in a form stable across graph constructions.
func (g *FunctionGraph) nodeString(id NodeID) string {
	n := g.nodes[id]
	return fmt.Sprintf("%s@%s", g.Places.Place(n.Place), n.Point)
}

// canonical returns a stable textual rendering of the graph's nodes and
// edges, independent of interning order.
func (g *FunctionGraph) canonical() []string {
	lines := make([]string, 0, len(g.nodes)+len(g.edgeSet))
	for id := range g.nodes {
		lines = append(lines, "node "+g.nodeString(NodeID(id)))
	}
	for e := range g.edgeSet {
		lines = append(lines, fmt.Sprintf("edge %s %s -> %s",
			e.Kind, g.nodeString(e.From), g.nodeString(e.To)))
	}
	sort.Strings(lines)
	return lines
}

// Equal reports structural equality with other: same nodes and same tagged
// edges, regardless of the order either graph was built in.
func (g *FunctionGraph) Equal(other *FunctionGraph) bool {
	if g == other {
		return true
	}
	if other == nil || len(g.nodes) != len(other.nodes) || len(g.edgeSet) != len(other.edgeSet) {
		return false
	}
	a, b := g.canonical(), other.canonical()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (g *FunctionGraph) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "graph %s (%d nodes, %d edges)\n", g.Parent.Name, len(g.nodes), len(g.edgeSet))
	for _, line := range g.canonical() {
		sb.WriteString("  ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}
