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

// Package slicing answers program slicing queries over linked dependence
// graphs: given seed observations, which program points may have influenced
// them (backward) or may be influenced by them (forward). Traversal is a
// breadth-first walk with a visited set, so it terminates on graphs with
// loop-carried or recursive cycles; results are deduplicated and sorted.
package slicing

import (
	"golang.org/x/exp/slices"

	"github.com/awslabs/flow-go-tools/analysis/dataflow"
	"github.com/awslabs/flow-go-tools/analysis/ir"
)

// Direction selects which way a slice walks the dependence edges.
type Direction int

const (
	// Backward collects the points the seeds may depend on
	Backward Direction = iota

	// Forward collects the points the seeds may influence
	Forward
)

// Scope bounds a slice to one function or the whole linked program.
type Scope int

const (
	// ScopeFunction keeps the slice inside the seed's function; calls are
	// stepped over with the opaque approximation
	ScopeFunction Scope = iota

	// ScopeWholeProgram follows interprocedural edges into callees and
	// callers
	ScopeWholeProgram
)

// A Point is one element of a slice: a program point of a named function.
type Point struct {
	Fn    ir.FuncID
	Point ir.ProgramPoint
}

// A Slicer runs slice queries over one linked graph. Slice and SeedsAt are
// safe for concurrent use; SeedsForPlace may extend a graph's place table
// and must not race with other queries on the same function.
type Slicer struct {
	linked *dataflow.LinkedGraph

	// callAnchors maps the result and mutation nodes of each resolved call
	// site to their site, per function, so function-scoped slices can step
	// over calls without following the precise edges out of the function.
	callAnchors map[ir.FuncID]map[dataflow.NodeID]*dataflow.CallSite
	argAnchors  map[ir.FuncID]map[dataflow.NodeID]*dataflow.CallSite
}

// NewSlicer returns a slicer over lg.
func NewSlicer(lg *dataflow.LinkedGraph) *Slicer {
	s := &Slicer{
		linked:      lg,
		callAnchors: map[ir.FuncID]map[dataflow.NodeID]*dataflow.CallSite{},
		argAnchors:  map[ir.FuncID]map[dataflow.NodeID]*dataflow.CallSite{},
	}
	for _, fn := range lg.Functions() {
		outs := map[dataflow.NodeID]*dataflow.CallSite{}
		ins := map[dataflow.NodeID]*dataflow.CallSite{}
		for _, cs := range lg.Graph(fn).Calls() {
			if !cs.Resolved {
				continue
			}
			if cs.Result != dataflow.InvalidNode {
				outs[cs.Result] = cs
			}
			for _, mut := range cs.ArgMutations {
				if mut != dataflow.InvalidNode {
					outs[mut] = cs
				}
			}
			for _, arg := range cs.Args {
				if arg != dataflow.InvalidNode {
					ins[arg] = cs
				}
			}
		}
		s.callAnchors[fn] = outs
		s.argAnchors[fn] = ins
	}
	return s
}

// Slice returns the program points reachable from the seeds along dependence
// edges in the given direction and scope. The seeds' own points are part of
// the slice; parameter pseudo-points are traversed but not reported.
//
// The result is deterministic: deduplicated and sorted by function, then by
// program point.
func (s *Slicer) Slice(seeds []dataflow.GlobalNode, dir Direction, scope Scope) []Point {
	visited := map[dataflow.GlobalNode]bool{}
	queue := make([]dataflow.GlobalNode, 0, len(seeds))
	for _, seed := range seeds {
		if !visited[seed] {
			visited[seed] = true
			queue = append(queue, seed)
		}
	}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, next := range s.neighbors(n, dir, scope) {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	points := map[Point]bool{}
	for n := range visited {
		g := s.linked.Graph(n.Fn)
		if g == nil {
			continue
		}
		node := g.Node(n.Node)
		if node.Point.Index < 0 {
			continue
		}
		points[Point{Fn: n.Fn, Point: node.Point}] = true
	}

	out := make([]Point, 0, len(points))
	for p := range points {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Point) bool {
		if a.Fn != b.Fn {
			return a.Fn < b.Fn
		}
		return a.Point.Compare(b.Point) < 0
	})
	return out
}

// neighbors returns the nodes one dependence step away from n.
func (s *Slicer) neighbors(n dataflow.GlobalNode, dir Direction, scope Scope) []dataflow.GlobalNode {
	var out []dataflow.GlobalNode
	edges := s.linked.Out(n)
	if dir == Backward {
		edges = s.linked.In(n)
	}
	for _, e := range edges {
		next := e.To
		if dir == Backward {
			next = e.From
		}
		if scope == ScopeFunction && next.Fn != n.Fn {
			continue
		}
		out = append(out, next)
	}
	if scope == ScopeFunction {
		out = append(out, s.opaqueSteps(n, dir)...)
	}
	return out
}

// opaqueSteps substitutes the external-call approximation for the precise
// interprocedural edges a function-scoped slice refuses to follow: backward,
// a call's result or mutation depends on every argument; forward, every
// argument may influence the result and the mutations.
func (s *Slicer) opaqueSteps(n dataflow.GlobalNode, dir Direction) []dataflow.GlobalNode {
	var out []dataflow.GlobalNode
	if dir == Backward {
		if cs, ok := s.callAnchors[n.Fn][n.Node]; ok {
			for _, arg := range cs.Args {
				if arg != dataflow.InvalidNode {
					out = append(out, dataflow.GlobalNode{Fn: n.Fn, Node: arg})
				}
			}
		}
		return out
	}
	if cs, ok := s.argAnchors[n.Fn][n.Node]; ok {
		if cs.Result != dataflow.InvalidNode {
			out = append(out, dataflow.GlobalNode{Fn: n.Fn, Node: cs.Result})
		}
		for _, mut := range cs.ArgMutations {
			if mut != dataflow.InvalidNode {
				out = append(out, dataflow.GlobalNode{Fn: n.Fn, Node: mut})
			}
		}
	}
	return out
}

// SeedsAt returns the seed nodes observing place p at exactly the given
// point of fn, usually zero or one.
func (s *Slicer) SeedsAt(fn ir.FuncID, p ir.Place, point ir.ProgramPoint) []dataflow.GlobalNode {
	g := s.linked.Graph(fn)
	if g == nil {
		return nil
	}
	pid, ok := g.Places.Lookup(p)
	if !ok {
		return nil
	}
	id, ok := g.LookupNode(pid, point)
	if !ok {
		return nil
	}
	return []dataflow.GlobalNode{{Fn: fn, Node: id}}
}

// SeedsForPlace returns every observation of a place overlapping p in fn,
// resolving references through the function's alias information.
func (s *Slicer) SeedsForPlace(fn ir.FuncID, p ir.Place) []dataflow.GlobalNode {
	g := s.linked.Graph(fn)
	if g == nil {
		return nil
	}
	ids := g.NodesForPlace(p)
	out := make([]dataflow.GlobalNode, 0, len(ids))
	for _, id := range ids {
		out = append(out, dataflow.GlobalNode{Fn: fn, Node: id})
	}
	return out
}
