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
	"strings"

	"github.com/awslabs/flow-go-tools/analysis/ir"
	"github.com/awslabs/flow-go-tools/internal/funcutil"
	"github.com/awslabs/flow-go-tools/internal/graphutil"
)

// A LinkedGraph is the whole-program dependence graph: the function graphs
// of every function reachable from the root, plus the interprocedural edges
// stitching call sites to callee summaries. It is immutable once Link
// returns.
type LinkedGraph struct {
	// Root is the entry function of the linked program
	Root ir.FuncID

	graphs map[ir.FuncID]*FunctionGraph

	xout map[GlobalNode][]GlobalEdge
	xin  map[GlobalNode][]GlobalEdge
}

// Graph returns the function graph of fn, or nil when fn was not linked.
func (l *LinkedGraph) Graph(fn ir.FuncID) *FunctionGraph { return l.graphs[fn] }

// Functions returns the linked function names, sorted.
func (l *LinkedGraph) Functions() []ir.FuncID { return funcutil.SortedKeys(l.graphs) }

// Out returns the edges leaving n: the local edges of n's function graph
// lifted to global nodes, followed by the interprocedural edges.
func (l *LinkedGraph) Out(n GlobalNode) []GlobalEdge {
	var out []GlobalEdge
	if g := l.graphs[n.Fn]; g != nil {
		for _, e := range g.Out(n.Node) {
			out = append(out, GlobalEdge{
				From: n,
				To:   GlobalNode{Fn: n.Fn, Node: e.To},
				Kind: e.Kind,
			})
		}
	}
	return append(out, l.xout[n]...)
}

// In returns the edges entering n, local edges first.
func (l *LinkedGraph) In(n GlobalNode) []GlobalEdge {
	var in []GlobalEdge
	if g := l.graphs[n.Fn]; g != nil {
		for _, e := range g.In(n.Node) {
			in = append(in, GlobalEdge{
				From: GlobalNode{Fn: n.Fn, Node: e.From},
				To:   n,
				Kind: e.Kind,
			})
		}
	}
	return append(in, l.xin[n]...)
}

// NumCrossEdges returns the number of interprocedural edges.
func (l *LinkedGraph) NumCrossEdges() int {
	n := 0
	for _, es := range l.xout {
		n += len(es)
	}
	return n
}

// A Linker builds LinkedGraphs over a shared analysis state.
type Linker struct {
	state *State
}

// NewLinker returns a linker over state.
func NewLinker(state *State) *Linker {
	return &Linker{state: state}
}

// Link builds the whole-program dependence graph rooted at root.
//
// Call sites whose callee body resolves get precise edges: each argument
// node flows to the callee's parameter node, the callee's returned nodes
// flow to the call result, and the callee's writes through a reference
// parameter flow to the corresponding mutation node at the call site.
//
// Recursion is bounded by the configured depth budget. Functions are
// assigned the minimum number of recursive call edges (edges inside one
// strongly connected component of the call graph) on any path from the
// root; a recursive call from a function already at the budget is linked
// with the opaque approximation instead, so slicing terminates with a
// conservative answer on unbounded recursion.
func (lk *Linker) Link(root ir.FuncID) (*LinkedGraph, error) {
	rootFn, ok := lk.state.resolve(root)
	if !ok {
		return nil, fmt.Errorf("root function %s cannot be resolved", root)
	}

	// Discover the resolvable call graph reachable from the root.
	callees := map[ir.FuncID][]ir.FuncID{}
	fns := map[ir.FuncID]*ir.Function{root: rootFn}
	work := []ir.FuncID{root}
	for len(work) > 0 {
		id := work[0]
		work = work[1:]
		fn := fns[id]
		seen := map[ir.FuncID]bool{}
		for i := range fn.Blocks {
			term := &fn.Blocks[i].Term
			if term.Kind != ir.TermCall || seen[term.Callee] {
				continue
			}
			seen[term.Callee] = true
			callee, ok := lk.state.resolve(term.Callee)
			if !ok {
				continue
			}
			callees[id] = append(callees[id], term.Callee)
			if _, known := fns[term.Callee]; !known {
				fns[term.Callee] = callee
				work = append(work, term.Callee)
			}
		}
	}

	lg := &LinkedGraph{
		Root:   root,
		graphs: map[ir.FuncID]*FunctionGraph{},
		xout:   map[GlobalNode][]GlobalEdge{},
		xin:    map[GlobalNode][]GlobalEdge{},
	}
	ids := funcutil.SortedKeys(fns)
	for _, id := range ids {
		g, err := lk.state.FunctionGraph(fns[id])
		if err != nil {
			return nil, err
		}
		lg.graphs[id] = g
	}

	sccOf := sccIndex(ids, callees)
	depth := lk.recursionDepths(root, ids, callees, sccOf)
	if lk.state.Config.Verbose {
		lk.logRecursiveCycles(ids, callees)
	}

	budget := lk.state.Config.RecursionMaxDepth
	for _, caller := range ids {
		cg := lg.graphs[caller]
		for _, cs := range cg.Calls() {
			if !cs.Resolved {
				continue
			}
			callee, linked := lg.graphs[cs.Callee]
			if !linked {
				continue
			}
			recursive := sccOf[caller] == sccOf[cs.Callee]
			if recursive && depth[caller]+1 > budget {
				lk.state.Logger.Debugf("%s -> %s: recursion budget reached, linking opaquely",
					caller, cs.Callee)
				lg.linkOpaque(caller, cs)
				continue
			}
			lg.linkPrecise(caller, cs, callee)
		}
	}
	lk.state.Logger.Infof("linked %d functions, %d cross edges", len(ids), lg.NumCrossEdges())
	return lg, nil
}

// linkPrecise stitches a resolved call site to its callee's summary.
func (l *LinkedGraph) linkPrecise(caller ir.FuncID, cs *CallSite, callee *FunctionGraph) {
	params := callee.Params()
	for i, arg := range cs.Args {
		if arg == InvalidNode || i >= len(params) {
			continue
		}
		l.addCrossEdge(GlobalNode{Fn: caller, Node: arg},
			GlobalNode{Fn: cs.Callee, Node: params[i]}, EdgeArgumentPass)
	}
	if cs.Result != InvalidNode {
		for _, ret := range callee.Returns() {
			l.addCrossEdge(GlobalNode{Fn: cs.Callee, Node: ret},
				GlobalNode{Fn: caller, Node: cs.Result}, EdgeReturnValue)
		}
	}
	for i, mut := range cs.ArgMutations {
		if mut == InvalidNode {
			continue
		}
		for _, w := range callee.MutatedParams(i) {
			l.addCrossEdge(GlobalNode{Fn: cs.Callee, Node: w},
				GlobalNode{Fn: caller, Node: mut}, EdgeData)
		}
	}
}

// linkOpaque applies the external-call approximation to a resolved call
// site: every argument may influence the result and every reference
// argument's mutation. The edges stay inside the caller's node space but
// are recorded as cross edges so the local graph remains cache-reusable
// across different link roots.
func (l *LinkedGraph) linkOpaque(caller ir.FuncID, cs *CallSite) {
	for _, arg := range cs.Args {
		if arg == InvalidNode {
			continue
		}
		if cs.Result != InvalidNode {
			l.addCrossEdge(GlobalNode{Fn: caller, Node: arg},
				GlobalNode{Fn: caller, Node: cs.Result}, EdgeData)
		}
		for _, mut := range cs.ArgMutations {
			if mut != InvalidNode && mut != arg {
				l.addCrossEdge(GlobalNode{Fn: caller, Node: arg},
					GlobalNode{Fn: caller, Node: mut}, EdgeData)
			}
		}
	}
}

func (l *LinkedGraph) addCrossEdge(from, to GlobalNode, kind EdgeKind) {
	e := GlobalEdge{From: from, To: to, Kind: kind}
	for _, existing := range l.xout[from] {
		if existing == e {
			return
		}
	}
	l.xout[from] = append(l.xout[from], e)
	l.xin[to] = append(l.xin[to], e)
}

// sccIndex maps every function to the index of its strongly connected
// component in the call graph.
func sccIndex(ids []ir.FuncID, callees map[ir.FuncID][]ir.FuncID) map[ir.FuncID]int {
	sccs := graphutil.StronglyConnectedComponents(ids, func(id ir.FuncID) []ir.FuncID {
		return callees[id]
	})
	idx := map[ir.FuncID]int{}
	for i, scc := range sccs {
		for _, id := range scc {
			idx[id] = i
		}
	}
	return idx
}

// recursionDepths assigns each function the minimum number of recursive
// call edges crossed on any call path from the root. Non-recursive edges
// are free; the relaxation runs to a fixed point, which exists because
// depths only decrease and are bounded below by zero.
func (lk *Linker) recursionDepths(root ir.FuncID, ids []ir.FuncID,
	callees map[ir.FuncID][]ir.FuncID, sccOf map[ir.FuncID]int) map[ir.FuncID]int {
	const unreached = int(^uint(0) >> 1)
	depth := map[ir.FuncID]int{}
	for _, id := range ids {
		depth[id] = unreached
	}
	depth[root] = 0
	for changed := true; changed; {
		changed = false
		for _, caller := range ids {
			d := depth[caller]
			if d == unreached {
				continue
			}
			for _, callee := range callees[caller] {
				nd := d
				if sccOf[caller] == sccOf[callee] {
					nd++
				}
				if nd < depth[callee] {
					depth[callee] = nd
					changed = true
				}
			}
		}
	}
	return depth
}

// logRecursiveCycles reports the elementary cycles of the call graph, for
// diagnosing which recursion the depth budget is cutting.
func (lk *Linker) logRecursiveCycles(ids []ir.FuncID, callees map[ir.FuncID][]ir.FuncID) {
	pos := map[ir.FuncID]int{}
	for i, id := range ids {
		pos[id] = i
	}
	dg := graphutil.NewDigraph(len(ids))
	for caller, cs := range callees {
		for _, callee := range cs {
			dg.AddEdge(pos[caller], pos[callee])
		}
	}
	for _, cycle := range graphutil.FindAllElementaryCycles(dg) {
		names := funcutil.Map(cycle, func(i int) string { return string(ids[i]) })
		lk.state.Logger.Infof("recursive call cycle: %s", strings.Join(names, " -> "))
	}
}
