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
	"golang.org/x/tools/container/intsets"

	"github.com/awslabs/flow-go-tools/analysis/cfg"
	"github.com/awslabs/flow-go-tools/analysis/ir"
	"github.com/awslabs/flow-go-tools/internal/funcutil"
)

// writerState maps each deref-free place to the graph nodes that may have
// written it last. It is the fact the forward fixed point propagates along
// the CFG; joins at block entry are unions per place.
type writerState map[ir.PlaceID]*intsets.Sparse

func cloneState(st writerState) writerState {
	out := make(writerState, len(st))
	for pid, set := range st {
		c := &intsets.Sparse{}
		c.Copy(set)
		out[pid] = c
	}
	return out
}

// mergeInto unions src into dst per place, allocating sets as needed.
func mergeInto(dst, src writerState) {
	for pid, set := range src {
		d, ok := dst[pid]
		if !ok {
			d = &intsets.Sparse{}
			dst[pid] = d
		}
		d.UnionWith(set)
	}
}

func statesEqual(a, b writerState) bool {
	if len(a) != len(b) {
		return false
	}
	for pid, set := range a {
		other, ok := b[pid]
		if !ok || !set.Equals(other) {
			return false
		}
	}
	return true
}

// builder constructs one FunctionGraph. It is single-use.
type builder struct {
	state *State
	fn    *ir.Function
	view  *cfg.View
	cdeps *cfg.ControlDeps
	g     *FunctionGraph

	// paramPos maps a parameter variable to its position
	paramPos map[ir.VarID]int

	// refParams lists the positions of reference-typed parameters, sorted
	refParams []int

	returnsSet map[NodeID]bool
	mutSet     map[int]map[NodeID]bool

	// ctrl caches, per block, the branch-condition nodes controlling it
	ctrl map[ir.BlockID][]NodeID
}

// BuildGraph constructs the dependence graph of fn under state's
// configuration. It validates fn first and returns a *ir.MalformedError
// wrapped in the result when the IR violates its input contract.
//
// Construction is deterministic: the same function and configuration always
// produce a structurally identical graph.
func BuildGraph(state *State, fn *ir.Function) (*FunctionGraph, error) {
	view, err := cfg.NewView(fn)
	if err != nil {
		return nil, err
	}
	b := &builder{
		state:      state,
		fn:         fn,
		view:       view,
		cdeps:      cfg.ComputeControlDeps(view),
		g:          NewFunctionGraph(fn),
		paramPos:   map[ir.VarID]int{},
		returnsSet: map[NodeID]bool{},
		mutSet:     map[int]map[NodeID]bool{},
		ctrl:       map[ir.BlockID][]NodeID{},
	}
	for i, v := range fn.Params {
		b.paramPos[v] = i
		if fn.VarIsRef(v) {
			b.refParams = append(b.refParams, i)
		}
	}

	b.recordBorrows()
	b.run()
	b.finalize()

	if state.Config.ReportStatistics {
		ComputeStats(b.g).Report(state.Logger, string(fn.Name))
	}
	return b.g, nil
}

// recordBorrows walks the reachable blocks once, before the fixed point,
// registering borrows and escapes with the alias tracker. Alias sets are
// flow-insensitive, so a single pass suffices.
func (b *builder) recordBorrows() {
	for _, blk := range b.view.ReversePostorder() {
		block := &b.fn.Blocks[blk]
		for i, stmt := range block.Stmts {
			point := ir.ProgramPoint{Block: blk, Index: i}
			switch {
			case stmt.Kind == ir.StmtBorrow:
				b.g.Aliases.RecordBorrow(stmt.Dest, stmt.Target, point)
			case stmt.Opaque:
				// An opaque operation may fabricate or leak references; every
				// reference place it touches loses its alias set.
				b.escapeIfRef(stmt.Dest)
				for _, use := range stmt.Uses {
					if use.IsPlace() {
						b.escapeIfRef(use.Place)
					}
				}
			}
		}
		term := &block.Term
		if term.Kind == ir.TermCall {
			if _, ok := b.state.resolve(term.Callee); !ok {
				for _, arg := range term.Args {
					if arg.IsPlace() {
						b.escapeIfRef(arg.Place)
					}
				}
				if term.HasDest {
					b.escapeIfRef(term.Dest)
				}
			}
		}
	}
}

// escapeIfRef marks p as escaped when it is a bare reference variable.
// Reference-ness is a property of variables in this IR, not of projected
// places, so a reference reachable only through a projection (a ref stored
// in a struct field) has no alias set to invalidate here; reads and writes
// through such a place already resolve conservatively.
func (b *builder) escapeIfRef(p ir.Place) {
	if len(p.Projection) == 0 && b.fn.VarIsRef(p.Base) {
		b.g.Aliases.MarkEscaped(p)
	}
}

// run executes the forward fixed point over the reachable blocks in reverse
// postorder, bounded by the loop iteration budget. Transfer functions are
// monotone in their input, so edges added in earlier rounds remain valid at
// the fixed point.
func (b *builder) run() {
	entry := writerState{}
	for _, v := range b.fn.Params {
		pid := b.g.Places.Intern(ir.Var(v))
		nid := b.g.node(pid, ir.EntryPoint())
		b.g.params = append(b.g.params, nid)
		set := &intsets.Sparse{}
		set.Insert(int(nid))
		entry[pid] = set
	}

	blockOut := make([]writerState, len(b.fn.Blocks))
	for iter := 0; iter < b.state.Config.LoopMaxIterations; iter++ {
		changed := false
		for _, blk := range b.view.ReversePostorder() {
			var in writerState
			if blk == b.fn.Entry() {
				in = cloneState(entry)
			} else {
				in = writerState{}
			}
			for _, pred := range b.view.Preds(blk) {
				if blockOut[pred] != nil {
					mergeInto(in, blockOut[pred])
				}
			}
			out := b.processBlock(blk, in)
			if blockOut[blk] == nil || !statesEqual(blockOut[blk], out) {
				blockOut[blk] = out
				changed = true
			}
		}
		if !changed {
			b.state.Logger.Debugf("%s: fixed point after %d rounds", b.fn.Name, iter+1)
			return
		}
	}
	b.state.Logger.Warnf("%s: loop iteration budget exhausted before fixed point", b.fn.Name)
}

// ctrlNodes returns the branch-condition nodes controlling block blk. Every
// node created at a point inside blk receives a control edge from each.
func (b *builder) ctrlNodes(blk ir.BlockID) []NodeID {
	if ids, ok := b.ctrl[blk]; ok {
		return ids
	}
	var ids []NodeID
	for _, br := range b.cdeps.BranchesFor(blk) {
		term := &b.fn.Blocks[br].Term
		if term.Kind == ir.TermBranch && term.Cond.IsPlace() {
			pid := b.g.Places.Intern(term.Cond.Place)
			ids = append(ids, b.g.node(pid, b.fn.TerminatorPoint(br)))
		}
	}
	b.ctrl[blk] = ids
	return ids
}

// makeNode interns the (place, point) observation and attaches the control
// edges owed by the point's block.
func (b *builder) makeNode(p ir.Place, point ir.ProgramPoint) NodeID {
	id := b.g.node(b.g.Places.Intern(p), point)
	for _, c := range b.ctrlNodes(point.Block) {
		if c != id {
			b.g.addEdge(c, id, EdgeControl)
		}
	}
	return id
}

// edgesFromWriters draws data edges into `to` from every recorded writer of
// a place overlapping the deref-free place p.
func (b *builder) edgesFromWriters(st writerState, p ir.Place, to NodeID) {
	for _, pid := range funcutil.SortedKeys(st) {
		q := b.g.Places.Place(pid)
		if !p.IsPrefixOf(q) && !q.IsPrefixOf(p) {
			continue
		}
		for _, w := range st[pid].AppendTo(nil) {
			if NodeID(w) != to {
				b.g.addEdge(NodeID(w), to, EdgeData)
			}
		}
	}
}

// edgesFromAllWriters draws data edges into `to` from every writer in st.
// This is the universal-alias fallback.
func (b *builder) edgesFromAllWriters(st writerState, to NodeID) {
	for _, pid := range funcutil.SortedKeys(st) {
		for _, w := range st[pid].AppendTo(nil) {
			if NodeID(w) != to {
				b.g.addEdge(NodeID(w), to, EdgeData)
			}
		}
	}
}

// readPlace materializes the observation of p at point and draws data edges
// from the writers p's value may come from. Reads through a reference also
// depend on the reference's own value.
func (b *builder) readPlace(st writerState, p ir.Place, point ir.ProgramPoint) NodeID {
	rid := b.makeNode(p, point)
	if !p.HasDeref() {
		b.edgesFromWriters(st, p, rid)
		return rid
	}
	ref, _, _ := p.RefPrefix()
	b.edgesFromWriters(st, ref, rid)
	targets, universal := b.g.Aliases.ResolvePlace(p, point)
	if universal {
		b.edgesFromAllWriters(st, rid)
		return rid
	}
	for _, t := range targets {
		b.edgesFromWriters(st, b.g.Places.Place(t), rid)
	}
	return rid
}

// applyWrite updates st for a write of node wid to the deref-free place p.
// A strong write replaces the writers of p and of every place under it; a
// weak write adds wid alongside them. Proper prefixes of p are always
// updated weakly, since writing a part modifies the whole only partially.
func (b *builder) applyWrite(st writerState, p ir.Place, wid NodeID, strong bool) {
	for _, pid := range funcutil.SortedKeys(st) {
		q := b.g.Places.Place(pid)
		switch {
		case p.IsPrefixOf(q):
			if strong {
				st[pid].Clear()
			}
			st[pid].Insert(int(wid))
		case q.IsPrefixOf(p):
			st[pid].Insert(int(wid))
		}
	}
	exact := b.g.Places.Intern(p)
	set, ok := st[exact]
	if !ok {
		set = &intsets.Sparse{}
		st[exact] = set
	} else if strong {
		set.Clear()
	}
	set.Insert(int(wid))
}

// recordParamMutation marks wid as a caller-visible write through the
// reference parameter at position pos.
func (b *builder) recordParamMutation(pos int, wid NodeID) {
	set, ok := b.mutSet[pos]
	if !ok {
		set = map[NodeID]bool{}
		b.mutSet[pos] = set
	}
	set[wid] = true
}

// writeEffects applies the state updates of a write of node wid to place p.
// For writes through a reference, the write lands on every place the
// reference may denote: a single known target is overwritten strongly, more
// than one only weakly, and an unresolvable reference taints every tracked
// place. Writes through reference parameters are recorded as caller-visible
// mutations.
func (b *builder) writeEffects(st writerState, p ir.Place, point ir.ProgramPoint, wid NodeID) {
	if !p.HasDeref() {
		b.applyWrite(st, p, wid, true)
		return
	}
	ref, _, _ := p.RefPrefix()
	// the reference's value selects the write target
	b.edgesFromWriters(st, ref, wid)
	if pos, ok := b.paramPos[ref.Base]; ok && len(ref.Projection) == 0 && b.fn.VarIsRef(ref.Base) {
		b.recordParamMutation(pos, wid)
	}

	targets, universal := b.g.Aliases.ResolvePlace(p, point)
	if universal {
		for _, pid := range funcutil.SortedKeys(st) {
			st[pid].Insert(int(wid))
		}
		for _, pos := range b.refParams {
			b.recordParamMutation(pos, wid)
		}
		return
	}
	strong := len(targets) == 1
	for _, t := range targets {
		b.applyWrite(st, b.g.Places.Place(t), wid, strong)
	}
}

// writePlace materializes the write of p at point, with data edges from
// deps, and applies its state effects.
func (b *builder) writePlace(st writerState, p ir.Place, point ir.ProgramPoint, deps []NodeID) NodeID {
	wid := b.makeNode(p, point)
	for _, d := range deps {
		if d != InvalidNode && d != wid {
			b.g.addEdge(d, wid, EdgeData)
		}
	}
	b.writeEffects(st, p, point, wid)
	return wid
}

// processBlock interprets the statements and terminator of blk over the
// entry state in, creating nodes and edges as it goes, and returns the exit
// state. in is consumed.
func (b *builder) processBlock(blk ir.BlockID, in writerState) writerState {
	st := in
	block := &b.fn.Blocks[blk]
	for i := range block.Stmts {
		stmt := &block.Stmts[i]
		point := ir.ProgramPoint{Block: blk, Index: i}
		var deps []NodeID
		switch stmt.Kind {
		case ir.StmtAssign:
			for _, use := range stmt.Uses {
				if use.IsPlace() {
					deps = append(deps, b.readPlace(st, use.Place, point))
				}
			}
		case ir.StmtBorrow:
			deps = append(deps, b.readPlace(st, stmt.Target, point))
		}
		b.writePlace(st, stmt.Dest, point, deps)
	}

	term := &block.Term
	point := b.fn.TerminatorPoint(blk)
	switch term.Kind {
	case ir.TermBranch:
		if term.Cond.IsPlace() {
			b.readPlace(st, term.Cond.Place, point)
		}
	case ir.TermReturn:
		if term.Value != nil && term.Value.IsPlace() {
			b.returnsSet[b.readPlace(st, term.Value.Place, point)] = true
		}
	case ir.TermCall:
		b.processCall(st, term, point)
	}
	return st
}

// processCall models a call terminator: argument reads, the result write,
// and one mutation node per reference argument standing for the callee's
// possible write through it. When the callee's body is unavailable the
// opaque approximation connects every argument to the result and to every
// mutation; resolved callees get their precise edges from the linker.
func (b *builder) processCall(st writerState, term *ir.Terminator, point ir.ProgramPoint) {
	_, resolved := b.state.resolve(term.Callee)

	args := make([]NodeID, len(term.Args))
	for i, arg := range term.Args {
		if arg.IsPlace() {
			args[i] = b.readPlace(st, arg.Place, point)
		} else {
			args[i] = InvalidNode
		}
	}

	mutations := make([]NodeID, len(term.Args))
	for i := range mutations {
		mutations[i] = InvalidNode
	}
	for i, arg := range term.Args {
		if !arg.IsPlace() || !b.fn.VarIsRef(arg.Place.Base) || arg.Place.HasDeref() {
			continue
		}
		target := ir.DerefOf(arg.Place)
		mid := b.makeNode(target, point)
		if args[i] != InvalidNode && args[i] != mid {
			b.g.addEdge(args[i], mid, EdgeData)
		}
		if !resolved {
			for _, a := range args {
				if a != InvalidNode && a != mid {
					b.g.addEdge(a, mid, EdgeData)
				}
			}
		}
		b.writeEffects(st, target, point, mid)
		mutations[i] = mid
	}

	result := InvalidNode
	if term.HasDest {
		var deps []NodeID
		if !resolved {
			deps = args
		}
		result = b.writePlace(st, term.Dest, point, deps)
	}

	b.g.calls[point] = &CallSite{
		Point:        point,
		Callee:       term.Callee,
		Resolved:     resolved,
		Args:         args,
		Result:       result,
		ArgMutations: mutations,
	}
}

// finalize freezes the builder's accumulators into the graph.
func (b *builder) finalize() {
	b.g.returns = funcutil.SortedKeys(b.returnsSet)
	for pos, set := range b.mutSet {
		b.g.mutatedParams[pos] = funcutil.SortedKeys(set)
	}
	b.g.Constructed = true
	b.state.Logger.Debugf("%s: %d nodes, %d edges, %d borrows",
		b.fn.Name, b.g.NumNodes(), b.g.NumEdges(), b.g.Aliases.NumBorrows())
}
