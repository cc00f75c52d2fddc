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

// Package cfg wraps the basic-block graph of one ir.Function with the
// queries the dependence analyses need: predecessor and successor sets,
// reverse postorder over reachable blocks, post-dominance, and control
// dependence. Post-dominators are computed with gonum's dominator
// implementation over the reversed CFG augmented with a virtual exit node.
package cfg

import (
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph/flow"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/awslabs/flow-go-tools/analysis/ir"
)

// A View is the immutable control-flow-graph view of one function. It is
// built once per analysis of the function and shared read-only afterwards.
type View struct {
	// Fn is the function the view wraps
	Fn *ir.Function

	preds [][]ir.BlockID
	succs [][]ir.BlockID

	reachable []bool
	order     []ir.BlockID // reverse postorder over reachable blocks

	// exitID is the id of the virtual exit node in the reversed CFG. Block
	// ids map directly to node ids; the exit is one past the last block.
	exitID int64

	// ipdom maps each reachable node id to its immediate post-dominator id,
	// or -1 when the block cannot reach the function exit
	ipdom []int64
}

// NewView validates fn and computes its CFG view. A *ir.MalformedError is
// returned when fn violates the IR input contract.
func NewView(fn *ir.Function) (*View, error) {
	if err := ir.Validate(fn); err != nil {
		return nil, err
	}
	n := len(fn.Blocks)
	v := &View{
		Fn:        fn,
		preds:     make([][]ir.BlockID, n),
		succs:     make([][]ir.BlockID, n),
		reachable: make([]bool, n),
		exitID:    int64(n),
	}
	for i := range fn.Blocks {
		b := ir.BlockID(i)
		for _, t := range fn.Blocks[i].Term.Targets {
			if !slices.Contains(v.succs[b], t) {
				v.succs[b] = append(v.succs[b], t)
				v.preds[t] = append(v.preds[t], b)
			}
		}
	}
	v.computeOrder()
	v.computePostDominators()
	return v, nil
}

// computeOrder marks reachable blocks and fills in the reverse postorder.
func (v *View) computeOrder() {
	var postorder []ir.BlockID
	var visit func(b ir.BlockID)
	visit = func(b ir.BlockID) {
		v.reachable[b] = true
		for _, s := range v.succs[b] {
			if !v.reachable[s] {
				visit(s)
			}
		}
		postorder = append(postorder, b)
	}
	visit(v.Fn.Entry())

	v.order = make([]ir.BlockID, len(postorder))
	for i, b := range postorder {
		v.order[len(postorder)-1-i] = b
	}
}

// computePostDominators runs gonum's dominator algorithm on the reversed
// CFG, rooted at a virtual exit joined to every reachable block that has no
// successors.
func (v *View) computePostDominators() {
	g := simple.NewDirectedGraph()
	g.AddNode(simple.Node(v.exitID))
	for _, b := range v.order {
		if g.Node(int64(b)) == nil {
			g.AddNode(simple.Node(int64(b)))
		}
	}
	for _, b := range v.order {
		for _, s := range v.succs[b] {
			if s == b {
				// Self loops neither create nor destroy post-dominance and
				// simple.DirectedGraph rejects self edges.
				continue
			}
			if v.reachable[s] {
				g.SetEdge(simple.Edge{F: simple.Node(int64(s)), T: simple.Node(int64(b))})
			}
		}
		if len(v.succs[b]) == 0 {
			g.SetEdge(simple.Edge{F: simple.Node(v.exitID), T: simple.Node(int64(b))})
		}
	}

	tree := flow.Dominators(simple.Node(v.exitID), g)

	v.ipdom = make([]int64, len(v.Fn.Blocks)+1)
	for i := range v.ipdom {
		v.ipdom[i] = -1
	}
	for _, b := range v.order {
		if d := tree.DominatorOf(int64(b)); d != nil {
			v.ipdom[b] = d.ID()
		}
	}
}

// Preds returns the predecessor blocks of b.
func (v *View) Preds(b ir.BlockID) []ir.BlockID { return v.preds[b] }

// Succs returns the successor blocks of b.
func (v *View) Succs(b ir.BlockID) []ir.BlockID { return v.succs[b] }

// Reachable reports whether b is reachable from the entry block.
// Unreachable blocks are excluded from every analysis result.
func (v *View) Reachable(b ir.BlockID) bool { return v.reachable[b] }

// ReversePostorder returns the reachable blocks in reverse postorder, so
// that every block appears before its successors except along back edges.
// The returned slice must not be mutated.
func (v *View) ReversePostorder() []ir.BlockID { return v.order }

// ImmediatePostDominator returns the immediate post-dominator of b and true,
// or false when b has none (the virtual exit, or a block that cannot reach
// the function exit).
func (v *View) ImmediatePostDominator(b ir.BlockID) (int64, bool) {
	d := v.ipdom[b]
	return d, d >= 0
}

// PostDominates reports whether block a post-dominates block b: every path
// from b to the function exit passes through a.
func (v *View) PostDominates(a, b ir.BlockID) bool {
	if a == b {
		return true
	}
	cur := int64(b)
	for {
		next := v.ipdom[cur]
		if next < 0 || next == v.exitID {
			return false
		}
		if next == int64(a) {
			return true
		}
		cur = next
	}
}
