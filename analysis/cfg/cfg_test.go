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

package cfg_test

import (
	"testing"

	"github.com/awslabs/flow-go-tools/analysis/cfg"
	"github.com/awslabs/flow-go-tools/analysis/ir"
)

// diamond builds:
//
//	b0: branch cond -> b1, b2
//	b1: x = 1; goto b3
//	b2: x = 2; goto b3
//	b3: return x
func diamond(t *testing.T) *ir.Function {
	t.Helper()
	b := ir.NewFunctionBuilder("diamond", "r1")
	cond := b.NewParam("cond", false)
	x := b.NewVar("x", false)
	b0 := b.NewBlock()
	b1 := b.NewBlock()
	b2 := b.NewBlock()
	b3 := b.NewBlock()
	b.Branch(b0, ir.PlaceOperand(ir.Var(cond)), b1, b2)
	b.Assign(b1, ir.Var(x), ir.ConstOperand())
	b.Goto(b1, b3)
	b.Assign(b2, ir.Var(x), ir.ConstOperand())
	b.Goto(b2, b3)
	ret := ir.PlaceOperand(ir.Var(x))
	b.Return(b3, &ret)
	fn, err := b.Finish()
	if err != nil {
		t.Fatalf("failed to build function: %s", err)
	}
	return fn
}

func TestDiamondPostDominance(t *testing.T) {
	v, err := cfg.NewView(diamond(t))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if !v.PostDominates(3, 0) {
		t.Errorf("join block should post-dominate the branch")
	}
	if v.PostDominates(1, 0) || v.PostDominates(2, 0) {
		t.Errorf("branch arms must not post-dominate the branch")
	}
	if !v.PostDominates(3, 1) || !v.PostDominates(3, 2) {
		t.Errorf("join block should post-dominate both arms")
	}
}

func TestDiamondControlDeps(t *testing.T) {
	v, err := cfg.NewView(diamond(t))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	deps := cfg.ComputeControlDeps(v)

	for _, arm := range []ir.BlockID{1, 2} {
		got := deps.BranchesFor(arm)
		if len(got) != 1 || got[0] != 0 {
			t.Errorf("block %d should be control-dependent exactly on the branch, got %v", arm, got)
		}
	}
	if len(deps.BranchesFor(0)) != 0 {
		t.Errorf("the entry branch has no control dependence, got %v", deps.BranchesFor(0))
	}
	if len(deps.BranchesFor(3)) != 0 {
		t.Errorf("the join block post-dominates the branch, so it has no control dependence")
	}

	points := deps.BranchPoints(1)
	if len(points) != 1 || points[0].Block != 0 || points[0].Index != 0 {
		t.Errorf("branch point should be the branch terminator, got %v", points)
	}
}

// loop builds:
//
//	b0: goto b1
//	b1: branch cond -> b2, b3
//	b2: x = x; goto b1
//	b3: return
func loop(t *testing.T) *ir.Function {
	t.Helper()
	b := ir.NewFunctionBuilder("loop", "r1")
	cond := b.NewParam("cond", false)
	x := b.NewVar("x", false)
	b0 := b.NewBlock()
	b1 := b.NewBlock()
	b2 := b.NewBlock()
	b3 := b.NewBlock()
	b.Goto(b0, b1)
	b.Branch(b1, ir.PlaceOperand(ir.Var(cond)), b2, b3)
	b.Assign(b2, ir.Var(x), ir.PlaceOperand(ir.Var(x)))
	b.Goto(b2, b1)
	b.Return(b3, nil)
	fn, err := b.Finish()
	if err != nil {
		t.Fatalf("failed to build function: %s", err)
	}
	return fn
}

func TestLoopControlDeps(t *testing.T) {
	v, err := cfg.NewView(loop(t))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	deps := cfg.ComputeControlDeps(v)

	got := deps.BranchesFor(2)
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("the loop body should be control-dependent on the loop header, got %v", got)
	}
	// The header re-executes depending on its own branch.
	got = deps.BranchesFor(1)
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("the loop header should be control-dependent on itself, got %v", got)
	}
	if len(deps.BranchesFor(3)) != 0 {
		t.Errorf("the loop exit post-dominates the header, so it has no control dependence")
	}
}

func TestUnreachableBlocksExcluded(t *testing.T) {
	b := ir.NewFunctionBuilder("unreachable", "r1")
	x := b.NewVar("x", false)
	b0 := b.NewBlock()
	b1 := b.NewBlock() // never targeted
	b.Return(b0, nil)
	b.Assign(b1, ir.Var(x), ir.ConstOperand())
	b.Return(b1, nil)
	fn, err := b.Finish()
	if err != nil {
		t.Fatalf("failed to build function: %s", err)
	}

	v, err := cfg.NewView(fn)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if v.Reachable(1) {
		t.Errorf("block 1 should be unreachable")
	}
	for _, blk := range v.ReversePostorder() {
		if blk == 1 {
			t.Errorf("unreachable blocks must not appear in the traversal order")
		}
	}
}
