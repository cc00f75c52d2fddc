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

package cfg

import (
	"golang.org/x/exp/slices"

	"github.com/awslabs/flow-go-tools/analysis/ir"
)

// ControlDeps maps every reachable block of a function to the branch blocks
// whose outcome controls whether it executes. A block P depends on branch B
// when B has a successor that does not post-dominate P while some other
// successor does (the Ferrante-Ottenstein-Warren formulation, computed as
// dominance frontiers on the reversed CFG).
type ControlDeps struct {
	view *View
	deps [][]ir.BlockID
}

// ComputeControlDeps derives the control-dependence relation from a CFG
// view. The entry block has no control dependence; unreachable blocks have
// none either, since they produce no analysis results at all.
func ComputeControlDeps(v *View) *ControlDeps {
	c := &ControlDeps{
		view: v,
		deps: make([][]ir.BlockID, len(v.Fn.Blocks)),
	}
	for _, b := range v.ReversePostorder() {
		if len(v.Succs(b)) < 2 {
			continue
		}
		limit, hasLimit := v.ImmediatePostDominator(b)
		for _, s := range v.Succs(b) {
			// Walk the post-dominator tree from the successor up to, but
			// excluding, b's immediate post-dominator. Every block on the
			// way executes or not depending on which successor b takes.
			runner := int64(s)
			for runner >= 0 && runner != v.exitID && !(hasLimit && runner == limit) {
				c.add(ir.BlockID(runner), b)
				next, ok := v.ImmediatePostDominator(ir.BlockID(runner))
				if !ok {
					break
				}
				runner = next
			}
		}
	}
	for i := range c.deps {
		slices.Sort(c.deps[i])
	}
	return c
}

func (c *ControlDeps) add(p, branch ir.BlockID) {
	if !slices.Contains(c.deps[p], branch) {
		c.deps[p] = append(c.deps[p], branch)
	}
}

// BranchesFor returns the branch blocks controlling block b, sorted.
// The returned slice must not be mutated.
func (c *ControlDeps) BranchesFor(b ir.BlockID) []ir.BlockID {
	return c.deps[b]
}

// BranchPoints returns the terminator program points of the branches
// controlling block b. These are the control-edge sources for every node
// created at a point inside b.
func (c *ControlDeps) BranchPoints(b ir.BlockID) []ir.ProgramPoint {
	branches := c.deps[b]
	points := make([]ir.ProgramPoint, 0, len(branches))
	for _, br := range branches {
		points = append(points, c.view.Fn.TerminatorPoint(br))
	}
	return points
}
