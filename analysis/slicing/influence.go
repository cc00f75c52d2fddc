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

package slicing

import (
	"golang.org/x/exp/slices"

	"github.com/awslabs/flow-go-tools/analysis/dataflow"
	"github.com/awslabs/flow-go-tools/analysis/ir"
)

// DirectInfluence indexes, per function graph, the points that directly
// observe each place: its reads, its writes, and the observations of its
// aliases. It answers the "where is this value touched" question without a
// full slice, and seeds IDE-style highlighting of a variable's uses.
type DirectInfluence struct {
	g *dataflow.FunctionGraph
}

// ComputeDirectInfluence returns the direct-influence index of g.
func ComputeDirectInfluence(g *dataflow.FunctionGraph) *DirectInfluence {
	return &DirectInfluence{g: g}
}

// Observations returns the program points at which a place overlapping p is
// read or written, sorted. Parameter pseudo-points are omitted.
func (d *DirectInfluence) Observations(p ir.Place) []ir.ProgramPoint {
	seen := map[ir.ProgramPoint]bool{}
	var out []ir.ProgramPoint
	for _, id := range d.g.NodesForPlace(p) {
		point := d.g.Node(id).Point
		if point.Index < 0 || seen[point] {
			continue
		}
		seen[point] = true
		out = append(out, point)
	}
	slices.SortFunc(out, func(a, b ir.ProgramPoint) bool {
		return a.Compare(b) < 0
	})
	return out
}

// AffectedBy returns the points whose nodes are one dependence edge
// downstream of any observation of p: the immediate consumers of p's value.
func (d *DirectInfluence) AffectedBy(p ir.Place) []ir.ProgramPoint {
	seen := map[ir.ProgramPoint]bool{}
	var out []ir.ProgramPoint
	for _, id := range d.g.NodesForPlace(p) {
		for _, e := range d.g.Out(id) {
			point := d.g.Node(e.To).Point
			if point.Index < 0 || seen[point] {
				continue
			}
			seen[point] = true
			out = append(out, point)
		}
	}
	slices.SortFunc(out, func(a, b ir.ProgramPoint) bool {
		return a.Compare(b) < 0
	})
	return out
}
