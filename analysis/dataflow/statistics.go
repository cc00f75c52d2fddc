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
	"github.com/awslabs/flow-go-tools/analysis/config"
	"github.com/awslabs/flow-go-tools/internal/formatutil"
)

// Stats summarizes one constructed function graph.
type Stats struct {
	Nodes        int
	DataEdges    int
	ControlEdges int
	ArgEdges     int
	RetEdges     int
	Borrows      int
	Calls        int
}

// ComputeStats tallies g's nodes and edges by kind.
func ComputeStats(g *FunctionGraph) Stats {
	s := Stats{
		Nodes:   g.NumNodes(),
		Borrows: g.Aliases.NumBorrows(),
		Calls:   len(g.Calls()),
	}
	for e := range g.edgeSet {
		switch e.Kind {
		case EdgeData:
			s.DataEdges++
		case EdgeControl:
			s.ControlEdges++
		case EdgeArgumentPass:
			s.ArgEdges++
		case EdgeReturnValue:
			s.RetEdges++
		}
	}
	return s
}

// Report logs the statistics under the given name.
func (s Stats) Report(logger *config.LogGroup, name string) {
	logger.Infof("%s: %d nodes, %d data, %d control, %d borrows, %d calls",
		formatutil.Bold(name), s.Nodes, s.DataEdges, s.ControlEdges, s.Borrows, s.Calls)
}
