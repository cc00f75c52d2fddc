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

	"github.com/awslabs/flow-go-tools/analysis/ir"
)

// A NodeID is the dense index of a DepNode inside its FunctionGraph.
type NodeID int

// InvalidNode marks the absence of a node, such as the result of a call
// whose value is discarded or a constant argument.
const InvalidNode NodeID = -1

// A DepNode is one node of the dependence graph: the value of a place as
// observed at a program point. Nodes are created lazily while the builder
// processes the instructions reading or writing the place, and never
// mutated afterwards.
type DepNode struct {
	// Place is the id of the observed place in the graph's PlaceTable
	Place ir.PlaceID

	// Point is where the place is observed
	Point ir.ProgramPoint
}

// EdgeKind tags a dependence edge.
type EdgeKind uint8

const (
	// EdgeData is a data dependence: the target's value is computed from
	// the source's value
	EdgeData EdgeKind = iota

	// EdgeControl is a control dependence: the branch at the source decides
	// whether the target executes
	EdgeControl

	// EdgeArgumentPass links a call argument to the callee's parameter
	EdgeArgumentPass

	// EdgeReturnValue links a callee's returned value to the call's result
	EdgeReturnValue
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeData:
		return "data"
	case EdgeControl:
		return "control"
	case EdgeArgumentPass:
		return "argpass"
	case EdgeReturnValue:
		return "retval"
	default:
		return fmt.Sprintf("edgekind(%d)", uint8(k))
	}
}

// A DepEdge is a directed, tagged edge between two nodes of the same
// FunctionGraph: the target's value depends on the source's value.
type DepEdge struct {
	From NodeID
	To   NodeID
	Kind EdgeKind
}

// A GlobalNode identifies a node across function graphs, for the
// interprocedural layer.
type GlobalNode struct {
	Fn   ir.FuncID
	Node NodeID
}

// A GlobalEdge is a dependence edge whose endpoints may live in different
// function graphs.
type GlobalEdge struct {
	From GlobalNode
	To   GlobalNode
	Kind EdgeKind
}

func (n GlobalNode) String() string {
	return fmt.Sprintf("%s#%d", n.Fn, n.Node)
}
