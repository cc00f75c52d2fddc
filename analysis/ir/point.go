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

package ir

import "fmt"

// A ProgramPoint designates a statement or terminator position inside a
// function. Index i < len(block.Stmts) designates statement i; Index ==
// len(block.Stmts) designates the terminator. Points are totally ordered
// within a block and only partially ordered across blocks (through the CFG).
type ProgramPoint struct {
	Block BlockID
	Index int
}

// EntryPoint returns the pseudo-point preceding every instruction of the
// function. Parameter values are considered written at this point.
func EntryPoint() ProgramPoint {
	return ProgramPoint{Block: 0, Index: -1}
}

// Compare orders program points by (block, index). The order is total but
// only meaningful across blocks as a tie-breaking device for deterministic
// output; it is not an execution order.
func (p ProgramPoint) Compare(q ProgramPoint) int {
	if p.Block != q.Block {
		if p.Block < q.Block {
			return -1
		}
		return 1
	}
	if p.Index != q.Index {
		if p.Index < q.Index {
			return -1
		}
		return 1
	}
	return 0
}

func (p ProgramPoint) String() string {
	return fmt.Sprintf("b%d:%d", p.Block, p.Index)
}
