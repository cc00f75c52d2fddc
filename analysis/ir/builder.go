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

// A FunctionBuilder incrementally assembles a Function. It is a convenience
// for the frontend layer that lowers source programs into the IR, and for
// tests. Finish validates the assembled function.
type FunctionBuilder struct {
	fn *Function
}

// NewFunctionBuilder returns a builder for a function with the given
// identity and IR revision. The entry block must be the first block created.
func NewFunctionBuilder(name FuncID, revision string) *FunctionBuilder {
	return &FunctionBuilder{fn: &Function{Name: name, Revision: revision}}
}

// NewVar declares a local variable and returns its id.
func (b *FunctionBuilder) NewVar(name string, isRef bool) VarID {
	v := VarID(len(b.fn.Vars))
	b.fn.Vars = append(b.fn.Vars, Variable{Name: name, IsRef: isRef})
	return v
}

// NewParam declares a parameter variable and returns its id.
func (b *FunctionBuilder) NewParam(name string, isRef bool) VarID {
	v := b.NewVar(name, isRef)
	b.fn.Params = append(b.fn.Params, v)
	return v
}

// NewBlock appends an empty basic block and returns its id.
func (b *FunctionBuilder) NewBlock() BlockID {
	id := BlockID(len(b.fn.Blocks))
	b.fn.Blocks = append(b.fn.Blocks, BasicBlock{})
	return id
}

// Assign appends dest = f(uses...) to block blk.
func (b *FunctionBuilder) Assign(blk BlockID, dest Place, uses ...Operand) {
	b.appendStmt(blk, Statement{Kind: StmtAssign, Dest: dest, Uses: uses})
}

// AssignOpaque appends an assignment whose memory behavior involves
// unresolved indirection, such as a raw pointer cast.
func (b *FunctionBuilder) AssignOpaque(blk BlockID, dest Place, uses ...Operand) {
	b.appendStmt(blk, Statement{Kind: StmtAssign, Dest: dest, Uses: uses, Opaque: true})
}

// Borrow appends dest = &target to block blk.
func (b *FunctionBuilder) Borrow(blk BlockID, dest Place, target Place, mutable bool) {
	b.appendStmt(blk, Statement{Kind: StmtBorrow, Dest: dest, Target: target, Mutable: mutable})
}

func (b *FunctionBuilder) appendStmt(blk BlockID, s Statement) {
	b.fn.Blocks[blk].Stmts = append(b.fn.Blocks[blk].Stmts, s)
}

// Goto sets block blk's terminator to an unconditional jump.
func (b *FunctionBuilder) Goto(blk BlockID, target BlockID) {
	b.fn.Blocks[blk].Term = Terminator{Kind: TermGoto, Targets: []BlockID{target}}
}

// Branch sets block blk's terminator to a conditional branch on cond.
func (b *FunctionBuilder) Branch(blk BlockID, cond Operand, targets ...BlockID) {
	b.fn.Blocks[blk].Term = Terminator{Kind: TermBranch, Cond: cond, Targets: targets}
}

// Call sets block blk's terminator to a call of callee. dest may be nil for
// calls whose result is discarded; next is the continuation block.
func (b *FunctionBuilder) Call(blk BlockID, callee FuncID, args []Operand, dest *Place, next BlockID) {
	term := Terminator{Kind: TermCall, Callee: callee, Args: args, Targets: []BlockID{next}}
	if dest != nil {
		term.Dest = *dest
		term.HasDest = true
	}
	b.fn.Blocks[blk].Term = term
}

// Return sets block blk's terminator to a return of value (nil for unit).
func (b *FunctionBuilder) Return(blk BlockID, value *Operand) {
	b.fn.Blocks[blk].Term = Terminator{Kind: TermReturn, Value: value}
}

// Finish validates the assembled function and returns it. The builder must
// not be reused after Finish.
func (b *FunctionBuilder) Finish() (*Function, error) {
	if err := Validate(b.fn); err != nil {
		return nil, err
	}
	return b.fn, nil
}
