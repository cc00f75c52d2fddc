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

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// A VarID identifies a local variable or parameter of a function. It indexes
// into Function.Vars.
type VarID int

// A BlockID identifies a basic block of a function. It indexes into
// Function.Blocks. The entry block is always block 0.
type BlockID int

// A FuncID identifies a function of a program. Function identities are the
// unit of caching and call resolution.
type FuncID string

// A Variable is a local variable declaration. Reference-typed variables are
// the only variables the aliasing layer tracks borrows through.
type Variable struct {
	// Name of the variable, for reporting only
	Name string

	// IsRef is true when the variable has a reference (pointer) type
	IsRef bool
}

// OperandKind discriminates the kinds of operands appearing in statements.
type OperandKind int

const (
	// OperandPlace is an operand that reads a place
	OperandPlace OperandKind = iota

	// OperandConst is a constant operand; constants carry no dependence
	OperandConst
)

// An Operand is a value read by a statement or terminator: either a place or
// a constant.
type Operand struct {
	Kind  OperandKind
	Place Place
}

// PlaceOperand returns an operand reading place p.
func PlaceOperand(p Place) Operand {
	return Operand{Kind: OperandPlace, Place: p}
}

// ConstOperand returns a constant operand.
func ConstOperand() Operand {
	return Operand{Kind: OperandConst}
}

// IsPlace returns true when the operand reads a place.
func (o Operand) IsPlace() bool {
	return o.Kind == OperandPlace
}

// StmtKind discriminates the kinds of statements.
type StmtKind int

const (
	// StmtAssign computes a value from Uses and stores it into Dest
	StmtAssign StmtKind = iota

	// StmtBorrow creates a reference to Target and stores it into Dest
	StmtBorrow
)

// A Statement is a non-terminator instruction of a basic block.
//
// An assignment with Opaque set models an operation whose memory behavior
// cannot be recovered (raw pointer casts, unions, inline low-level memory
// operations). The analyses treat the places involved as conflicting with
// everything rather than failing.
type Statement struct {
	Kind StmtKind

	// Dest is the place written by the statement
	Dest Place

	// Uses are the operands read by an assignment
	Uses []Operand

	// Target is the place borrowed by a StmtBorrow
	Target Place

	// Mutable is true when a StmtBorrow creates a mutable reference
	Mutable bool

	// Opaque marks a statement involving unresolved indirection
	Opaque bool
}

// TermKind discriminates the kinds of block terminators.
type TermKind int

const (
	// TermGoto jumps unconditionally to Targets[0]
	TermGoto TermKind = iota

	// TermBranch evaluates Cond and jumps to one of Targets
	TermBranch

	// TermCall calls Callee with Args, stores the result into Dest when
	// HasDest is set, and continues at Targets[0] when present
	TermCall

	// TermReturn returns Value (nil for unit returns) to the caller
	TermReturn
)

// A Terminator ends a basic block.
type Terminator struct {
	Kind TermKind

	// Targets are the successor blocks. A goto has exactly one, a branch at
	// least two, a call at most one, a return none.
	Targets []BlockID

	// Cond is the branch condition operand
	Cond Operand

	// Callee is the symbolic call target, resolved through a Resolver
	Callee FuncID

	// Args are the call arguments
	Args []Operand

	// Dest is the place receiving the call result when HasDest is set
	Dest    Place
	HasDest bool

	// Value is the returned operand; nil when the function returns nothing
	Value *Operand
}

// A BasicBlock is a straight-line sequence of statements ended by a
// terminator.
type BasicBlock struct {
	Stmts []Statement
	Term  Terminator
}

// A Function is the per-function IR consumed by the analyses. Block 0 is the
// entry block. Functions handed to the analyses must pass Validate; they are
// never mutated afterwards.
type Function struct {
	// Name is the identity of the function inside its program
	Name FuncID

	// Revision identifies the version of the IR this function was produced
	// from. The per-function cache is keyed on (Name, Revision).
	Revision string

	// Params lists the parameter variables, in declaration order
	Params []VarID

	// Vars declares all variables of the function, indexed by VarID
	Vars []Variable

	// Blocks holds the basic blocks, indexed by BlockID
	Blocks []BasicBlock
}

// Entry returns the entry block of the function.
func (f *Function) Entry() BlockID { return 0 }

// TerminatorPoint returns the program point of block b's terminator.
func (f *Function) TerminatorPoint(b BlockID) ProgramPoint {
	return ProgramPoint{Block: b, Index: len(f.Blocks[b].Stmts)}
}

// IsTerminator reports whether p designates a terminator position in f.
func (f *Function) IsTerminator(p ProgramPoint) bool {
	return int(p.Block) < len(f.Blocks) && p.Index == len(f.Blocks[p.Block].Stmts)
}

// VarIsRef reports whether v is a reference-typed variable of f.
func (f *Function) VarIsRef(v VarID) bool {
	return int(v) >= 0 && int(v) < len(f.Vars) && f.Vars[v].IsRef
}

// A Resolver maps a call's symbolic target to the IR of its callee, or
// reports the callee as external/unresolved.
type Resolver interface {
	// ResolveCall returns the IR of the named function. The second return
	// value is false when the callee is external or unresolved, in which
	// case callers must apply the opaque-call approximation.
	ResolveCall(callee FuncID) (*Function, bool)
}

// A Program is a set of functions and the default Resolver implementation.
type Program struct {
	funcs map[FuncID]*Function
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{funcs: map[FuncID]*Function{}}
}

// AddFunction registers f in the program, replacing any previous function
// with the same name.
func (p *Program) AddFunction(f *Function) {
	p.funcs[f.Name] = f
}

// ResolveCall implements Resolver.
func (p *Program) ResolveCall(callee FuncID) (*Function, bool) {
	f, ok := p.funcs[callee]
	return f, ok
}

// Function returns the function named id, or nil.
func (p *Program) Function(id FuncID) *Function {
	return p.funcs[id]
}

// Functions returns the functions of the program, sorted by name.
func (p *Program) Functions() []*Function {
	ids := maps.Keys(p.funcs)
	slices.Sort(ids)
	fns := make([]*Function, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, p.funcs[id])
	}
	return fns
}
