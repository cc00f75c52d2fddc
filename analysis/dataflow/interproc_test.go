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
	"testing"

	"github.com/awslabs/flow-go-tools/analysis/ir"
)

// identityFn is: func id(v) { return v }
func identityFn(t *testing.T) *ir.Function {
	b := ir.NewFunctionBuilder("id", "r1")
	v := b.NewParam("v", false)
	b0 := b.NewBlock()
	ret := ir.PlaceOperand(ir.Var(v))
	b.Return(b0, &ret)
	return mustFinish(t, b)
}

// storeFn is: func store(p, v) { *p = v }
func storeFn(t *testing.T) *ir.Function {
	b := ir.NewFunctionBuilder("store", "r1")
	p := b.NewParam("p", true)
	v := b.NewParam("v", false)
	b0 := b.NewBlock()
	b.Assign(b0, ir.DerefOf(ir.Var(p)), ir.PlaceOperand(ir.Var(v)))
	b.Return(b0, nil)
	return mustFinish(t, b)
}

func hasCrossEdge(l *LinkedGraph, from, to GlobalNode, kind EdgeKind) bool {
	for _, e := range l.Out(from) {
		if e.To == to && e.Kind == kind {
			return true
		}
	}
	return false
}

func TestReturnValueLinking(t *testing.T) {
	prog := ir.NewProgram()
	prog.AddFunction(identityFn(t))

	b := ir.NewFunctionBuilder("caller", "r1")
	a := b.NewParam("a", false)
	z := b.NewVar("z", false)
	b0 := b.NewBlock()
	b1 := b.NewBlock()
	dest := ir.Var(z)
	b.Call(b0, "id", []ir.Operand{ir.PlaceOperand(ir.Var(a))}, &dest, b1)
	b.Return(b1, nil)
	caller := mustFinish(t, b)
	prog.AddFunction(caller)

	s := testState(prog)
	lg, err := NewLinker(s).Link("caller")
	if err != nil {
		t.Fatal(err)
	}

	cg := lg.Graph("caller")
	callee := lg.Graph("id")
	cs := cg.Calls()[0]
	if !cs.Resolved {
		t.Fatalf("callee should resolve")
	}

	argPass := hasCrossEdge(lg,
		GlobalNode{Fn: "caller", Node: cs.Args[0]},
		GlobalNode{Fn: "id", Node: callee.Params()[0]}, EdgeArgumentPass)
	if !argPass {
		t.Errorf("missing argument-pass edge into the callee parameter")
	}
	if len(callee.Returns()) != 1 {
		t.Fatalf("callee should have one return read")
	}
	retEdge := hasCrossEdge(lg,
		GlobalNode{Fn: "id", Node: callee.Returns()[0]},
		GlobalNode{Fn: "caller", Node: cs.Result}, EdgeReturnValue)
	if !retEdge {
		t.Errorf("missing return-value edge into the call result")
	}
	// Resolved calls get no local argument-to-result shortcut.
	if hasEdge(cg, cs.Args[0], cs.Result, EdgeData) {
		t.Errorf("resolved call should rely on the precise interprocedural edges")
	}
}

func TestMutationLinking(t *testing.T) {
	prog := ir.NewProgram()
	prog.AddFunction(storeFn(t))

	b := ir.NewFunctionBuilder("caller", "r1")
	a := b.NewParam("a", false)
	x := b.NewVar("x", false)
	r := b.NewVar("r", true)
	y := b.NewVar("y", false)
	b0 := b.NewBlock()
	b1 := b.NewBlock()
	b.Assign(b0, ir.Var(x), ir.ConstOperand())
	b.Borrow(b0, ir.Var(r), ir.Var(x), true)
	b.Call(b0, "store", []ir.Operand{
		ir.PlaceOperand(ir.Var(r)),
		ir.PlaceOperand(ir.Var(a)),
	}, nil, b1)
	b.Assign(b1, ir.Var(y), ir.PlaceOperand(ir.Var(x)))
	b.Return(b1, nil)
	caller := mustFinish(t, b)
	prog.AddFunction(caller)

	s := testState(prog)
	lg, err := NewLinker(s).Link("caller")
	if err != nil {
		t.Fatal(err)
	}

	cg := lg.Graph("caller")
	callee := lg.Graph("store")
	cs := cg.Calls()[0]

	writes := callee.MutatedParams(0)
	if len(writes) != 1 {
		t.Fatalf("store should report one write through its reference parameter, got %d", len(writes))
	}
	mutEdge := hasCrossEdge(lg,
		GlobalNode{Fn: "store", Node: writes[0]},
		GlobalNode{Fn: "caller", Node: cs.ArgMutations[0]}, EdgeData)
	if !mutEdge {
		t.Errorf("callee's write through p should reach the caller's mutation node")
	}

	// Inside the caller, the mutation reaches the later read of x.
	readX := mustNode(t, cg, ir.Var(x), ir.ProgramPoint{Block: 1, Index: 0})
	if !hasEdge(cg, cs.ArgMutations[0], readX, EdgeData) {
		t.Errorf("the by-reference mutation should reach the read of x after the call")
	}
}

func TestUnresolvedCalleeHasNoCrossEdges(t *testing.T) {
	prog := ir.NewProgram()
	b := ir.NewFunctionBuilder("caller", "r1")
	a := b.NewParam("a", false)
	z := b.NewVar("z", false)
	b0 := b.NewBlock()
	b1 := b.NewBlock()
	dest := ir.Var(z)
	b.Call(b0, "missing", []ir.Operand{ir.PlaceOperand(ir.Var(a))}, &dest, b1)
	b.Return(b1, nil)
	prog.AddFunction(mustFinish(t, b))

	lg, err := NewLinker(testState(prog)).Link("caller")
	if err != nil {
		t.Fatal(err)
	}
	if lg.NumCrossEdges() != 0 {
		t.Errorf("unresolved callees contribute no interprocedural edges")
	}
	cs := lg.Graph("caller").Calls()[0]
	if cs.Resolved {
		t.Errorf("missing callee should be unresolved")
	}
	// The opaque approximation was applied locally at build time.
	if !hasEdge(lg.Graph("caller"), cs.Args[0], cs.Result, EdgeData) {
		t.Errorf("unresolved call should connect arguments to its result locally")
	}
}

// recursiveFn is: func rec(n) { if n { z = rec(n) }; return n }
func recursiveFn(t *testing.T) *ir.Function {
	b := ir.NewFunctionBuilder("rec", "r1")
	n := b.NewParam("n", false)
	z := b.NewVar("z", false)
	b0 := b.NewBlock()
	b1 := b.NewBlock()
	b2 := b.NewBlock()
	b.Branch(b0, ir.PlaceOperand(ir.Var(n)), b1, b2)
	dest := ir.Var(z)
	b.Call(b1, "rec", []ir.Operand{ir.PlaceOperand(ir.Var(n))}, &dest, b2)
	ret := ir.PlaceOperand(ir.Var(n))
	b.Return(b2, &ret)
	return mustFinish(t, b)
}

func TestRecursionLinkedPrecisely(t *testing.T) {
	prog := ir.NewProgram()
	prog.AddFunction(recursiveFn(t))

	lg, err := NewLinker(testState(prog)).Link("rec")
	if err != nil {
		t.Fatal(err)
	}
	g := lg.Graph("rec")
	cs := g.Calls()[0]
	if !hasCrossEdge(lg,
		GlobalNode{Fn: "rec", Node: cs.Args[0]},
		GlobalNode{Fn: "rec", Node: g.Params()[0]}, EdgeArgumentPass) {
		t.Errorf("within the depth budget the recursive call links precisely")
	}
}

func TestRecursionBudgetFallsBackToOpaque(t *testing.T) {
	prog := ir.NewProgram()
	prog.AddFunction(recursiveFn(t))

	s := testState(prog)
	s.Config.RecursionMaxDepth = 0

	lg, err := NewLinker(s).Link("rec")
	if err != nil {
		t.Fatal(err)
	}
	g := lg.Graph("rec")
	cs := g.Calls()[0]
	if hasCrossEdge(lg,
		GlobalNode{Fn: "rec", Node: cs.Args[0]},
		GlobalNode{Fn: "rec", Node: g.Params()[0]}, EdgeArgumentPass) {
		t.Errorf("an exhausted budget must not link into the callee")
	}
	if !hasCrossEdge(lg,
		GlobalNode{Fn: "rec", Node: cs.Args[0]},
		GlobalNode{Fn: "rec", Node: cs.Result}, EdgeData) {
		t.Errorf("the opaque approximation should connect the argument to the result")
	}
}

func TestMutualRecursionTerminates(t *testing.T) {
	prog := ir.NewProgram()
	for _, pair := range [][2]ir.FuncID{{"even", "odd"}, {"odd", "even"}} {
		b := ir.NewFunctionBuilder(pair[0], "r1")
		n := b.NewParam("n", false)
		z := b.NewVar("z", false)
		b0 := b.NewBlock()
		b1 := b.NewBlock()
		b2 := b.NewBlock()
		b.Branch(b0, ir.PlaceOperand(ir.Var(n)), b1, b2)
		dest := ir.Var(z)
		b.Call(b1, pair[1], []ir.Operand{ir.PlaceOperand(ir.Var(n))}, &dest, b2)
		ret := ir.PlaceOperand(ir.Var(z))
		b.Return(b2, &ret)
		prog.AddFunction(mustFinish(t, b))
	}

	lg, err := NewLinker(testState(prog)).Link("even")
	if err != nil {
		t.Fatal(err)
	}
	if len(lg.Functions()) != 2 {
		t.Fatalf("both functions should be linked, got %v", lg.Functions())
	}
}

func TestLinkUnresolvedRoot(t *testing.T) {
	if _, err := NewLinker(testState(ir.NewProgram())).Link("nowhere"); err == nil {
		t.Fatalf("linking an unresolvable root should fail")
	}
}
