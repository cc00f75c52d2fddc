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

package ir_test

import (
	"testing"

	"github.com/awslabs/flow-go-tools/analysis/ir"
)

func TestPlacePrefix(t *testing.T) {
	x := ir.Var(0)
	xf := ir.FieldOf(x, 0)
	xfg := ir.FieldOf(xf, 1)
	y := ir.Var(1)

	if !x.IsPrefixOf(xfg) {
		t.Errorf("%s should be a prefix of %s", x, xfg)
	}
	if xfg.IsPrefixOf(xf) {
		t.Errorf("%s should not be a prefix of %s", xfg, xf)
	}
	if x.IsPrefixOf(y) {
		t.Errorf("places with different bases cannot be prefixes")
	}
	if !xf.IsPrefixOf(xf) {
		t.Errorf("a place is a prefix of itself")
	}
}

func TestPlaceConflicts(t *testing.T) {
	x := ir.Var(0)
	xf := ir.FieldOf(x, 0)
	xg := ir.FieldOf(x, 1)
	y := ir.Var(1)
	deref := ir.DerefOf(ir.Var(2))

	cases := []struct {
		p, q ir.Place
		want bool
	}{
		{x, x, true},       // reflexive
		{x, xf, true},      // prefix overlap
		{xf, x, true},      // symmetric
		{xf, xg, false},    // disjoint fields
		{x, y, false},      // distinct bases
		{deref, xg, true},  // unresolved deref conflicts with everything
		{xg, deref, true},  // and symmetrically
		{deref, deref, true},
	}
	for _, c := range cases {
		if got := ir.Conflicts(c.p, c.q); got != c.want {
			t.Errorf("Conflicts(%s, %s) = %v, want %v", c.p, c.q, got, c.want)
		}
	}
}

func TestPlaceRefPrefix(t *testing.T) {
	p := ir.FieldOf(ir.DerefOf(ir.FieldOf(ir.Var(3), 2)), 4)
	ref, rest, ok := p.RefPrefix()
	if !ok {
		t.Fatalf("expected a dereference in %s", p)
	}
	if !ref.Equal(ir.FieldOf(ir.Var(3), 2)) {
		t.Errorf("wrong reference prefix %s", ref)
	}
	if len(rest) != 1 || rest[0].Kind != ir.ProjField || rest[0].Field != 4 {
		t.Errorf("wrong suffix path %v", rest)
	}

	if _, _, ok := ir.Var(0).RefPrefix(); ok {
		t.Errorf("deref-free place should have no reference prefix")
	}
}

func TestPlaceTableInterning(t *testing.T) {
	pt := ir.NewPlaceTable()
	x := ir.Var(0)
	xf := ir.FieldOf(x, 0)
	xg := ir.FieldOf(x, 1)
	y := ir.Var(1)

	idx := pt.Intern(x)
	if again := pt.Intern(ir.Var(0)); again != idx {
		t.Errorf("interning the same place twice returned different ids")
	}
	idxf := pt.Intern(xf)
	pt.Intern(xg)
	pt.Intern(y)

	if pt.Len() != 4 {
		t.Fatalf("expected 4 interned places, got %d", pt.Len())
	}
	if !pt.Place(idxf).Equal(xf) {
		t.Errorf("Place(Intern(p)) should round-trip")
	}

	conf := pt.Conflicting(xf)
	if len(conf) != 2 { // x and x.0, not x.1 or y
		t.Fatalf("expected 2 conflicting places for %s, got %v", xf, conf)
	}
	for _, id := range conf {
		q := pt.Place(id)
		if !q.Equal(x) && !q.Equal(xf) {
			t.Errorf("unexpected conflicting place %s", q)
		}
	}
}

func TestProgramPointOrder(t *testing.T) {
	a := ir.ProgramPoint{Block: 0, Index: 1}
	b := ir.ProgramPoint{Block: 0, Index: 2}
	c := ir.ProgramPoint{Block: 1, Index: 0}
	if a.Compare(b) >= 0 || b.Compare(c) >= 0 {
		t.Errorf("program points should order by (block, index)")
	}
	if a.Compare(a) != 0 {
		t.Errorf("a point compares equal to itself")
	}
}
