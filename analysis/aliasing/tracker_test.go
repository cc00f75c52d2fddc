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

package aliasing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awslabs/flow-go-tools/analysis/aliasing"
	"github.com/awslabs/flow-go-tools/analysis/ir"
)

func TestResolveRecordedBorrow(t *testing.T) {
	table := ir.NewPlaceTable()
	tr := aliasing.NewTracker(table)

	ref := ir.Var(0)
	x := ir.Var(1)
	y := ir.Var(2)
	pt := ir.ProgramPoint{Block: 0, Index: 0}

	tr.RecordBorrow(ref, x, pt)
	set, universal := tr.Resolve(ref, pt)
	require.False(t, universal)
	assert.Equal(t, 1, set.Len())

	// Alias sets grow monotonically as more borrows are observed.
	tr.RecordBorrow(ref, y, ir.ProgramPoint{Block: 0, Index: 1})
	set, universal = tr.Resolve(ref, pt)
	require.False(t, universal)
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, 2, tr.NumBorrows())
}

func TestResolveUnknownReferenceIsUniversal(t *testing.T) {
	table := ir.NewPlaceTable()
	tr := aliasing.NewTracker(table)

	_, universal := tr.Resolve(ir.Var(5), ir.ProgramPoint{})
	assert.True(t, universal, "a reference with no recorded borrow must resolve to the universal set")
}

func TestMarkEscaped(t *testing.T) {
	table := ir.NewPlaceTable()
	tr := aliasing.NewTracker(table)

	ref := ir.Var(0)
	tr.RecordBorrow(ref, ir.Var(1), ir.ProgramPoint{})
	tr.MarkEscaped(ref)

	_, universal := tr.Resolve(ref, ir.ProgramPoint{})
	assert.True(t, universal, "an escaped reference must resolve to the universal set")
}

func TestResolvePlaceConcretizesDerefs(t *testing.T) {
	table := ir.NewPlaceTable()
	tr := aliasing.NewTracker(table)

	ref := ir.Var(0)
	x := ir.Var(1)
	pt := ir.ProgramPoint{}
	tr.RecordBorrow(ref, x, pt)

	// (*ref).f resolves to x.f
	ids, universal := tr.ResolvePlace(ir.FieldOf(ir.DerefOf(ref), 3), pt)
	require.False(t, universal)
	require.Len(t, ids, 1)
	assert.True(t, table.Place(ids[0]).Equal(ir.FieldOf(x, 3)))

	// A deref-free place resolves to itself.
	ids, universal = tr.ResolvePlace(x, pt)
	require.False(t, universal)
	require.Len(t, ids, 1)
	assert.True(t, table.Place(ids[0]).Equal(x))
}

func TestResolvePlaceThroughChainedReferences(t *testing.T) {
	table := ir.NewPlaceTable()
	tr := aliasing.NewTracker(table)

	outer := ir.Var(0) // outer = &inner
	inner := ir.Var(1) // inner = &x
	x := ir.Var(2)
	pt := ir.ProgramPoint{}
	tr.RecordBorrow(outer, inner, pt)
	tr.RecordBorrow(inner, x, pt)

	// (**outer) resolves to x
	ids, universal := tr.ResolvePlace(ir.DerefOf(ir.DerefOf(outer)), pt)
	require.False(t, universal)
	require.Len(t, ids, 1)
	assert.True(t, table.Place(ids[0]).Equal(x))
}

func TestResolvePlaceUnresolvableIsUniversal(t *testing.T) {
	table := ir.NewPlaceTable()
	tr := aliasing.NewTracker(table)

	outer := ir.Var(0)
	inner := ir.Var(1)
	pt := ir.ProgramPoint{}
	tr.RecordBorrow(outer, ir.DerefOf(inner), pt)

	// outer points at (*inner) but inner's targets are unknown, so the
	// overall resolution must stay conservative.
	_, universal := tr.ResolvePlace(ir.DerefOf(outer), pt)
	assert.True(t, universal)
}
