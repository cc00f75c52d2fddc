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

// Package aliasing tracks which places a mutable reference may point to, so
// that the dependence graph builder can propagate write-through-reference
// effects onto every aliased place. Alias sets are flow-insensitive within
// one function and only ever grow: soundness over precision. References
// whose targets cannot be recovered (escaped into an opaque call, built from
// raw pointer arithmetic) resolve to the universal set.
package aliasing

import (
	"fmt"
	"strings"

	"golang.org/x/tools/container/intsets"

	"github.com/awslabs/flow-go-tools/analysis/ir"
)

// A BorrowRecord remembers one observed borrow, for diagnostics.
type BorrowRecord struct {
	Ref    ir.Place
	Target ir.Place
	Point  ir.ProgramPoint
}

// A Tracker accumulates the borrows observed in one function and answers
// alias queries over them. It is not safe for concurrent mutation; once the
// function's graph is built the tracker is read-only and may be shared.
type Tracker struct {
	places *ir.PlaceTable

	// sets maps a reference place id to the ids of the places it may point
	// to. Entries only grow.
	sets map[ir.PlaceID]*intsets.Sparse

	// escaped holds reference place ids that resolve to the universal set
	escaped intsets.Sparse

	borrows []BorrowRecord
}

// NewTracker returns a tracker interning places in table.
func NewTracker(table *ir.PlaceTable) *Tracker {
	return &Tracker{
		places: table,
		sets:   map[ir.PlaceID]*intsets.Sparse{},
	}
}

// RecordBorrow registers that ref may alias target from point onward. The
// alias sets themselves are flow-insensitive, so the point is recorded for
// diagnostics only; the builder keeps dependence edges flow-sensitive.
func (t *Tracker) RecordBorrow(ref, target ir.Place, point ir.ProgramPoint) {
	refID := t.places.Intern(ref)
	targetID := t.places.Intern(target)
	set, ok := t.sets[refID]
	if !ok {
		set = &intsets.Sparse{}
		t.sets[refID] = set
	}
	set.Insert(int(targetID))
	t.borrows = append(t.borrows, BorrowRecord{Ref: ref, Target: target, Point: point})
}

// MarkEscaped records that ref's targets are unrecoverable: it escaped into
// an opaque call or was produced by unresolved pointer arithmetic. From now
// on ref resolves to the universal set.
func (t *Tracker) MarkEscaped(ref ir.Place) {
	t.escaped.Insert(int(t.places.Intern(ref)))
}

// Resolve returns the set of place ids that the reference place ref may
// denote at point. The second return value is true when the answer is the
// universal "anything" set; the first return value is nil in that case.
//
// A reference with no recorded borrow resolves to the universal set: not
// knowing where a reference points must never silently drop a write.
func (t *Tracker) Resolve(ref ir.Place, point ir.ProgramPoint) (*intsets.Sparse, bool) {
	refID, ok := t.places.Lookup(ref)
	if !ok || t.escaped.Has(int(refID)) {
		return nil, true
	}
	set, ok := t.sets[refID]
	if !ok || set.IsEmpty() {
		return nil, true
	}
	out := &intsets.Sparse{}
	out.Copy(set)
	return out, false
}

// ResolvePlace concretizes a place that may contain dereferences into the
// deref-free places it may denote at point. A place without dereferences
// resolves to itself. The second return value is true when any dereference
// along the path is unresolvable, in which case the place may overlap with
// anything.
func (t *Tracker) ResolvePlace(p ir.Place, point ir.ProgramPoint) ([]ir.PlaceID, bool) {
	seen := map[string]bool{}
	return t.resolvePlace(p, point, seen)
}

func (t *Tracker) resolvePlace(p ir.Place, point ir.ProgramPoint, seen map[string]bool) ([]ir.PlaceID, bool) {
	key := p.String()
	if seen[key] {
		// Cyclic borrow chains only arise from already-recorded aliases, so
		// revisiting a place adds nothing new.
		return nil, false
	}
	seen[key] = true

	ref, suffix, ok := p.RefPrefix()
	if !ok {
		return []ir.PlaceID{t.places.Intern(p)}, false
	}

	targets, universal := t.Resolve(ref, point)
	if universal {
		return nil, true
	}
	var out []ir.PlaceID
	for _, targetID := range sortedElems(targets) {
		target := t.places.Place(ir.PlaceID(targetID))
		ids, uni := t.resolvePlace(target.ExtendPath(suffix), point, seen)
		if uni {
			return nil, true
		}
		out = append(out, ids...)
	}
	return out, false
}

// NumBorrows returns the number of borrows recorded, for statistics.
func (t *Tracker) NumBorrows() int { return len(t.borrows) }

// Borrows returns the recorded borrows in observation order.
func (t *Tracker) Borrows() []BorrowRecord { return t.borrows }

func (t *Tracker) String() string {
	b := &strings.Builder{}
	for id, set := range t.sets {
		fmt.Fprintf(b, "%s -> %s\n", t.places.Place(id), set)
	}
	return b.String()
}

// sortedElems returns the elements of s in increasing order.
func sortedElems(s *intsets.Sparse) []int {
	if s == nil {
		return nil
	}
	return s.AppendTo(nil)
}
