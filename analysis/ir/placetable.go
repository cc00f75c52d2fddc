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

// A PlaceID is the dense index of an interned place in a PlaceTable.
type PlaceID int

// A PlaceTable interns the places observed while analyzing one function,
// assigning each distinct place a dense PlaceID. The dense indices allow the
// analyses to represent sets of places as sparse bit sets instead of maps of
// structural values.
//
// A PlaceTable only grows; interned places are never removed.
type PlaceTable struct {
	places []Place
	index  map[string]PlaceID
	byBase map[VarID][]PlaceID
}

// NewPlaceTable returns an empty place table.
func NewPlaceTable() *PlaceTable {
	return &PlaceTable{
		index:  map[string]PlaceID{},
		byBase: map[VarID][]PlaceID{},
	}
}

// Intern returns the id of p, interning it when seen for the first time.
func (t *PlaceTable) Intern(p Place) PlaceID {
	key := p.String()
	if id, ok := t.index[key]; ok {
		return id
	}
	id := PlaceID(len(t.places))
	t.places = append(t.places, p)
	t.index[key] = id
	t.byBase[p.Base] = append(t.byBase[p.Base], id)
	return id
}

// Lookup returns the id of p without interning it. The second return value
// is false when p has not been interned.
func (t *PlaceTable) Lookup(p Place) (PlaceID, bool) {
	id, ok := t.index[p.String()]
	return id, ok
}

// Place returns the place interned under id.
func (t *PlaceTable) Place(id PlaceID) Place {
	return t.places[id]
}

// Len returns the number of interned places.
func (t *PlaceTable) Len() int {
	return len(t.places)
}

// SameBase returns the ids of all interned places rooted at the same base
// variable as p, in interning order.
func (t *PlaceTable) SameBase(p Place) []PlaceID {
	return t.byBase[p.Base]
}

// Conflicting returns the ids of all interned places that syntactically
// conflict with p: places rooted at the same base variable where one
// projection path is a prefix of the other. The result includes p itself
// when interned. Dereference-based conflicts are not considered here; they
// are the aliasing layer's concern.
func (t *PlaceTable) Conflicting(p Place) []PlaceID {
	var out []PlaceID
	for _, id := range t.byBase[p.Base] {
		q := t.places[id]
		if p.IsPrefixOf(q) || q.IsPrefixOf(p) {
			out = append(out, id)
		}
	}
	return out
}
