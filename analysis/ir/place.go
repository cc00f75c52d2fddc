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
	"fmt"
	"strings"
)

// ProjKind discriminates the projection operations of a place path.
type ProjKind uint8

const (
	// ProjField projects a struct field by index
	ProjField ProjKind = iota

	// ProjIndex projects an element of an array or slice. Element indices
	// are not distinguished: all elements of a container occupy one place.
	ProjIndex

	// ProjDeref follows a reference
	ProjDeref
)

// A Projection is one step of a place's projection path.
type Projection struct {
	Kind  ProjKind
	Field int
}

// A Place is a memory location: a base variable together with an ordered
// projection path. Places are immutable values; they are compared and
// interned structurally.
type Place struct {
	Base       VarID
	Projection []Projection
}

// Var returns the place designating variable v itself.
func Var(v VarID) Place {
	return Place{Base: v}
}

// FieldOf returns the place p.<field>.
func FieldOf(p Place, field int) Place {
	return p.extend(Projection{Kind: ProjField, Field: field})
}

// IndexOf returns the place p[*].
func IndexOf(p Place) Place {
	return p.extend(Projection{Kind: ProjIndex})
}

// DerefOf returns the place (*p).
func DerefOf(p Place) Place {
	return p.extend(Projection{Kind: ProjDeref})
}

func (p Place) extend(proj Projection) Place {
	path := make([]Projection, len(p.Projection)+1)
	copy(path, p.Projection)
	path[len(p.Projection)] = proj
	return Place{Base: p.Base, Projection: path}
}

// Equal reports structural equality of two places.
func (p Place) Equal(q Place) bool {
	if p.Base != q.Base || len(p.Projection) != len(q.Projection) {
		return false
	}
	for i, e := range p.Projection {
		if q.Projection[i] != e {
			return false
		}
	}
	return true
}

// HasDeref reports whether the place's path contains a dereference.
func (p Place) HasDeref() bool {
	for _, e := range p.Projection {
		if e.Kind == ProjDeref {
			return true
		}
	}
	return false
}

// RefPrefix splits a place at its first dereference. For a place like
// (*x.f).g it returns the reference place x.f and the path after the
// dereference [.g]. The second return value is false when the place contains
// no dereference.
func (p Place) RefPrefix() (Place, []Projection, bool) {
	for i, e := range p.Projection {
		if e.Kind == ProjDeref {
			ref := Place{Base: p.Base, Projection: p.Projection[:i]}
			return ref, p.Projection[i+1:], true
		}
	}
	return Place{}, nil, false
}

// ExtendPath returns the place obtained by appending path to p's projection.
func (p Place) ExtendPath(path []Projection) Place {
	if len(path) == 0 {
		return p
	}
	joined := make([]Projection, 0, len(p.Projection)+len(path))
	joined = append(joined, p.Projection...)
	joined = append(joined, path...)
	return Place{Base: p.Base, Projection: joined}
}

// IsPrefixOf reports whether p's projection path is a prefix of q's, with the
// same base variable. A place is a prefix of itself.
func (p Place) IsPrefixOf(q Place) bool {
	if p.Base != q.Base || len(p.Projection) > len(q.Projection) {
		return false
	}
	for i, e := range p.Projection {
		if q.Projection[i] != e {
			return false
		}
	}
	return true
}

// Conflicts is the syntactic storage-overlap relation between places: two
// places conflict when one is a prefix of the other, or when either contains
// a dereference. Dereferences are conservative here because this relation
// has no aliasing information; callers that can resolve references through
// an aliasing.Tracker should resolve first and only then compare the
// deref-free results. The relation is reflexive and symmetric but not
// transitive.
func Conflicts(p, q Place) bool {
	if p.HasDeref() || q.HasDeref() {
		return true
	}
	return p.IsPrefixOf(q) || q.IsPrefixOf(p)
}

func (p Place) String() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "v%d", p.Base)
	for _, e := range p.Projection {
		switch e.Kind {
		case ProjField:
			fmt.Fprintf(b, ".%d", e.Field)
		case ProjIndex:
			b.WriteString("[*]")
		case ProjDeref:
			b.WriteString(".*")
		}
	}
	return b.String()
}
