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

// A MalformedError reports a structural violation of the IR input contract:
// a dangling block reference, a place referencing a variable that does not
// exist, or an ill-formed terminator. Graph construction for the offending
// function fails rather than producing a partial, unsound result.
type MalformedError struct {
	// Func is the identity of the offending function
	Func FuncID

	// Block is the block where the violation was found
	Block BlockID

	// Detail describes the violation
	Detail string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed IR in function %s, block %d: %s", e.Func, e.Block, e.Detail)
}

func malformed(f *Function, b BlockID, format string, args ...any) error {
	return &MalformedError{Func: f.Name, Block: b, Detail: fmt.Sprintf(format, args...)}
}

// Validate checks the structural input contract of f. It returns a
// *MalformedError describing the first violation found, or nil. The
// analyses call Validate before building any graph for f.
func Validate(f *Function) error {
	if len(f.Blocks) == 0 {
		return malformed(f, 0, "function has no blocks")
	}
	for _, v := range f.Params {
		if int(v) < 0 || int(v) >= len(f.Vars) {
			return malformed(f, 0, "parameter references non-existent variable v%d", v)
		}
	}
	for i := range f.Blocks {
		b := BlockID(i)
		if err := validateBlock(f, b); err != nil {
			return err
		}
	}
	return nil
}

func validateBlock(f *Function, b BlockID) error {
	block := &f.Blocks[b]
	for si, stmt := range block.Stmts {
		if err := validatePlace(f, b, stmt.Dest); err != nil {
			return err
		}
		switch stmt.Kind {
		case StmtAssign:
			for _, use := range stmt.Uses {
				if err := validateOperand(f, b, use); err != nil {
					return err
				}
			}
		case StmtBorrow:
			if err := validatePlace(f, b, stmt.Target); err != nil {
				return err
			}
			if !f.VarIsRef(stmt.Dest.Base) {
				return malformed(f, b, "statement %d borrows into non-reference place %s", si, stmt.Dest)
			}
		default:
			return malformed(f, b, "statement %d has unknown kind %d", si, stmt.Kind)
		}
	}
	return validateTerminator(f, b)
}

func validateTerminator(f *Function, b BlockID) error {
	term := &f.Blocks[b].Term
	for _, t := range term.Targets {
		if int(t) < 0 || int(t) >= len(f.Blocks) {
			return malformed(f, b, "terminator targets non-existent block %d", t)
		}
	}
	switch term.Kind {
	case TermGoto:
		if len(term.Targets) != 1 {
			return malformed(f, b, "goto with %d targets", len(term.Targets))
		}
	case TermBranch:
		if len(term.Targets) < 2 {
			return malformed(f, b, "branch with %d targets", len(term.Targets))
		}
		if err := validateOperand(f, b, term.Cond); err != nil {
			return err
		}
	case TermCall:
		if term.Callee == "" {
			return malformed(f, b, "call with empty callee")
		}
		if len(term.Targets) > 1 {
			return malformed(f, b, "call with %d successors", len(term.Targets))
		}
		for _, arg := range term.Args {
			if err := validateOperand(f, b, arg); err != nil {
				return err
			}
		}
		if term.HasDest {
			if err := validatePlace(f, b, term.Dest); err != nil {
				return err
			}
		}
	case TermReturn:
		if len(term.Targets) != 0 {
			return malformed(f, b, "return with %d targets", len(term.Targets))
		}
		if term.Value != nil {
			if err := validateOperand(f, b, *term.Value); err != nil {
				return err
			}
		}
	default:
		return malformed(f, b, "unknown terminator kind %d", term.Kind)
	}
	return nil
}

func validateOperand(f *Function, b BlockID, o Operand) error {
	if o.Kind == OperandConst {
		return nil
	}
	return validatePlace(f, b, o.Place)
}

func validatePlace(f *Function, b BlockID, p Place) error {
	if int(p.Base) < 0 || int(p.Base) >= len(f.Vars) {
		return malformed(f, b, "place %s references non-existent variable v%d", p, p.Base)
	}
	return nil
}
