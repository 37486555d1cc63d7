// Copyright (c) 2024 The Falcon Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.
package codegen

import (
	"strings"

	"github.com/sonmezarda/ArniComp-Support-Package-sub000/cparse"
	"github.com/sonmezarda/ArniComp-Support-Package-sub000/expr"
)

// analyzeLoopMARInvariance is a path-sensitive abstract walk of a loop
// body (§4.F.6): it tracks where MAR provably points after each command,
// without ever emitting anything, and reports a single address only when
// every path through the body both sets MAR and leaves it at that same
// address. When that holds, the per-statement set_mar_abs calls already
// inside the body are redundant on every iteration but the first, so the
// caller can hoist one set_mar_abs into the preheader instead.
func (e *Emitter) analyzeLoopMARInvariance(cmds []cparse.Command) (uint16, bool) {
	ok, init, out := e.evalBlockMAR(nil, cmds)
	if !ok || init == nil || out == nil {
		return 0, false
	}
	if *init == *out {
		return *init, true
	}
	return 0, false
}

// evalBlockMAR walks cmds in order starting from the abstract MAR state
// inAddr (nil means "not established"). It returns ok=false the moment
// any command's effect on MAR cannot be pinned to a single address. init
// is the first address definitely set within the block, falling back to
// inAddr if the block never sets one; out is the address MAR holds after
// the last command.
func (e *Emitter) evalBlockMAR(inAddr *uint16, cmds []cparse.Command) (ok bool, init *uint16, out *uint16) {
	cur := inAddr
	var first *uint16
	for _, c := range cmds {
		okCmd, next := e.applyCmdToMAR(cur, c)
		if !okCmd {
			return false, nil, nil
		}
		if first == nil && next != nil && !marAddrEqual(next, cur) {
			first = next
		}
		cur = next
	}
	if first == nil {
		first = inAddr
	}
	return true, first, cur
}

func marAddrEqual(a, b *uint16) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// applyCmdToMAR models a single command's effect on the abstract MAR
// address. The five rules, in order: an if/elif/else chain is invariant
// only when every branch (including the implicit empty else) lands on
// the same definite address; a nested while, a var declaration, a free,
// or a raw assembly block can touch MAR in ways this analysis cannot
// follow and kills invariance outright; a direct-address store sets MAR
// to that literal address; an assignment to a plain variable sets MAR to
// its address; an assignment to an array element with a constant-literal
// index sets MAR to base+index, while a dynamic index is unknown.
func (e *Emitter) applyCmdToMAR(cur *uint16, cmd cparse.Command) (bool, *uint16) {
	switch cmd.Kind {
	case cparse.KindIf:
		return e.applyIfToMAR(cur, cmd.If)

	case cparse.KindWhile, cparse.KindDirectAssembly, cparse.KindVarDef, cparse.KindFree:
		return false, nil

	case cparse.KindAssign:
		return e.applyAssignToMAR(cmd.Assign)

	default:
		return true, cur
	}
}

func (e *Emitter) applyIfToMAR(cur *uint16, f *cparse.If) (bool, *uint16) {
	var outcomes []*uint16
	for _, br := range f.Branches {
		okB, _, out := e.evalBlockMAR(cur, br.Body)
		if !okB {
			return false, nil
		}
		outcomes = append(outcomes, out)
	}
	if f.HasElse {
		okB, _, out := e.evalBlockMAR(cur, f.Else)
		if !okB {
			return false, nil
		}
		outcomes = append(outcomes, out)
	} else {
		// The implicit path where no branch fires.
		outcomes = append(outcomes, cur)
	}

	first := outcomes[0]
	if first == nil {
		return false, nil
	}
	for _, o := range outcomes[1:] {
		if o == nil || *o != *first {
			return false, nil
		}
	}
	return true, first
}

func (e *Emitter) applyAssignToMAR(a *cparse.Assign) (bool, *uint16) {
	switch a.Target.Kind {
	case cparse.TargetDirectAddr:
		addr := a.Target.Addr
		return true, &addr

	case cparse.TargetVar:
		v, ok := e.Vars.Get(a.Target.Name)
		if !ok {
			return false, nil
		}
		addr := v.Address
		return true, &addr

	case cparse.TargetArrayElem:
		v, ok := e.Vars.Get(a.Target.Name)
		if !ok {
			return false, nil
		}
		idxExpr := strings.TrimSpace(a.Target.IndexExpr)
		if !expr.IsNumber(idxExpr) {
			return false, nil
		}
		idx, _ := expr.ParseNumber(idxExpr)
		if idx < 0 || int(idx) >= int(v.Size) {
			return false, nil
		}
		addr := v.Address + uint16(idx)
		return true, &addr

	default:
		return false, nil
	}
}
