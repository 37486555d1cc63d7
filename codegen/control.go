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
	"github.com/sonmezarda/ArniComp-Support-Package-sub000/cparse"
	"github.com/sonmezarda/ArniComp-Support-Package-sub000/expr"
	"github.com/sonmezarda/ArniComp-Support-Package-sub000/regcache"
)

// jccFor and invertCond give the conditional jump each comparison and
// its logical negation lower to. The reference hardware's comparator
// flags are latched the opposite way from their opcode names after
// `SUB` computes LHS-RHS: the JGT opcode actually branches when
// LHS<RHS, and JLT when LHS>RHS (JGE/JLE invert the same way). This
// isn't an internal emulator quirk that stays hidden — it's the real,
// observable behavior of those four opcodes, so the swap has to be
// applied right here, at the one place that chooses which opcode a
// logical comparison lowers to.
var jccFor = map[cparse.CondOp]string{
	cparse.CondEQ: "JEQ", cparse.CondNE: "JNE",
	cparse.CondGT: "JLT", cparse.CondLT: "JGT",
	cparse.CondGE: "JLE", cparse.CondLE: "JGE",
}

var invertCond = map[cparse.CondOp]cparse.CondOp{
	cparse.CondEQ: cparse.CondNE, cparse.CondNE: cparse.CondEQ,
	cparse.CondGT: cparse.CondLE, cparse.CondLE: cparse.CondGT,
	cparse.CondLT: cparse.CondGE, cparse.CondGE: cparse.CondLT,
}

func skipJump(op cparse.CondOp) string { return jccFor[invertCond[op]] }

func evalOp(op cparse.CondOp, a, b uint8) bool {
	switch op {
	case cparse.CondEQ:
		return a == b
	case cparse.CondNE:
		return a != b
	case cparse.CondGT:
		return a > b
	case cparse.CondLT:
		return a < b
	case cparse.CondGE:
		return a >= b
	case cparse.CondLE:
		return a <= b
	}
	return false
}

// operandValue resolves a Cond operand (literal text or variable name)
// to its current compile-time-known byte value, if any.
func (e *Emitter) operandValue(literal bool, lit int64, name string) (uint8, bool) {
	if literal {
		return uint8(lit), true
	}
	v, ok := e.Vars.Get(name)
	if !ok {
		return 0, false
	}
	return e.Vars.KnownVar(v)
}

// evalCompare resolves cond fully at compile time when both sides are
// currently known, per §4.F.5.
func (e *Emitter) evalCompare(cond cparse.Cond) (bool, bool) {
	lhsLiteral := expr.IsNumber(cond.LHS)
	var lv int64
	var lok bool
	if lhsLiteral {
		lv, _ = expr.ParseNumber(cond.LHS)
		lok = true
	}
	a, aok := e.operandValue(lhsLiteral, lv, cond.LHS)
	if !aok && !lok {
		return false, false
	}
	if lok {
		a = uint8(lv)
		aok = true
	}
	b, bok := e.operandValue(cond.RHSIsLit, cond.RHSLit, cond.RHSVar)
	if !aok || !bok {
		return false, false
	}
	return evalOp(cond.Op, a, b), true
}

// whileKind resolves a while loop's condition shape per §4.F.4: a loop
// guard built from two literals degenerates to an infinite loop or a
// dead (never-entered) one; anything touching a variable is evaluated
// fresh on every iteration.
func (e *Emitter) whileKind(cond cparse.Cond) cparse.WhileKind {
	if !expr.IsNumber(cond.LHS) || !cond.RHSIsLit {
		return cparse.WhileConditional
	}
	lv, _ := expr.ParseNumber(cond.LHS)
	if evalOp(cond.Op, uint8(lv), uint8(cond.RHSLit)) {
		return cparse.WhileInfinite
	}
	return cparse.WhileBypass
}

// emitRuntimeCompare loads both sides of cond and runs SUB purely for
// its flag side effect; the resulting ACC value itself is unused.
func (e *Emitter) emitRuntimeCompare(line int, cond cparse.Cond) error {
	if expr.IsNumber(cond.LHS) {
		v, _ := expr.ParseNumber(cond.LHS)
		e.loadConstTo("RD", uint8(v))
	} else {
		v, ok := e.Vars.Get(cond.LHS)
		if !ok {
			return &SemanticError{Line: line, Msg: "undefined variable " + cond.LHS}
		}
		e.loadAbs(v.Address, "RD", v)
	}
	if cond.RHSIsLit {
		e.loadConstTo("RA", uint8(cond.RHSLit))
	} else {
		v, ok := e.Vars.Get(cond.RHSVar)
		if !ok {
			return &SemanticError{Line: line, Msg: "undefined variable " + cond.RHSVar}
		}
		e.loadAbs(v.Address, "RA", v)
	}
	e.alu("SUB", "RA")
	return nil
}

func (e *Emitter) lowerBlock(cmds []cparse.Command) error {
	for _, c := range cmds {
		if err := e.lowerCommand(c); err != nil {
			return err
		}
	}
	return nil
}

// lowerIf picks a single branch outright whenever every remaining
// condition is compile-time resolvable; it only falls back to emitting
// runtime comparisons and jumps from the first unresolved branch on.
func (e *Emitter) lowerIf(line int, f *cparse.If) error {
	for i, br := range f.Branches {
		res, ok := e.evalCompare(br.Cond)
		if !ok {
			return e.lowerIfRuntime(line, f, i)
		}
		if res {
			return e.lowerBlock(br.Body)
		}
	}
	if f.HasElse {
		return e.lowerBlock(f.Else)
	}
	return nil
}

func (e *Emitter) lowerIfRuntime(line int, f *cparse.If, from int) error {
	remaining := f.Branches[from:]
	nextLabels := make([]string, len(remaining))
	for i := range remaining {
		name, _ := e.Labels.CreateIfLabel(0)
		nextLabels[i] = name
	}
	endLabel, _ := e.Labels.CreateElseLabel(0)

	preState := e.Regs.Snapshot()
	changed := map[regcache.Name]bool{}

	for i, br := range remaining {
		// The condition test and its skip jump run on every path that
		// reaches this branch or a later one, so their register writes
		// count as changes alongside the body's.
		e.Regs.ResetChangeDetector()
		if err := e.emitRuntimeCompare(line, br.Cond); err != nil {
			return err
		}
		e.jumpToLabel(nextLabels[i], skipJump(br.Cond.Op))
		skipState := e.Regs.Snapshot()

		if err := e.lowerBlock(br.Body); err != nil {
			return err
		}
		if i != len(remaining)-1 || f.HasElse {
			e.jumpToLabel(endLabel, "JMP")
		}
		for _, n := range e.Regs.Changed() {
			changed[n] = true
		}
		e.emitLabel(nextLabels[i])
		e.Regs.Restore(skipState)
		// A later branch runs only when this body did not, so nothing
		// the body stored may be treated as known there.
		e.Vars.InvalidateAll()
	}

	if f.HasElse {
		e.Regs.ResetChangeDetector()
		if err := e.lowerBlock(f.Else); err != nil {
			return err
		}
		for _, n := range e.Regs.Changed() {
			changed[n] = true
		}
	}

	e.emitLabel(endLabel)
	e.Regs.Restore(preState)
	for n := range changed {
		e.Regs.SetMode(n, regcache.State{})
		e.Regs.ClearAbsAddr(n)
	}
	// Which branch ran is not known statically, so any variable a
	// branch may have touched can no longer be trusted as known.
	e.Vars.InvalidateAll()
	return nil
}

func (e *Emitter) lowerWhile(line int, w *cparse.While) error {
	// A loop head is also reached from the back edge with whatever the
	// body left in the registers, so the head forgets them; only a
	// hoisted MAR is known to match on every pass.
	forgetRegs := func(keepMAR bool) {
		for _, n := range []regcache.Name{regcache.RA, regcache.RD, regcache.ACC, regcache.PRL, regcache.PRH, regcache.MARL, regcache.MARH} {
			if !keepMAR || (n != regcache.MARL && n != regcache.MARH) {
				e.Regs.SetMode(n, regcache.State{})
				e.Regs.ClearAbsAddr(n)
			}
		}
	}
	switch e.whileKind(w.Cond) {
	case cparse.WhileBypass:
		return nil

	case cparse.WhileInfinite:
		startLabel, _ := e.Labels.CreateWhileStartLabel(0)
		// Preheader: if every path through the body leaves MAR at the
		// same address it started at, set it once here instead of
		// letting every per-statement set_mar_abs inside the body
		// re-run it on every iteration (§4.F.6).
		addr, hoisted := e.analyzeLoopMARInvariance(w.Body)
		if hoisted {
			e.setMarAbs(addr)
		}
		e.emitLabel(startLabel)
		forgetRegs(hoisted)
		e.Vars.InvalidateAll()
		if err := e.lowerBlock(w.Body); err != nil {
			return err
		}
		e.jumpToLabel(startLabel, "JMP")
		return nil

	default:
		startLabel, _ := e.Labels.CreateWhileStartLabel(0)
		endLabel, _ := e.Labels.CreateWhileEndLabel(0)
		e.emitLabel(startLabel)
		forgetRegs(false)
		e.Vars.InvalidateAll()
		preState := e.Regs.Snapshot()

		if err := e.emitRuntimeCompare(line, w.Cond); err != nil {
			return err
		}
		e.jumpToLabel(endLabel, skipJump(w.Cond.Op))

		if err := e.lowerBlock(w.Body); err != nil {
			return err
		}
		e.jumpToLabel(startLabel, "JMP")
		e.emitLabel(endLabel)
		e.Regs.Restore(preState)
		// The exit is reached after any number of passes, so nothing the
		// body stored is known here.
		e.Vars.InvalidateAll()
		return nil
	}
}
