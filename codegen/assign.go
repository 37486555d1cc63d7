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
	"fmt"
	"regexp"

	"github.com/sonmezarda/ArniComp-Support-Package-sub000/cparse"
	"github.com/sonmezarda/ArniComp-Support-Package-sub000/expr"
	"github.com/sonmezarda/ArniComp-Support-Package-sub000/regcache"
	"github.com/sonmezarda/ArniComp-Support-Package-sub000/varmem"
)

var selfOpRe = regexp.MustCompile(`^([A-Za-z_]\w*)\s*([+-])\s*(\S+)$`)

func (e *Emitter) addi(imm uint8) {
	e.emit(fmt.Sprintf("ADDI #%d", imm))
	e.Regs.SetMode(regcache.ACC, regcache.State{})
}

func (e *Emitter) subi(imm uint8) {
	e.emit(fmt.Sprintf("SUBI #%d", imm))
	e.Regs.SetMode(regcache.ACC, regcache.State{})
}

// storeKnownByte writes value to addr, eliding the emission entirely
// when the target is non-volatile and its tracked value already equals
// value — the one case where a compile-time-known write is provably a
// no-op against real memory.
func (e *Emitter) storeKnownByte(addr uint16, value uint8, volatile bool) {
	if !volatile {
		if cur, ok := e.Vars.Known(addr); ok && cur == value {
			return
		}
	}
	e.loadConstTo("RD", value)
	e.storeAbs(addr, "RD")
	if volatile {
		e.Vars.Invalidate(addr)
	} else {
		e.Vars.SetKnown(addr, value)
	}
}

// storeResult writes a computed RHSResult to addr, folding it into the
// runtime-value tracker whenever its source value is itself already
// known at compile time.
func (e *Emitter) storeResult(addr uint16, volatile bool, res RHSResult) {
	switch {
	case res.IsConst:
		e.storeKnownByte(addr, res.Const, volatile)
	case res.InACC:
		e.storeAbs(addr, "ACC")
		e.Vars.Invalidate(addr)
	default:
		if val, ok := e.Vars.Known(res.Addr); ok {
			e.storeKnownByte(addr, val, volatile)
			return
		}
		e.loadAbs(res.Addr, "RD", nil)
		e.storeAbs(addr, "RD")
		e.Vars.Invalidate(addr)
	}
}

// trySelfIncrement recognizes `x = x + k` / `x = x - k` with k a
// literal. When x's value is tracked it folds the result into a
// constant store; otherwise, with k in the ADDI/SUBI immediate range,
// it lowers to a single ALU instruction instead of a full expression
// evaluation — the code generator's one ALU-immediate fast path.
func (e *Emitter) trySelfIncrement(v *varmem.Variable, rhs string) (bool, error) {
	m := selfOpRe.FindStringSubmatch(rhs)
	if m == nil || m[1] != v.Name || !expr.IsNumber(m[3]) {
		return false, nil
	}
	n, _ := expr.ParseNumber(m[3])
	if n < 0 {
		return false, nil
	}
	if known, ok := e.Vars.Known(v.Address); ok && !v.Volatile {
		var nv uint8
		if m[2] == "+" {
			nv = known + uint8(n)
		} else {
			nv = known - uint8(n)
		}
		e.storeKnownByte(v.Address, nv, v.Volatile)
		return true, nil
	}
	if m[2] == "+" && n <= 7 {
		e.loadAbs(v.Address, "RD", v)
		e.addi(uint8(n))
		e.storeAbs(v.Address, "ACC")
		e.Vars.Invalidate(v.Address)
		return true, nil
	}
	if m[2] == "-" && n <= 3 {
		e.loadAbs(v.Address, "RD", v)
		e.subi(uint8(n))
		e.storeAbs(v.Address, "ACC")
		e.Vars.Invalidate(v.Address)
		return true, nil
	}
	return false, nil
}

// lowerVarDef allocates a declared variable and, if it carries an
// initializer, lowers that as the equivalent assignment.
func (e *Emitter) lowerVarDef(line int, d *cparse.VarDef) error {
	switch d.Kind {
	case varmem.ByteArray:
		_, err := e.Vars.CreateArrayVariable(d.Name, d.ArrayLen, d.Volatile)
		if err != nil {
			return &SemanticError{Line: line, Msg: err.Error()}
		}
		return nil
	case varmem.Uint16:
		v, err := e.Vars.CreateVariable(d.Name, varmem.Uint16, d.Volatile)
		if err != nil {
			return &SemanticError{Line: line, Msg: err.Error()}
		}
		if !d.HasInit {
			return nil
		}
		known := e.Vars.KnownValues()
		simplified, err := expr.SimplifyWithKnownValues(d.Init, known)
		if err != nil || !expr.IsNumber(simplified) {
			return &SemanticError{Line: line, Msg: "uint16 initializer must be a compile-time-constant expression"}
		}
		val, _ := expr.ParseNumber(simplified)
		e.storeKnownByte(v.LowAddress(), uint8(val), d.Volatile)
		e.storeKnownByte(v.HighAddress(), uint8(val>>8), d.Volatile)
		return nil
	default:
		v, err := e.Vars.CreateVariable(d.Name, varmem.Byte, d.Volatile)
		if err != nil {
			return &SemanticError{Line: line, Msg: err.Error()}
		}
		if !d.HasInit {
			return nil
		}
		res, err := e.computeRHS(line, d.Init)
		if err != nil {
			return err
		}
		e.storeResult(v.Address, v.Volatile, res)
		return nil
	}
}

// lowerAssign stores an expression's value into a variable, array cell,
// or literal absolute address.
func (e *Emitter) lowerAssign(line int, a *cparse.Assign) error {
	switch a.Target.Kind {
	case cparse.TargetVar:
		v, ok := e.Vars.Get(a.Target.Name)
		if !ok {
			return &SemanticError{Line: line, Msg: fmt.Sprintf("undefined variable %q", a.Target.Name)}
		}
		if v.Kind == varmem.Uint16 {
			known := e.Vars.KnownValues()
			simplified, err := expr.SimplifyWithKnownValues(a.RHS, known)
			if err != nil || !expr.IsNumber(simplified) {
				return &SemanticError{Line: line, Msg: "uint16 assignment requires a compile-time-constant expression"}
			}
			val, _ := expr.ParseNumber(simplified)
			e.storeKnownByte(v.LowAddress(), uint8(val), v.Volatile)
			e.storeKnownByte(v.HighAddress(), uint8(val>>8), v.Volatile)
			return nil
		}
		if ok, err := e.trySelfIncrement(v, a.RHS); err != nil {
			return err
		} else if ok {
			return nil
		}
		res, err := e.computeRHS(line, a.RHS)
		if err != nil {
			return err
		}
		e.storeResult(v.Address, v.Volatile, res)
		return nil

	case cparse.TargetArrayElem:
		v, ok := e.Vars.Get(a.Target.Name)
		if !ok || v.Kind != varmem.ByteArray {
			return &SemanticError{Line: line, Msg: fmt.Sprintf("%q is not a declared array", a.Target.Name)}
		}
		known := e.Vars.KnownValues()
		res, err := e.computeRHS(line, a.RHS)
		if err != nil {
			return err
		}
		simplifiedIdx, err := expr.SimplifyWithKnownValues(a.Target.IndexExpr, known)
		if err == nil && expr.IsNumber(simplifiedIdx) {
			idx, _ := expr.ParseNumber(simplifiedIdx)
			if idx < 0 || int(idx) >= int(v.Size) {
				return &SemanticError{Line: line, Msg: fmt.Sprintf("index %d out of bounds for %s[%d]", idx, v.Name, v.Size)}
			}
			e.storeResult(v.Address+uint16(idx), v.Volatile, res)
			return nil
		}
		// Dynamic index: compute the cell address at runtime and store
		// through it directly; the runtime-value tracker cannot follow
		// this, so the whole array's known values are invalidated.
		if !arrayInLowPage(v) {
			return &SemanticError{Line: line, Msg: "dynamic array index outside low-page constraint"}
		}
		idxRes, err := e.computeRHS(line, a.Target.IndexExpr)
		if err != nil {
			return err
		}
		e.loadOperand(idxRes, "RD")
		e.loadConstTo("RA", uint8(v.Address))
		e.alu("ADD", "RA")
		// Park the cell address in a scratch byte: loading a
		// memory-resident RHS repoints MAR, so MARL is read back from
		// the scratch byte only once the value sits in RD.
		cell, err := e.materializeAddr(RHSResult{InACC: true})
		if err != nil {
			return err
		}
		e.loadOperand(res, "RD")
		e.loadAbs(cell, "MARL", nil)
		e.loadConstTo("MARH", uint8(v.Address>>8))
		e.mov("ML", "RD")
		for i := uint16(0); i < uint16(v.Size); i++ {
			e.Vars.Invalidate(v.Address + i)
		}
		return nil

	case cparse.TargetDirectAddr:
		res, err := e.computeRHS(line, a.RHS)
		if err != nil {
			return err
		}
		e.loadOperand(res, "RD")
		e.storeAbs(a.Target.Addr, "RD")
		return nil
	}
	return &SemanticError{Line: line, Msg: "unknown assignment target"}
}

func (e *Emitter) lowerFree(line int, f *cparse.Free) error {
	if err := e.Vars.Free(f.Name); err != nil {
		return &SemanticError{Line: line, Msg: err.Error()}
	}
	return nil
}

// lowerDirectAssembly splices a raw assembly block in verbatim. Nothing
// about its effect on registers or memory can be tracked statically, so
// every cached register and tracked value is invalidated around it.
func (e *Emitter) lowerDirectAssembly(d *cparse.DirectAssembly) {
	e.Regs.ResetChangeDetector()
	for _, line := range d.Lines {
		e.emit(line)
	}
	for _, n := range []regcache.Name{regcache.RA, regcache.RD, regcache.ACC, regcache.MARL, regcache.MARH, regcache.PRL, regcache.PRH} {
		e.Regs.SetMode(n, regcache.State{})
		e.Regs.ClearAbsAddr(n)
	}
	e.Vars.InvalidateAll()
}
