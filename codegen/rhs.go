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
	"strings"

	"github.com/sonmezarda/ArniComp-Support-Package-sub000/expr"
	"github.com/sonmezarda/ArniComp-Support-Package-sub000/varmem"
)

var (
	derefRe  = regexp.MustCompile(`^\*\s*(.+)$`)
	arrRe    = regexp.MustCompile(`^([A-Za-z_]\w*)\s*\[(.+)\]$`)
	bareRe   = regexp.MustCompile(`^[A-Za-z_]\w*$`)
)

// RHSResult names where a computed value currently lives: a compile-time
// constant, a just-computed ALU result still sitting in ACC, or a byte
// at a known data-memory address (a declared variable, an array cell, a
// dereferenced literal address, or a spilled expression temp).
type RHSResult struct {
	InACC   bool
	IsConst bool
	Const   uint8
	Addr    uint16
}

// arrayInLowPage reports whether v satisfies the low-page constraint
// dynamic array indexing requires (§4.F.2): MOV MARL,ACC carries no
// overflow into MARH, so a dynamically-indexed array must sit entirely
// below 0x100 or the computed address silently wraps instead of
// crossing into the high byte.
func arrayInLowPage(v *varmem.Variable) bool {
	return v.Address>>8 == 0 && int(v.Address)+int(v.Size)-1 <= 0xFF
}

func parseAddrLiteral(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	if !expr.IsNumber(s) {
		return 0, fmt.Errorf("%q is not a compile-time-constant address", s)
	}
	v, _ := expr.ParseNumber(s)
	return uint16(v), nil
}

// computeRHS lowers an assignment's right-hand side per §4.F.2: a single
// dereference, an array-element read, or a general expression (pure
// constant, bare variable, or an ALU-planned computation).
func (e *Emitter) computeRHS(line int, rhs string) (RHSResult, error) {
	rhs = strings.TrimSpace(rhs)

	if m := derefRe.FindStringSubmatch(rhs); m != nil {
		addr, err := parseAddrLiteral(m[1])
		if err != nil {
			return RHSResult{}, &SemanticError{Line: line, Msg: err.Error()}
		}
		return RHSResult{Addr: addr}, nil
	}

	if m := arrRe.FindStringSubmatch(rhs); m != nil {
		return e.computeArrayRead(line, m[1], m[2])
	}

	known := e.Vars.KnownValues()
	simplified, err := expr.SimplifyWithKnownValues(rhs, known)
	if err != nil {
		return RHSResult{}, &SemanticError{Line: line, Msg: err.Error()}
	}
	if expr.IsNumber(simplified) {
		v, _ := expr.ParseNumber(simplified)
		return RHSResult{IsConst: true, Const: uint8(v)}, nil
	}
	if bareRe.MatchString(simplified) {
		v, ok := e.Vars.Get(simplified)
		if !ok {
			return RHSResult{}, &SemanticError{Line: line, Msg: fmt.Sprintf("undefined variable %q", simplified)}
		}
		return RHSResult{Addr: v.Address}, nil
	}

	node, err := expr.Parse(simplified)
	if err != nil {
		return RHSResult{}, &SemanticError{Line: line, Msg: err.Error()}
	}
	steps, final := expr.PlanCompilation(node)
	return e.executeSteps(line, steps, final)
}

func (e *Emitter) computeArrayRead(line int, name, idxExpr string) (RHSResult, error) {
	v, ok := e.Vars.Get(name)
	if !ok || v.Kind != varmem.ByteArray {
		return RHSResult{}, &SemanticError{Line: line, Msg: fmt.Sprintf("%q is not a declared array", name)}
	}
	known := e.Vars.KnownValues()
	simplifiedIdx, err := expr.SimplifyWithKnownValues(idxExpr, known)
	if err == nil && expr.IsNumber(simplifiedIdx) {
		idx, _ := expr.ParseNumber(simplifiedIdx)
		if idx < 0 || int(idx) >= int(v.Size) {
			return RHSResult{}, &SemanticError{Line: line, Msg: fmt.Sprintf("index %d out of bounds for %s[%d]", idx, name, v.Size)}
		}
		return RHSResult{Addr: v.Address + uint16(idx)}, nil
	}

	if !arrayInLowPage(v) {
		return RHSResult{}, &SemanticError{Line: line, Msg: "dynamic array index outside low-page constraint"}
	}

	idxRes, err := e.computeRHS(line, idxExpr)
	if err != nil {
		return RHSResult{}, err
	}
	e.loadOperand(idxRes, "RD")
	e.loadConstTo("RA", uint8(v.Address))
	e.alu("ADD", "RA")
	e.mov("MARL", "ACC")
	e.loadConstTo("MARH", uint8(v.Address>>8))
	e.mov("RD", "ML")
	sv, err := e.newScratch()
	if err != nil {
		return RHSResult{}, err
	}
	e.storeAbs(sv.Address, "RD")
	return RHSResult{Addr: sv.Address}, nil
}

// loadOperand ensures res's value is in register dst, regardless of
// which of the three RHSResult shapes it carries.
func (e *Emitter) loadOperand(res RHSResult, dst string) {
	switch {
	case res.InACC:
		e.mov(dst, "ACC")
	case res.IsConst:
		e.loadConstTo(dst, res.Const)
	default:
		e.loadAbs(res.Addr, dst, nil)
	}
}

// materializeAddr spills an in-ACC or constant result to a fresh scratch
// cell and returns its address; an already-addressed result is returned
// unchanged, since it never needs copying to be read again.
func (e *Emitter) materializeAddr(res RHSResult) (uint16, error) {
	switch {
	case res.InACC:
		sv, err := e.newScratch()
		if err != nil {
			return 0, err
		}
		e.storeAbs(sv.Address, "ACC")
		return sv.Address, nil
	case res.IsConst:
		sv, err := e.newScratch()
		if err != nil {
			return 0, err
		}
		e.loadConstTo("RD", res.Const)
		e.storeAbs(sv.Address, "RD")
		return sv.Address, nil
	default:
		return res.Addr, nil
	}
}

func (e *Emitter) executeSteps(line int, steps []expr.Step, final string) (RHSResult, error) {
	slots := map[string]uint16{}
	resolve := func(token string) (RHSResult, error) {
		if expr.IsNumber(token) {
			v, _ := expr.ParseNumber(token)
			return RHSResult{IsConst: true, Const: uint8(v)}, nil
		}
		if addr, ok := slots[token]; ok {
			return RHSResult{Addr: addr}, nil
		}
		if vr, ok := e.Vars.Get(token); ok {
			return RHSResult{Addr: vr.Address}, nil
		}
		return RHSResult{}, &SemanticError{Line: line, Msg: fmt.Sprintf("undefined operand %q", token)}
	}

	for _, st := range steps {
		l, err := resolve(st.Left)
		if err != nil {
			return RHSResult{}, err
		}
		r, err := resolve(st.Right)
		if err != nil {
			return RHSResult{}, err
		}
		res, err := e.applyOp(line, st.Op, l, r)
		if err != nil {
			return RHSResult{}, err
		}
		addr, err := e.materializeAddr(res)
		if err != nil {
			return RHSResult{}, err
		}
		slots[st.Result] = addr
	}
	return resolve(final)
}

func (e *Emitter) applyOp(line int, op string, l, r RHSResult) (RHSResult, error) {
	switch op {
	case "+":
		return e.arithOp("ADD", l, r), nil
	case "-":
		return e.arithOp("SUB", l, r), nil
	case "&":
		return e.andOp(l, r), nil
	case "|":
		return e.orOp(l, r)
	case "^":
		return e.xorOp(l, r)
	case "<<":
		return e.shiftLeftOp(line, l, r)
	default:
		return RHSResult{}, &SemanticError{Line: line, Msg: fmt.Sprintf("operator %q has no target ALU lowering", op)}
	}
}

// arithOp covers ADD/SUB. ADD reads RD as its implicit left operand
// directly, but SUB's minuend is whatever ACC currently holds rather
// than RD — so the SUB path has to prime ACC from RD first (the same
// ADD-CLR copy trick andOp uses) before the real subtraction runs,
// or it would subtract from a stale leftover ACC value instead of l.
func (e *Emitter) arithOp(mnemonic string, l, r RHSResult) RHSResult {
	e.loadOperand(l, "RD")
	e.loadOperand(r, "RA")
	if mnemonic == "SUB" || mnemonic == "SBC" {
		e.alu("ADD", "CLR")
	}
	e.alu(mnemonic, "RA")
	return RHSResult{InACC: true}
}

// andOp primes ACC with the left operand (ACC <- RD + CLR, i.e. a copy)
// before ANDing, since the AND instruction reads ACC as its implicit
// left operand rather than RD.
func (e *Emitter) andOp(l, r RHSResult) RHSResult {
	e.loadOperand(l, "RD")
	e.alu("ADD", "CLR")
	e.loadOperand(r, "RA")
	e.alu("AND", "RA")
	return RHSResult{InACC: true}
}

// notOp computes the bitwise complement as 0xFF - x: for an unsigned
// byte this never borrows, so it is exactly the bitwise NOT, and it is
// how NOT is synthesized everywhere the instruction set has no direct
// complement instruction. SUB subtracts from ACC rather than RD, so
// 0xFF has to be primed into ACC before the subtraction.
func (e *Emitter) notOp(x RHSResult) RHSResult {
	e.loadConstTo("RD", 0xFF)
	e.loadOperand(x, "RA")
	e.alu("ADD", "CLR")
	e.alu("SUB", "RA")
	return RHSResult{InACC: true}
}

// orOp synthesizes a | b as NOT(NOT(a) AND NOT(b)) (De Morgan), the
// Open Question resolution recorded for the OR operator: the ISA has no
// OR instruction, only AND plus arithmetic-derived NOT.
func (e *Emitter) orOp(l, r RHSResult) (RHSResult, error) {
	notL, err := e.materializeAddr(e.notOp(l))
	if err != nil {
		return RHSResult{}, err
	}
	notR, err := e.materializeAddr(e.notOp(r))
	if err != nil {
		return RHSResult{}, err
	}
	anded := e.andOp(RHSResult{Addr: notL}, RHSResult{Addr: notR})
	return e.notOp(anded), nil
}

// xorOp synthesizes a ^ b as (a AND NOT b) OR (NOT a AND b).
func (e *Emitter) xorOp(l, r RHSResult) (RHSResult, error) {
	notL, err := e.materializeAddr(e.notOp(l))
	if err != nil {
		return RHSResult{}, err
	}
	notR, err := e.materializeAddr(e.notOp(r))
	if err != nil {
		return RHSResult{}, err
	}
	t1, err := e.materializeAddr(e.andOp(l, RHSResult{Addr: notR}))
	if err != nil {
		return RHSResult{}, err
	}
	t2, err := e.materializeAddr(e.andOp(RHSResult{Addr: notL}, r))
	if err != nil {
		return RHSResult{}, err
	}
	return e.orOp(RHSResult{Addr: t1}, RHSResult{Addr: t2})
}

// shiftLeftOp requires a compile-time-constant shift amount and unrolls
// it into repeated doubling (x<<n == x*2^n, and the ISA has no multiply
// or shift instruction, only addition).
func (e *Emitter) shiftLeftOp(line int, l, r RHSResult) (RHSResult, error) {
	if !r.IsConst {
		return RHSResult{}, &SemanticError{Line: line, Msg: "shift amount must be a compile-time constant"}
	}
	if r.Const == 0 {
		return l, nil
	}
	addr, err := e.materializeAddr(l)
	if err != nil {
		return RHSResult{}, err
	}
	for i := 0; i < int(r.Const); i++ {
		e.loadAbs(addr, "RD", nil)
		e.loadAbs(addr, "RA", nil)
		e.alu("ADD", "RA")
		addr, err = e.materializeAddr(RHSResult{InACC: true})
		if err != nil {
			return RHSResult{}, err
		}
	}
	return RHSResult{Addr: addr}, nil
}
