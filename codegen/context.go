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

// Package codegen lowers a parsed command sequence into target assembly
// text. It owns no concurrency of its own: a Context is created once per
// compilation and shared by reference with every Emitter opened on it, so
// label positions, the register cache and the variable/runtime-value
// tables stay consistent across the whole tree. Compile opens a single
// Emitter, and nested if/while bodies are lowered into that same one.
package codegen

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sonmezarda/ArniComp-Support-Package-sub000/label"
	"github.com/sonmezarda/ArniComp-Support-Package-sub000/regcache"
	"github.com/sonmezarda/ArniComp-Support-Package-sub000/varmem"
)

// SemanticError reports a command that parses but cannot be lowered —
// an undefined variable, a type mismatch, an out-of-range array index.
type SemanticError struct {
	Line int
	Msg  string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("codegen: line %d: %s", e.Line, e.Msg)
}

// MARError reports a failure while resolving a MAR absolute address.
type MARError struct {
	Msg string
}

func (e *MARError) Error() string { return "codegen: " + e.Msg }

// Config fixes the memory layout a compilation targets.
type Config struct {
	VarStart     uint32
	VarEnd       uint32
	StackStart   uint16
	StackSize    uint16
	ScratchCount int // not read by NewContext; scratch cells are allocated on demand from [VarStart, VarEnd)
}

// DefaultConfig mirrors the reference toolchain's default memory map.
func DefaultConfig() Config {
	return Config{VarStart: 0x0000, VarEnd: 0xFE00, StackStart: 0xFE00, StackSize: 0x100}
}

// Context is the shared, by-reference state every Emitter in a
// compilation consults and mutates: variable allocation, the register
// cache, the label book and the dasm-only stack region.
type Context struct {
	Vars   *varmem.Manager
	Regs   *regcache.Cache
	Labels *label.Manager
	Stack  *StackManager
	Log    *logrus.Logger

	scratchSeq int
}

// NewContext builds a fresh Context over cfg.
func NewContext(cfg Config, log *logrus.Logger) *Context {
	if log == nil {
		log = logrus.New()
	}
	return &Context{
		Vars:   varmem.NewManager(cfg.VarStart, cfg.VarEnd),
		Regs:   regcache.New(),
		Labels: label.NewManager(),
		Stack:  NewStackManager(cfg.StackStart, cfg.StackSize),
		Log:    log,
	}
}

// newScratch allocates a fresh hidden byte variable (a new __scratchN on
// every call; cells are never reused) used to spill an expression
// temp's value across intervening computation — the register file has no room to hold more than one
// live intermediate at a time.
func (c *Context) newScratch() (*varmem.Variable, error) {
	name := fmt.Sprintf("__scratch%d", c.scratchSeq)
	c.scratchSeq++
	v, err := c.Vars.CreateVariable(name, varmem.Byte, false)
	if err != nil {
		return nil, errors.Wrapf(err, "allocating scratch cell %s", name)
	}
	return v, nil
}

// Emitter owns one assembly-line buffer; everything else is the shared
// Context. Nested lowering (an if's branch body, a while's loop body)
// appends to the enclosing Emitter's own buffer; no separate per-body
// buffer is opened.
type Emitter struct {
	*Context
	Lines []string
}

// NewEmitter opens an emitter with an empty line buffer, sharing c's
// manager state.
func (c *Context) NewEmitter() *Emitter {
	return &Emitter{Context: c}
}

func (e *Emitter) emit(line string) {
	e.Lines = append(e.Lines, line)
	e.Log.WithField("line", line).Debug("codegen: emit")
}

// emitLabel defines name as a plain text label line. Its real address is
// not resolved here: the assembler's own two-pass label manager scans
// the final instruction stream and assigns positions, so codegen only
// needs label.Manager for generating unique, readable names.
func (e *Emitter) emitLabel(name string) {
	e.Lines = append(e.Lines, name+":")
}

// Append splices another emitter's buffer into e, in order. No lowering
// rule calls it: branch and loop bodies are emitted straight into e.
func (e *Emitter) Append(child *Emitter) {
	e.Lines = append(e.Lines, child.Lines...)
}

func isCachedReg(name string) bool {
	switch regcache.Name(name) {
	case regcache.RA, regcache.RD, regcache.ACC, regcache.MARL, regcache.MARH, regcache.PRL, regcache.PRH:
		return true
	}
	return false
}

// ldi loads an 8-bit constant into RA, skipping the emission entirely if
// RA is already known to hold it.
func (e *Emitter) ldi(v uint8) {
	if s := e.Regs.Get(regcache.RA); s.Mode == regcache.Const && s.ConstVal == v {
		return
	}
	e.emit(fmt.Sprintf("LDI #%d", v))
	e.Regs.SetMode(regcache.RA, regcache.State{Mode: regcache.Const, ConstVal: v})
	e.Regs.ClearAbsAddr(regcache.RA)
}

// mov emits dst <- src, eliding true self-moves and updating the
// register cache's binding/propagation rules for cached registers. dst's
// absolute-address tag is always dropped; setMarAbs re-tags MARL/MARH
// itself after loading them.
func (e *Emitter) mov(dst, src string) {
	if dst == src {
		return
	}
	e.emit(fmt.Sprintf("MOV %s, %s", dst, src))
	if isCachedReg(dst) {
		if isCachedReg(src) {
			e.Regs.Mov(regcache.Name(dst), regcache.Name(src))
		} else {
			e.Regs.SetMode(regcache.Name(dst), regcache.State{})
		}
		e.Regs.ClearAbsAddr(regcache.Name(dst))
	}
}

// movVariableLoad records that dst now holds variable v's value, after
// emitting the MOV that loads it from memory (src is ML/MH).
func (e *Emitter) movVariableLoad(dst, src string, v *varmem.Variable) {
	e.emit(fmt.Sprintf("MOV %s, %s", dst, src))
	if isCachedReg(dst) {
		e.Regs.SetMode(regcache.Name(dst), regcache.State{Mode: regcache.Value, Variable: v.Name})
		e.Regs.ClearAbsAddr(regcache.Name(dst))
	}
}

// alu emits a two-operand ALU instruction (ADD/SUB/ADC/SBC/AND), which
// always leaves its result in ACC and invalidates any tracked binding
// ACC previously held.
func (e *Emitter) alu(op, src string) {
	e.emit(fmt.Sprintf("%s %s", op, src))
	e.Regs.SetMode(regcache.ACC, regcache.State{})
	e.Regs.ClearAbsAddr(regcache.ACC)
}

// jump emits a bare conditional/unconditional jump instruction. Callers
// are responsible for loading PRL/PRH with the target address first.
func (e *Emitter) jump(cond string) {
	e.emit(cond)
}

// cra, hlt, nop emit the three fixed-pattern instructions verbatim.
func (e *Emitter) cra() { e.emit("CRA") }
func (e *Emitter) hlt() { e.emit("HLT") }
func (e *Emitter) nop() { e.emit("NOP") }

// loadConstTo ensures v ends up in dst, copying it from RA/RD/ACC when
// one of them is already known to hold it and otherwise emitting a
// fresh LDI, then MOVing it into dst if dst isn't already that register.
func (e *Emitter) loadConstTo(dst string, v uint8) {
	if s := e.Regs.Get(regcache.Name(dst)); s.Mode == regcache.Const && s.ConstVal == v {
		return
	}
	if n, ok := e.Regs.FindConst(v); ok && string(n) == dst {
		return
	}
	if n, ok := e.Regs.FindConst(v); ok {
		e.mov(dst, string(n))
		return
	}
	e.ldi(v)
	e.mov(dst, string(regcache.RA))
}

// setMarAbs points MARL/MARH at addr, skipping either half whose cached
// AbsAddr tag already matches — the compile-time analogue of the
// reference compiler's `set_mar_abs`. Only full reloads are used: the
// instruction set has no spare opcode for an address-register
// increment, so there is no cheaper partial-step alternative.
func (e *Emitter) setMarAbs(addr uint16) {
	low := uint8(addr)
	high := uint8(addr >> 8)

	if s := e.Regs.Get(regcache.MARL); !(s.HasAbsAddr && uint8(s.AbsAddr) == low) {
		e.loadConstTo(string(regcache.MARL), low)
		e.Regs.SetAbsAddr(regcache.MARL, addr)
	}
	if s := e.Regs.Get(regcache.MARH); !(s.HasAbsAddr && uint8(s.AbsAddr>>8) == high) {
		e.loadConstTo(string(regcache.MARH), high)
		e.Regs.SetAbsAddr(regcache.MARH, addr)
	}
}

// storeAbs writes the byte currently in srcReg to memory address addr.
func (e *Emitter) storeAbs(addr uint16, srcReg string) {
	e.setMarAbs(addr)
	e.mov("ML", srcReg)
}

// loadAbs loads the byte at addr into dstReg, tagging the register as
// holding v's Value when v is non-nil.
func (e *Emitter) loadAbs(addr uint16, dstReg string, v *varmem.Variable) {
	e.setMarAbs(addr)
	if v != nil {
		e.movVariableLoad(dstReg, "ML", v)
	} else {
		e.mov(dstReg, "ML")
	}
}

// ldiLabel emits a symbolic immediate load of one byte of name's
// eventual address — "lo" or "hi" — left unresolved for the assembler's
// label-substitution pass, since a forward jump target's position isn't
// known until the whole program has been emitted.
func (e *Emitter) ldiLabel(name, half string) {
	e.emit(fmt.Sprintf("LDI @%s:%s", name, half))
	e.Regs.SetMode(regcache.RA, regcache.State{})
	e.Regs.ClearAbsAddr(regcache.RA)
}

// jumpToLabel loads name's (possibly still-forward) address into
// PRL/PRH via symbolic immediates and emits the jump.
func (e *Emitter) jumpToLabel(name, cond string) {
	e.ldiLabel(name, "lo")
	e.mov(string(regcache.PRL), string(regcache.RA))
	e.ldiLabel(name, "hi")
	e.mov(string(regcache.PRH), string(regcache.RA))
	e.jump(cond)
}

