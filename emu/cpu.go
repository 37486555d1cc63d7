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

// Package emu is the cycle-stepped emulator core: a fetch/decode/execute
// loop over isa's single decode table, a flag ALU, and MAR-driven access
// to an mmio.Bus-backed data memory separate from program memory
// (Harvard architecture).
package emu

import (
	"github.com/sirupsen/logrus"

	"github.com/sonmezarda/ArniComp-Support-Package-sub000/isa"
	"github.com/sonmezarda/ArniComp-Support-Package-sub000/mmio"
)

const programSize = 65536

// Flags are the comparator outputs latched by every ALU-touching
// instruction (ADD/SUB/ADC/SBC/AND/ADDI/SUBI), plus a separate carry bit
// only arithmetic sets. LT and GT are named after the hardware
// comparator's own, counter-intuitive convention: LT fires on A>B and GT
// fires on A<B — see DESIGN.md's codegen build notes for why jump
// lowering has to account for this.
type Flags struct {
	Equal bool
	LT    bool
	GT    bool
	Carry bool
}

func (f *Flags) update(a, b uint8) {
	f.LT = a > b
	f.Equal = a == b
	f.GT = a < b
}

func (f Flags) String() string {
	bit := func(b bool) int {
		if b {
			return 1
		}
		return 0
	}
	return "EQ:" + itoa(bit(f.Equal)) + " LT:" + itoa(bit(f.LT)) + " GT:" + itoa(bit(f.GT)) + " C:" + itoa(bit(f.Carry))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	return "1"
}

// StepStatus reports what a single Step call did.
type StepStatus int

const (
	StepExecuted StepStatus = iota
	StepHalted
	StepBreakpoint
	StepBudgetExhausted
)

// CPU is the emulator's full architectural state: the seven named 8-bit
// registers, the program counter, flags, the memory-mode selector, a
// read-only program store, and the data-memory bus.
type CPU struct {
	RA, RD, ACC, MARL, MARH, PRL, PRH uint8
	PC                                uint16
	Flags                             Flags
	MemoryModeHigh                    bool

	Program [programSize]byte
	Bus     *mmio.Bus

	Halted      bool
	Running     bool
	Trace       bool
	Breakpoints map[uint16]struct{}

	Log *logrus.Logger
}

// NewCPU returns a CPU with a fresh bus carrying a seven-segment device
// attached at sevenSegBase (spec.md §4.H's default device set).
func NewCPU(log *logrus.Logger, sevenSegBase uint16) *CPU {
	bus := mmio.NewBus()
	bus.Attach(mmio.NewSevenSegmentDevice("seg0", sevenSegBase, nil))
	return &CPU{
		Bus:         bus,
		Log:         log,
		Breakpoints: map[uint16]struct{}{},
	}
}

// Reset restores every register, the flags and the memory mode to their
// power-on state, and resets the bus (RAM and devices) — but never
// touches program memory, which persists like real hardware EEPROM.
func (c *CPU) Reset() {
	*c = CPU{
		Program:     c.Program,
		Bus:         c.Bus,
		Log:         c.Log,
		Trace:       c.Trace,
		Breakpoints: c.Breakpoints,
	}
	if c.Bus != nil {
		c.Bus.Reset()
	}
}

// LoadProgram resets program memory to all zero and copies data in
// starting at startAddr, truncating anything that would run past the
// 64K program space.
func (c *CPU) LoadProgram(data []byte, startAddr uint16) {
	c.Program = [programSize]byte{}
	for i, b := range data {
		addr := int(startAddr) + i
		if addr >= programSize {
			break
		}
		c.Program[addr] = b
	}
}

// MarAddr is the current 16-bit data-memory address: spec.md §3 fixes
// this as always (MARH<<8)|MARL, superseding the reference Python
// emulator's own mode-flag-truncated addressing shortcut (SPEC_FULL.md's
// "MAR addressing during emulation" note) — ML/MH only select which
// half of a later MOV a memory access travels through, they never
// change what address that access targets.
func (c *CPU) MarAddr() uint16 {
	return uint16(c.MARH)<<8 | uint16(c.MARL)
}

func (c *CPU) readMemory() uint8 {
	return c.Bus.Read8(c.MarAddr())
}

func (c *CPU) writeMemory(v uint8) {
	c.Bus.Write8(c.MarAddr(), v)
}

// SetBreakpoint/ClearBreakpoint manage the address set Step/Run pause
// before executing, mirroring cpu.py's set_breakpoint/clear_breakpoint.
func (c *CPU) SetBreakpoint(addr uint16)   { c.Breakpoints[addr] = struct{}{} }
func (c *CPU) ClearBreakpoint(addr uint16) { delete(c.Breakpoints, addr) }

// GetRegister reads a register by its assembly name, for debug/trace
// reporting only — MOV operand reads go through readSrc, which targets
// exactly the register set the ISA allows as a source.
func (c *CPU) GetRegister(name string) (uint8, bool) {
	switch name {
	case isa.RA:
		return c.RA, true
	case isa.RD:
		return c.RD, true
	case isa.ACC:
		return c.ACC, true
	case isa.MARL:
		return c.MARL, true
	case isa.MARH:
		return c.MARH, true
	case isa.PRL, isa.PCL:
		return c.PRL, true
	case isa.PRH, isa.PCH:
		return c.PRH, true
	case isa.ML:
		return c.readSrc(isa.ML), true
	case isa.MH:
		return c.readSrc(isa.MH), true
	}
	return 0, false
}

// P is the combined 16-bit jump target/pointer register (PRH<<8)|PRL.
func (c *CPU) P() uint16 { return uint16(c.PRH)<<8 | uint16(c.PRL) }

// readSrc resolves a MOV/arithmetic source operand, per spec.md §4.H:
// CLR reads as zero; ML/MH temporarily force the corresponding memory
// mode before reading bus[MAR], then restore whatever mode was active.
func (c *CPU) readSrc(name string) uint8 {
	switch name {
	case isa.RA:
		return c.RA
	case isa.RD:
		return c.RD
	case isa.ACC:
		return c.ACC
	case isa.CLR:
		return 0
	case isa.PCL:
		return c.PRL
	case isa.PCH:
		return c.PRH
	case isa.ML:
		prev := c.MemoryModeHigh
		c.MemoryModeHigh = false
		v := c.readMemory()
		c.MemoryModeHigh = prev
		return v
	case isa.MH:
		prev := c.MemoryModeHigh
		c.MemoryModeHigh = true
		v := c.readMemory()
		c.MemoryModeHigh = prev
		return v
	}
	return 0
}

// writeDest resolves a MOV destination operand. Writing ML/MH sets the
// memory mode and leaves it set (the mode bit persists past the
// instruction, per spec.md §3's register-file description) before
// writing the addressed byte.
func (c *CPU) writeDest(name string, value uint8) {
	switch name {
	case isa.RA:
		c.RA = value
	case isa.RD:
		c.RD = value
	case isa.MARL:
		c.MARL = value
	case isa.MARH:
		c.MARH = value
	case isa.PRL:
		c.PRL = value
	case isa.PRH:
		c.PRH = value
	case isa.ML:
		c.MemoryModeHigh = false
		c.writeMemory(value)
	case isa.MH:
		c.MemoryModeHigh = true
		c.writeMemory(value)
	}
}

// Step fetches, decodes and executes a single instruction. It returns
// StepBreakpoint without advancing PC past the fetch if PC sits on a
// breakpointed address, and StepHalted if the CPU was already halted.
// Executing the last program address without taking a jump halts the
// CPU, since PC would otherwise wrap back to 0.
func (c *CPU) Step() StepStatus {
	if c.Halted {
		return StepHalted
	}
	if _, hit := c.Breakpoints[c.PC]; hit {
		return StepBreakpoint
	}

	opByte := c.Program[c.PC]
	atLast := int(c.PC) == len(c.Program)-1
	c.PC++
	ins := isa.Decode(opByte)

	if c.Trace && c.Log != nil {
		c.Log.WithFields(logrus.Fields{
			"pc":   c.PC - 1,
			"inst": ins.String(),
			"ra":   c.RA, "rd": c.RD, "acc": c.ACC,
		}).Debug("emu: step")
	}

	c.execute(ins)
	if atLast && !c.takeJump(ins.Mnemonic) {
		c.Halted = true
	}
	return StepExecuted
}

// Run steps until halted, a breakpoint is hit, or maxCycles instructions
// have executed, returning the cycle count and the status that ended
// the run.
func (c *CPU) Run(maxCycles int) (int, StepStatus) {
	c.Running = true
	defer func() { c.Running = false }()

	cycles := 0
	for cycles < maxCycles {
		status := c.Step()
		if status != StepExecuted {
			return cycles, status
		}
		cycles++
		if c.Halted {
			return cycles, StepHalted
		}
	}
	return cycles, StepBudgetExhausted
}

func (c *CPU) execute(ins isa.Instruction) {
	switch ins.Mnemonic {
	case isa.NOP:
	case isa.HLT:
		c.Halted = true
	case isa.CRA:
		c.RA = 0
	case isa.LDI:
		c.RA = ins.Imm & 0x7F
	case isa.MOV:
		c.writeDest(ins.Dest, c.readSrc(ins.Src))
	case isa.ADD, isa.ADC:
		src := c.readSrc(ins.Src)
		c.Flags.update(c.RD, src)
		base := int(c.RD) + int(src)
		if ins.Mnemonic == isa.ADC && c.Flags.Carry {
			base++
		}
		c.Flags.Carry = base > 0xFF
		c.ACC = uint8(base)
	case isa.SUB, isa.SBC:
		// The minuend is whatever ACC already holds, not RD — see
		// DESIGN.md's note on SUB/SBC's ACC-as-minuend asymmetry.
		src := c.readSrc(ins.Src)
		c.Flags.update(c.RD, src)
		subtrahend := int(src)
		if ins.Mnemonic == isa.SBC && c.Flags.Carry {
			subtrahend++
		}
		minuend := int(c.ACC)
		c.Flags.Carry = minuend >= subtrahend
		c.ACC = uint8(minuend - subtrahend)
	case isa.AND:
		src := c.readSrc(ins.Src)
		c.Flags.update(c.RD, src)
		c.ACC = c.ACC & src
	case isa.ADDI:
		c.Flags.update(c.RD, ins.Imm)
		total := int(c.RD) + int(ins.Imm)
		c.Flags.Carry = total > 0xFF
		c.ACC = uint8(total)
	case isa.SUBI:
		c.Flags.update(c.RD, ins.Imm)
		borrow := c.RD < ins.Imm
		c.Flags.Carry = !borrow
		c.ACC = uint8(int(c.RD) - int(ins.Imm))
	case isa.JMP, isa.JEQ, isa.JGT, isa.JLT, isa.JGE, isa.JLE, isa.JNE, isa.JC:
		if c.takeJump(ins.Mnemonic) {
			c.PC = c.P()
		}
	}
}

func (c *CPU) takeJump(m isa.Mnemonic) bool {
	switch m {
	case isa.JMP:
		return true
	case isa.JEQ:
		return c.Flags.Equal
	case isa.JGT:
		return c.Flags.GT
	case isa.JLT:
		return c.Flags.LT
	case isa.JGE:
		return c.Flags.GT || c.Flags.Equal
	case isa.JLE:
		return c.Flags.LT || c.Flags.Equal
	case isa.JNE:
		return !c.Flags.Equal
	case isa.JC:
		return c.Flags.Carry
	}
	return false
}
