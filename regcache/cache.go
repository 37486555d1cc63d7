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

// Package regcache models, at compile time, what the code generator
// believes is currently sitting in each of the target's seven
// general-purpose registers. It never emits code itself; codegen
// consults it to avoid redundant loads and updates it after every
// assembly line it emits.
package regcache

// Name identifies one of the seven cached registers.
type Name string

const (
	RA   Name = "RA"
	RD   Name = "RD"
	ACC  Name = "ACC"
	MARL Name = "MARL"
	MARH Name = "MARH"
	PRL  Name = "PRL"
	PRH  Name = "PRH"
)

var all = []Name{RA, RD, ACC, MARL, MARH, PRL, PRH}

// Mode is the tagged variant carried by every register.
type Mode int

const (
	Unknown Mode = iota
	Value        // holds the current value of a named variable
	Addr         // holds (part of) the address of a named variable
	Const        // holds a known compile-time constant
	TempVar      // holds the value of a named expression temp
)

// State is one register's compile-time-known content.
type State struct {
	Mode     Mode
	Variable string // Value / Addr
	ConstVal uint8  // Const
	Expr     string // TempVar
	// AbsAddr is the absolute address this register (MARL/MARH only)
	// was last set to, independent of Mode — it survives even when
	// Mode is Addr for a variable whose address happens to match.
	AbsAddr    uint16
	HasAbsAddr bool
}

func unknownState() State { return State{Mode: Unknown} }

// Cache holds all seven registers' compile-time state plus a
// change-detector set used for conditional-branch joins.
type Cache struct {
	regs    map[Name]State
	changed map[Name]bool
}

// New returns a cache with every register Unknown.
func New() *Cache {
	c := &Cache{regs: make(map[Name]State), changed: make(map[Name]bool)}
	for _, n := range all {
		c.regs[n] = unknownState()
	}
	return c
}

// Get returns register n's current compile-time state.
func (c *Cache) Get(n Name) State { return c.regs[n] }

// SetMode installs a new compile-time state for register n, recording
// the change for the next change-detector pass. AbsAddr is preserved
// unless the caller explicitly overwrites it via SetAbsAddr, since a
// register's tag and its variable binding are tracked independently.
func (c *Cache) SetMode(n Name, s State) {
	prev := c.regs[n]
	s.AbsAddr = prev.AbsAddr
	s.HasAbsAddr = prev.HasAbsAddr
	c.regs[n] = s
	c.changed[n] = true
}

// SetAbsAddr records that MARL/MARH was just set to point at addr (the
// low or high byte depending on which register this is), independent of
// the register's Mode.
func (c *Cache) SetAbsAddr(n Name, addr uint16) {
	s := c.regs[n]
	s.AbsAddr = addr
	s.HasAbsAddr = true
	c.regs[n] = s
	c.changed[n] = true
}

// ClearAbsAddr forgets any absolute-address tag on n (used whenever n is
// set to something that doesn't correspond to a known address anymore).
func (c *Cache) ClearAbsAddr(n Name) {
	s := c.regs[n]
	s.HasAbsAddr = false
	c.regs[n] = s
}

// FindConst returns a register currently holding the constant v, either
// directly (Const mode) or because it is Addr-tagged with a low byte
// equal to v.
func (c *Cache) FindConst(v uint8) (Name, bool) {
	for _, n := range []Name{RA, RD, ACC} {
		s := c.regs[n]
		if s.Mode == Const && s.ConstVal == v {
			return n, true
		}
		if s.Mode == Addr && s.HasAbsAddr && uint8(s.AbsAddr) == v {
			return n, true
		}
	}
	return "", false
}

// FindVariable returns a register currently holding Value(varName).
func (c *Cache) FindVariable(varName string) (Name, bool) {
	for _, n := range []Name{RA, RD, MARL, MARH} {
		s := c.regs[n]
		if s.Mode == Value && s.Variable == varName {
			return n, true
		}
	}
	return "", false
}

// Mov propagates dst <- src per the fixed rules: Const->Const copies the
// value, Value->Value and Addr->Addr copy the binding, and an Unknown
// (or TempVar) source makes dst Unknown. Self-moves are elided.
func (c *Cache) Mov(dst, src Name) {
	if dst == src {
		return
	}
	s := c.regs[src]
	switch s.Mode {
	case Const:
		c.SetMode(dst, State{Mode: Const, ConstVal: s.ConstVal})
	case Value:
		c.SetMode(dst, State{Mode: Value, Variable: s.Variable})
	case Addr:
		c.SetMode(dst, State{Mode: Addr, Variable: s.Variable})
	default:
		c.SetMode(dst, unknownState())
	}
}

// ResetChangeDetector forgets which registers have been written since
// the last reset, ready to observe one conditional branch's effects.
func (c *Cache) ResetChangeDetector() {
	c.changed = make(map[Name]bool)
}

// SetChangedRegistersAsUnknown marks Unknown every register that was
// written since the last ResetChangeDetector call — used at the join
// point after a runtime-only if/elif/else chain, where a register's
// post-branch content can no longer be relied on.
func (c *Cache) SetChangedRegistersAsUnknown() {
	for n := range c.changed {
		c.regs[n] = unknownState()
	}
	c.changed = make(map[Name]bool)
}

// Changed reports the set of registers written since the last reset,
// without clearing them — used by codegen to union changes across
// multiple branches before deciding what to invalidate.
func (c *Cache) Changed() []Name {
	out := make([]Name, 0, len(c.changed))
	for n := range c.changed {
		out = append(out, n)
	}
	return out
}

// Snapshot copies the current register map, used to save/restore state
// around speculative branch evaluation (e.g. around if/while lowering in codegen).
func (c *Cache) Snapshot() map[Name]State {
	out := make(map[Name]State, len(c.regs))
	for n, s := range c.regs {
		out[n] = s
	}
	return out
}

// Restore replaces the register map with a previously captured snapshot.
func (c *Cache) Restore(snap map[Name]State) {
	out := make(map[Name]State, len(snap))
	for n, s := range snap {
		out[n] = s
	}
	c.regs = out
}
