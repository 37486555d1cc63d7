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

// Package cparse lexes and parses the high-level source language into a
// tagged command sequence: declarations, assignments, if/elif/else,
// while, free, and raw assembly blocks.
package cparse

import "github.com/sonmezarda/ArniComp-Support-Package-sub000/varmem"

// Kind tags which payload a Command carries.
type Kind int

const (
	KindVarDef Kind = iota
	KindAssign
	KindFree
	KindDirectAssembly
	KindIf
	KindWhile
)

// AssignTargetKind distinguishes the three lvalue shapes.
type AssignTargetKind int

const (
	TargetVar AssignTargetKind = iota
	TargetArrayElem
	TargetDirectAddr
)

// AssignTarget is the lvalue of an Assign command.
type AssignTarget struct {
	Kind      AssignTargetKind
	Name      string // TargetVar / TargetArrayElem
	IndexExpr string // TargetArrayElem
	Addr      uint16 // TargetDirectAddr
}

// VarDef declares a new variable, with an optional initializer
// expression (empty string means uninitialized).
type VarDef struct {
	Name      string
	Kind      varmem.Kind
	ArrayLen  int // only for Kind == ByteArray
	Init      string
	HasInit   bool
	Volatile  bool
}

// Assign stores the value of an expression into a target.
type Assign struct {
	Target AssignTarget
	RHS    string
}

// Free deallocates a previously declared variable.
type Free struct {
	Name string
}

// DirectAssembly emits its lines verbatim into the assembly stream.
type DirectAssembly struct {
	Lines []string
}

// CondOp is one of the six comparison operators the language supports.
type CondOp string

const (
	CondEQ CondOp = "=="
	CondNE CondOp = "!="
	CondGE CondOp = ">="
	CondLE CondOp = "<="
	CondGT CondOp = ">"
	CondLT CondOp = "<"
)

// Cond is `lhs op rhs`, where lhs and rhs are each either a variable
// name or a decimal/hex/binary literal.
type Cond struct {
	Op          CondOp
	LHS         string
	RHSIsLit    bool
	RHSLit      int64
	RHSVar      string
}

// Branch is one `if`/`elif` arm: a condition and its body.
type Branch struct {
	Cond Cond
	Body []Command
}

// If is a full if/elif*/else? chain.
type If struct {
	Branches []Branch
	Else     []Command // nil if no else
	HasElse  bool
}

// WhileKind distinguishes the three loop shapes a condition can reduce to.
type WhileKind int

const (
	WhileConditional WhileKind = iota
	WhileInfinite
	WhileBypass
)

// While is a loop; Kind is resolved from Cond during lowering, not
// during parsing (the parser always records Cond verbatim).
type While struct {
	Cond Cond
	Body []Command
}

// Command is a tagged variant over the six command shapes; exactly one
// of the pointer fields matching Kind is non-nil.
type Command struct {
	Kind           Kind
	Line           int
	VarDef         *VarDef
	Assign         *Assign
	Free           *Free
	DirectAssembly *DirectAssembly
	If             *If
	While          *While
}
