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
package expr

import (
	"fmt"
	"sort"
	"strings"
)

// constKey is the reserved monomial key for the constant term.
const constKey = ""

// Term is a sum of coefficient x monomial products plus a constant,
// with a symbolic fallback for bitwise/shift expressions that mix
// variables (those no longer participate in algebraic folding once
// they degrade to Bitwise).
type Term struct {
	terms    map[string]int64
	Bitwise  bool
	Symbolic string
}

func newTerm() *Term { return &Term{terms: make(map[string]int64)} }

// FromConstant builds a pure-constant term.
func FromConstant(v int64) *Term {
	t := newTerm()
	t.terms[constKey] = v
	return t
}

// FromVariable builds a single-variable, coefficient-1 term.
func FromVariable(name string) *Term {
	t := newTerm()
	t.terms[name] = 1
	return t
}

func fromSymbolic(s string) *Term {
	return &Term{Bitwise: true, Symbolic: s}
}

// IsPureConstant reports whether t reduces to a single known number.
func (t *Term) IsPureConstant() bool {
	if t.Bitwise {
		return false
	}
	t.Clean()
	if len(t.terms) == 0 {
		return true
	}
	_, onlyConst := t.terms[constKey]
	return onlyConst && len(t.terms) == 1
}

// ConstantValue returns the constant value; only meaningful when
// IsPureConstant is true.
func (t *Term) ConstantValue() int64 {
	return t.terms[constKey]
}

// IsEmpty reports whether t represents exactly zero.
func (t *Term) IsEmpty() bool {
	if t.Bitwise {
		return false
	}
	t.Clean()
	return len(t.terms) == 0
}

// Clean drops zero-coefficient monomials.
func (t *Term) Clean() {
	if t.Bitwise {
		return
	}
	for k, v := range t.terms {
		if v == 0 {
			delete(t.terms, k)
		}
	}
}

func monomialKey(a, b string) string {
	if a == constKey {
		return b
	}
	if b == constKey {
		return a
	}
	parts := append(strings.Split(a, "*"), strings.Split(b, "*")...)
	sort.Strings(parts)
	return strings.Join(parts, "*")
}

// Add merges two terms' coefficients; if either side is already
// symbolic-bitwise, the sum degrades to a symbolic expression too.
func (t *Term) Add(o *Term) *Term {
	if t.Bitwise || o.Bitwise {
		return fromSymbolic(fmt.Sprintf("(%s) + (%s)", t.text(), o.text()))
	}
	r := newTerm()
	for k, v := range t.terms {
		r.terms[k] += v
	}
	for k, v := range o.terms {
		r.terms[k] += v
	}
	r.Clean()
	return r
}

// Negate flips every coefficient's sign.
func (t *Term) Negate() *Term {
	if t.Bitwise {
		return fromSymbolic(fmt.Sprintf("-(%s)", t.Symbolic))
	}
	r := newTerm()
	for k, v := range t.terms {
		r.terms[k] = -v
	}
	return r
}

// Sub is Add with a negated right-hand side.
func (t *Term) Sub(o *Term) *Term { return t.Add(o.Negate()) }

// Multiply distributes constant-by-sum, or produces a combined monomial
// key when both sides carry variables (sorted, joined by "*" — not
// directly ISA-lowerable; the code generator rejects the "*" step).
func (t *Term) Multiply(o *Term) *Term {
	if t.Bitwise || o.Bitwise {
		return fromSymbolic(fmt.Sprintf("(%s) * (%s)", t.text(), o.text()))
	}
	r := newTerm()
	for ka, va := range t.terms {
		for kb, vb := range o.terms {
			key := monomialKey(ka, kb)
			r.terms[key] += va * vb
		}
	}
	r.Clean()
	return r
}

// Divide is permitted only when o is a pure constant; division by a
// variable is a semantic error surfaced to the caller.
func (t *Term) Divide(o *Term) (*Term, error) {
	if t.Bitwise || o.Bitwise {
		return nil, fmt.Errorf("expr: cannot divide a symbolic bitwise expression")
	}
	if !o.IsPureConstant() || o.ConstantValue() == 0 {
		return nil, fmt.Errorf("expr: division is only supported by a non-zero constant")
	}
	d := o.ConstantValue()
	r := newTerm()
	for k, v := range t.terms {
		r.terms[k] = v / d
	}
	return r, nil
}

func (t *Term) bitwiseFold(o *Term, fold func(a, b int64) int64, symbol string) *Term {
	if t.IsPureConstant() && o.IsPureConstant() {
		return FromConstant(fold(t.ConstantValue(), o.ConstantValue()))
	}
	return fromSymbolic(fmt.Sprintf("(%s) %s (%s)", t.text(), symbol, o.text()))
}

func (t *Term) BitwiseAnd(o *Term) *Term {
	return t.bitwiseFold(o, func(a, b int64) int64 { return a & b }, "&")
}
func (t *Term) BitwiseOr(o *Term) *Term {
	return t.bitwiseFold(o, func(a, b int64) int64 { return a | b }, "|")
}
func (t *Term) BitwiseXor(o *Term) *Term {
	return t.bitwiseFold(o, func(a, b int64) int64 { return a ^ b }, "^")
}
func (t *Term) ShiftLeft(o *Term) *Term {
	return t.bitwiseFold(o, func(a, b int64) int64 { return a << uint(b) }, "<<")
}
func (t *Term) ShiftRight(o *Term) *Term {
	return t.bitwiseFold(o, func(a, b int64) int64 { return a >> uint(b) }, ">>")
}

func (t *Term) text() string {
	if t.Bitwise {
		return t.Symbolic
	}
	return t.String()
}

// String renders the canonical form: a sign-joined list of monomials,
// constant last, multi-variable monomials as "coeff*a*b", single
// variables with |coeff|>1 unrolled into repeated addition (the ISA has
// no multiply instruction; constant-scaled variables must reduce to
// repeated ADD before the planner can lower them).
func (t *Term) String() string {
	if t.Bitwise {
		return t.Symbolic
	}
	t.Clean()
	if len(t.terms) == 0 {
		return "0"
	}
	keys := make([]string, 0, len(t.terms))
	for k := range t.terms {
		if k != constKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := t.terms[constKey]; ok {
		keys = append(keys, constKey)
	}

	var b strings.Builder
	first := true
	writeSign := func(neg bool) {
		if first {
			if neg {
				b.WriteString("-")
			}
			first = false
			return
		}
		if neg {
			b.WriteString(" - ")
		} else {
			b.WriteString(" + ")
		}
	}

	for _, k := range keys {
		coeff := t.terms[k]
		if coeff == 0 {
			continue
		}
		if k == constKey {
			writeSign(coeff < 0)
			fmt.Fprintf(&b, "%d", abs64(coeff))
			continue
		}
		if strings.Contains(k, "*") {
			writeSign(coeff < 0)
			if abs64(coeff) != 1 {
				fmt.Fprintf(&b, "%d*%s", abs64(coeff), k)
			} else {
				b.WriteString(k)
			}
			continue
		}
		n := abs64(coeff)
		for i := int64(0); i < n; i++ {
			writeSign(coeff < 0)
			b.WriteString(k)
		}
	}
	if first {
		return "0"
	}
	return b.String()
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// ToTerm converts a parsed AST into its term-representation, applying
// substitute for every NodeVar leaf (used to fold in known runtime
// values before simplification).
func ToTerm(n *Node, substitute func(name string) (int64, bool)) (*Term, error) {
	switch n.Kind {
	case NodeLit:
		return FromConstant(n.Value), nil
	case NodeVar:
		if substitute != nil {
			if v, ok := substitute(n.Name); ok {
				return FromConstant(v), nil
			}
		}
		return FromVariable(n.Name), nil
	case NodeNeg:
		x, err := ToTerm(n.X, substitute)
		if err != nil {
			return nil, err
		}
		return x.Negate(), nil
	case NodeBin:
		l, err := ToTerm(n.L, substitute)
		if err != nil {
			return nil, err
		}
		r, err := ToTerm(n.R, substitute)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case "+":
			return l.Add(r), nil
		case "-":
			return l.Sub(r), nil
		case "*":
			return l.Multiply(r), nil
		case "/":
			return l.Divide(r)
		case "&":
			return l.BitwiseAnd(r), nil
		case "|":
			return l.BitwiseOr(r), nil
		case "^":
			return l.BitwiseXor(r), nil
		case "<<":
			return l.ShiftLeft(r), nil
		case ">>":
			return l.ShiftRight(r), nil
		}
	}
	return nil, fmt.Errorf("expr: unhandled node in term conversion")
}
