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
	"strconv"
)

// Step is one elementary `result <- left op right` three-address
// instruction. Left/Right are either a decimal literal, a variable
// name, or an earlier step's Result (a "_tN" temp).
type Step struct {
	Op     string
	Left   string
	Right  string
	Result string
}

type planner struct {
	steps []Step
	next  int
}

func (p *planner) newTemp() string {
	t := fmt.Sprintf("_t%d", p.next)
	p.next++
	return t
}

// PlanCompilation flattens a parsed expression into a left-to-right,
// precedence-respecting sequence of three-address steps, returning the
// steps plus the name of the operand (a temp, literal, or bare
// variable) holding the final result.
func PlanCompilation(n *Node) ([]Step, string) {
	p := &planner{}
	final := p.flatten(n)
	return p.steps, final
}

func (p *planner) flatten(n *Node) string {
	switch n.Kind {
	case NodeLit:
		return strconv.FormatInt(n.Value, 10)
	case NodeVar:
		return n.Name
	case NodeNeg:
		x := p.flatten(n.X)
		t := p.newTemp()
		p.steps = append(p.steps, Step{Op: "-", Left: "0", Right: x, Result: t})
		return t
	case NodeBin:
		l := p.flatten(n.L)
		r := p.flatten(n.R)
		t := p.newTemp()
		p.steps = append(p.steps, Step{Op: n.Op, Left: l, Right: r, Result: t})
		return t
	}
	return ""
}
