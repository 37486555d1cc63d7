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

	"github.com/sirupsen/logrus"

	"github.com/sonmezarda/ArniComp-Support-Package-sub000/cparse"
)

// lowerCommand dispatches a single parsed command to its lowering rule.
func (e *Emitter) lowerCommand(c cparse.Command) error {
	switch c.Kind {
	case cparse.KindVarDef:
		return e.lowerVarDef(c.Line, c.VarDef)
	case cparse.KindAssign:
		return e.lowerAssign(c.Line, c.Assign)
	case cparse.KindFree:
		return e.lowerFree(c.Line, c.Free)
	case cparse.KindDirectAssembly:
		e.lowerDirectAssembly(c.DirectAssembly)
		return nil
	case cparse.KindIf:
		return e.lowerIf(c.Line, c.If)
	case cparse.KindWhile:
		return e.lowerWhile(c.Line, c.While)
	}
	return &SemanticError{Line: c.Line, Msg: fmt.Sprintf("unhandled command kind %d", c.Kind)}
}

// Compile is the code generator's single entry point: it preprocesses
// and parses source, then lowers every top-level command in sequence
// into a flat stream of symbolic assembly lines (jump targets still
// carry unresolved `@label:lo`/`@label:hi` tokens for the assembler's
// label-substitution pass), followed by a peephole cleanup pass.
func Compile(source string, cfg Config, log *logrus.Logger) ([]string, error) {
	lines := cparse.Preprocess(source)
	cmds, err := cparse.Parse(lines)
	if err != nil {
		return nil, err
	}

	ctx := NewContext(cfg, log)
	em := ctx.NewEmitter()
	for _, c := range cmds {
		if err := em.lowerCommand(c); err != nil {
			return nil, err
		}
	}
	em.hlt()
	return peephole(em.Lines), nil
}
