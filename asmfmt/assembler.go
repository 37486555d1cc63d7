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

// Package asmfmt assembles and disassembles text against isa's single
// encode/decode table. Assembly is two-pass: label definitions (a bare
// "name:" line) don't consume an instruction slot, so their position
// can only be known once the whole stream has been scanned once; the
// second pass then substitutes every `@name:lo`/`@name:hi` forward or
// backward reference the code generator left unresolved and encodes.
package asmfmt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sonmezarda/ArniComp-Support-Package-sub000/isa"
)

// AssembleError reports a failure tied to a specific source line.
type AssembleError struct {
	Line int
	Msg  string
}

func (e *AssembleError) Error() string {
	return fmt.Sprintf("asmfmt: line %d: %s", e.Line, e.Msg)
}

var (
	labelDefRe = regexp.MustCompile(`^([A-Za-z_]\w*):$`)
	labelRefRe = regexp.MustCompile(`^@([A-Za-z_]\w*):(lo|hi)$`)
)

// Program is the result of a successful assembly: the machine code plus
// the label->position map it resolved, kept around for tooling (a
// disassembler wanting to annotate jump targets, a debugger).
type Program struct {
	Code   []byte
	Labels map[string]int
}

// Assemble turns assembly text lines (as emitted by codegen, or written
// by hand) into machine code.
func Assemble(lines []string) (*Program, error) {
	positions := map[string]int{}
	var instrLines []string
	var instrLineNos []int

	pos := 0
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if m := labelDefRe.FindStringSubmatch(line); m != nil {
			positions[m[1]] = pos
			continue
		}
		instrLines = append(instrLines, line)
		instrLineNos = append(instrLineNos, i)
		pos++
	}

	code := make([]byte, 0, len(instrLines))
	for i, line := range instrLines {
		mnem, operands, err := parseLine(line)
		if err != nil {
			return nil, &AssembleError{Line: instrLineNos[i], Msg: err.Error()}
		}
		resolved := make([]string, len(operands))
		for j, op := range operands {
			r, err := resolveOperand(op, positions)
			if err != nil {
				return nil, &AssembleError{Line: instrLineNos[i], Msg: err.Error()}
			}
			resolved[j] = r
		}
		b, err := isa.Encode(mnem, resolved...)
		if err != nil {
			return nil, &AssembleError{Line: instrLineNos[i], Msg: err.Error()}
		}
		code = append(code, b)
	}
	return &Program{Code: code, Labels: positions}, nil
}

func resolveOperand(op string, positions map[string]int) (string, error) {
	m := labelRefRe.FindStringSubmatch(op)
	if m == nil {
		return op, nil
	}
	name, half := m[1], m[2]
	p, ok := positions[name]
	if !ok {
		return "", fmt.Errorf("undefined label %q", name)
	}
	if p < 0 || p > 0xFFFF {
		return "", fmt.Errorf("label %q position %d out of addressable range", name, p)
	}
	var b byte
	if half == "lo" {
		b = byte(p)
	} else {
		b = byte(p >> 8)
	}
	return fmt.Sprintf("#%d", b), nil
}

// parseLine splits one assembly line into its mnemonic and comma-
// separated operand list — general enough for every instruction shape
// the ISA defines, from bare CRA/HLT/NOP to two-operand MOV.
func parseLine(line string) (isa.Mnemonic, []string, error) {
	fields := strings.SplitN(line, " ", 2)
	mnem := isa.Mnemonic(strings.ToUpper(strings.TrimSpace(fields[0])))
	if len(fields) == 1 {
		return mnem, nil, nil
	}
	rest := strings.TrimSpace(fields[1])
	if rest == "" {
		return mnem, nil, nil
	}
	parts := strings.Split(rest, ",")
	operands := make([]string, len(parts))
	for i, p := range parts {
		operands[i] = strings.TrimSpace(p)
	}
	return mnem, operands, nil
}

// Disassemble renders machine code back into one assembly line per byte.
func Disassemble(code []byte) []string {
	lines := make([]string, len(code))
	for i, b := range code {
		lines[i] = isa.Decode(b).String()
	}
	return lines
}
