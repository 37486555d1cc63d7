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
package cparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sonmezarda/ArniComp-Support-Package-sub000/expr"
	"github.com/sonmezarda/ArniComp-Support-Package-sub000/varmem"
)

// ParseError reports a hard parser failure at a specific source line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cparse: line %d: %s", e.Line, e.Msg)
}

var (
	defineRe      = regexp.MustCompile(`^#define\s+(\w+)\s+(.+)$`)
	freeRe        = regexp.MustCompile(`^free\s+(\w+)$`)
	varDefRe      = regexp.MustCompile(`^(?i)(volatile\s+)?(byte|uint16)(\[(\d*)\])?(\s+volatile)?\s+([A-Za-z_]\w*)\s*=\s*(.+)$`)
	varDefNoValRe = regexp.MustCompile(`^(?i)(volatile\s+)?(byte|uint16)(\[(\d*)\])?(\s+volatile)?\s+([A-Za-z_]\w*)(\[(\d*)\])?$`)
	assignArrRe   = regexp.MustCompile(`^([A-Za-z_]\w*)\s*\[\s*([^\]]+)\s*\]\s*=\s*(.+)$`)
	assignVarRe   = regexp.MustCompile(`^([A-Za-z_]\w*)\s*=\s*(.+)$`)
	storeAddrRe   = regexp.MustCompile(`^\*\s*(0[xX][0-9A-Fa-f_]+|0[bB][01_]+|\d+)\s*=\s*(.+)$`)
	ifRe          = regexp.MustCompile(`^if\s+(.+)$`)
	elifRe        = regexp.MustCompile(`^elif\s+(.+)$`)
	elseRe        = regexp.MustCompile(`^else$`)
	endifRe       = regexp.MustCompile(`^endif$`)
	whileRe       = regexp.MustCompile(`^while\s+(.+)$`)
	endwhileRe    = regexp.MustCompile(`^endwhile$`)
	dasmRe        = regexp.MustCompile(`^dasm$`)
	endasmRe      = regexp.MustCompile(`^endasm$`)
	condOpRe      = regexp.MustCompile(`==|!=|>=|<=|>|<`)
)

// Preprocess strips comments/blank lines, drops the optional trailing
// ';', and expands `#define NAME repl` macros as whole-identifier
// substitutions, re-scanning up to 5 times so a macro body may itself
// reference an earlier macro.
func Preprocess(src string) []string {
	var lines []string
	for _, raw := range strings.Split(src, "\n") {
		line := raw
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		line = strings.TrimSuffix(line, ";")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	macros := map[string]string{}
	var body []string
	for _, line := range lines {
		if m := defineRe.FindStringSubmatch(line); m != nil {
			macros[m[1]] = m[2]
			continue
		}
		body = append(body, line)
	}
	if len(macros) == 0 {
		return body
	}
	identRe := regexp.MustCompile(`\b\w+\b`)
	for iter := 0; iter < 5; iter++ {
		changed := false
		for i, line := range body {
			replaced := identRe.ReplaceAllStringFunc(line, func(id string) string {
				if repl, ok := macros[id]; ok {
					changed = true
					return repl
				}
				return id
			})
			body[i] = replaced
		}
		if !changed {
			break
		}
	}
	return body
}

// Parse builds a top-level command Block from already-preprocessed
// source lines.
func Parse(lines []string) ([]Command, error) {
	p := &parser{lines: lines}
	cmds, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.lines) {
		return nil, &ParseError{p.pos, fmt.Sprintf("unexpected trailing content %q", p.lines[p.pos])}
	}
	return cmds, nil
}

type parser struct {
	lines []string
	pos   int
}

func (p *parser) atEnd() bool { return p.pos >= len(p.lines) }

func (p *parser) cur() string { return p.lines[p.pos] }

// parseBlock parses commands until end of input or a terminator keyword
// (endif/endwhile/elif/else) that the caller will consume.
func (p *parser) parseBlock() ([]Command, error) {
	var cmds []Command
	for !p.atEnd() {
		line := p.cur()
		if endifRe.MatchString(line) || endwhileRe.MatchString(line) ||
			elifRe.MatchString(line) || elseRe.MatchString(line) {
			return cmds, nil
		}
		cmd, err := p.parseOne()
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func (p *parser) parseOne() (Command, error) {
	lineNo := p.pos
	line := p.cur()

	switch {
	case dasmRe.MatchString(line):
		p.pos++
		var asmLines []string
		for !p.atEnd() && !endasmRe.MatchString(p.cur()) {
			asmLines = append(asmLines, p.cur())
			p.pos++
		}
		if p.atEnd() {
			return Command{}, &ParseError{lineNo, "missing endasm"}
		}
		p.pos++ // consume endasm
		return Command{Kind: KindDirectAssembly, Line: lineNo, DirectAssembly: &DirectAssembly{Lines: asmLines}}, nil

	case ifRe.MatchString(line):
		return p.parseIf()

	case whileRe.MatchString(line):
		return p.parseWhile()

	case freeRe.MatchString(line):
		m := freeRe.FindStringSubmatch(line)
		p.pos++
		return Command{Kind: KindFree, Line: lineNo, Free: &Free{Name: m[1]}}, nil

	case varDefRe.MatchString(line):
		m := varDefRe.FindStringSubmatch(line)
		p.pos++
		vd, err := buildVarDef(m, true, lineNo)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindVarDef, Line: lineNo, VarDef: vd}, nil

	case varDefNoValRe.MatchString(line):
		m := varDefNoValRe.FindStringSubmatch(line)
		p.pos++
		vd, err := buildVarDefNoValue(m, lineNo)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindVarDef, Line: lineNo, VarDef: vd}, nil

	case storeAddrRe.MatchString(line):
		m := storeAddrRe.FindStringSubmatch(line)
		p.pos++
		addr, err := parseIntLiteral(m[1])
		if err != nil {
			return Command{}, &ParseError{lineNo, err.Error()}
		}
		target := AssignTarget{Kind: TargetDirectAddr, Addr: uint16(addr)}
		return Command{Kind: KindAssign, Line: lineNo, Assign: &Assign{Target: target, RHS: m[2]}}, nil

	case assignArrRe.MatchString(line):
		m := assignArrRe.FindStringSubmatch(line)
		p.pos++
		target := AssignTarget{Kind: TargetArrayElem, Name: m[1], IndexExpr: m[2]}
		return Command{Kind: KindAssign, Line: lineNo, Assign: &Assign{Target: target, RHS: m[3]}}, nil

	case assignVarRe.MatchString(line):
		m := assignVarRe.FindStringSubmatch(line)
		p.pos++
		target := AssignTarget{Kind: TargetVar, Name: m[1]}
		return Command{Kind: KindAssign, Line: lineNo, Assign: &Assign{Target: target, RHS: m[2]}}, nil
	}

	return Command{}, &ParseError{lineNo, fmt.Sprintf("unrecognized statement %q", line)}
}

func buildVarDef(m []string, hasInit bool, lineNo int) (*VarDef, error) {
	volatile := m[1] != "" || m[5] != ""
	baseType := strings.ToLower(m[2])
	sizeText := m[4]
	name := m[6]
	initExpr := ""
	if len(m) > 7 {
		initExpr = m[7]
	}

	vd := &VarDef{Name: name, Volatile: volatile, Init: initExpr, HasInit: hasInit}
	if m[3] != "" { // bracket present => array
		vd.Kind = varmem.ByteArray
		if sizeText != "" {
			n, err := strconv.Atoi(sizeText)
			if err != nil {
				return nil, &ParseError{lineNo, fmt.Sprintf("invalid array length %q", sizeText)}
			}
			vd.ArrayLen = n
		}
		return nil, &ParseError{lineNo, "array initialization is not supported"}
	}
	if baseType == "byte" {
		vd.Kind = varmem.Byte
	} else {
		vd.Kind = varmem.Uint16
	}
	return vd, nil
}

func buildVarDefNoValue(m []string, lineNo int) (*VarDef, error) {
	if m[3] == "" && m[7] != "" { // `byte name[N]` declares the same array
		m[3], m[4] = m[7], m[8]
	}
	volatile := m[1] != "" || m[5] != ""
	baseType := strings.ToLower(m[2])
	sizeText := m[4]
	name := m[6]

	vd := &VarDef{Name: name, Volatile: volatile}
	if m[3] != "" {
		vd.Kind = varmem.ByteArray
		if sizeText == "" {
			return nil, &ParseError{lineNo, "array length must be specified"}
		}
		n, err := strconv.Atoi(sizeText)
		if err != nil {
			return nil, &ParseError{lineNo, fmt.Sprintf("invalid array length %q", sizeText)}
		}
		vd.ArrayLen = n
		return vd, nil
	}
	if baseType == "byte" {
		vd.Kind = varmem.Byte
	} else {
		vd.Kind = varmem.Uint16
	}
	return vd, nil
}

func (p *parser) parseIf() (Command, error) {
	lineNo := p.pos
	m := ifRe.FindStringSubmatch(p.cur())
	p.pos++
	cond, err := parseCond(m[1], lineNo)
	if err != nil {
		return Command{}, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return Command{}, err
	}
	ifCmd := &If{Branches: []Branch{{Cond: cond, Body: body}}}

	for !p.atEnd() && elifRe.MatchString(p.cur()) {
		eln := p.pos
		em := elifRe.FindStringSubmatch(p.cur())
		p.pos++
		ec, err := parseCond(em[1], eln)
		if err != nil {
			return Command{}, err
		}
		ebody, err := p.parseBlock()
		if err != nil {
			return Command{}, err
		}
		ifCmd.Branches = append(ifCmd.Branches, Branch{Cond: ec, Body: ebody})
	}
	if !p.atEnd() && elseRe.MatchString(p.cur()) {
		p.pos++
		ebody, err := p.parseBlock()
		if err != nil {
			return Command{}, err
		}
		ifCmd.Else = ebody
		ifCmd.HasElse = true
	}
	if p.atEnd() || !endifRe.MatchString(p.cur()) {
		return Command{}, &ParseError{lineNo, "missing endif"}
	}
	p.pos++
	return Command{Kind: KindIf, Line: lineNo, If: ifCmd}, nil
}

func (p *parser) parseWhile() (Command, error) {
	lineNo := p.pos
	m := whileRe.FindStringSubmatch(p.cur())
	p.pos++
	cond, err := parseCond(m[1], lineNo)
	if err != nil {
		return Command{}, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return Command{}, err
	}
	if p.atEnd() || !endwhileRe.MatchString(p.cur()) {
		return Command{}, &ParseError{lineNo, "missing endwhile"}
	}
	p.pos++
	return Command{Kind: KindWhile, Line: lineNo, While: &While{Cond: cond, Body: body}}, nil
}

func parseCond(s string, lineNo int) (Cond, error) {
	s = strings.TrimSpace(s)
	loc := condOpRe.FindStringIndex(s)
	if loc == nil {
		return Cond{}, &ParseError{lineNo, fmt.Sprintf("malformed condition %q", s)}
	}
	op := CondOp(s[loc[0]:loc[1]])
	lhs := strings.TrimSpace(s[:loc[0]])
	rhs := strings.TrimSpace(s[loc[1]:])
	if lhs == "" || rhs == "" {
		return Cond{}, &ParseError{lineNo, fmt.Sprintf("malformed condition %q", s)}
	}
	c := Cond{Op: op, LHS: lhs}
	if expr.IsNumber(rhs) {
		v, err := expr.ParseNumber(rhs)
		if err != nil {
			return Cond{}, &ParseError{lineNo, err.Error()}
		}
		c.RHSIsLit = true
		c.RHSLit = v
	} else {
		c.RHSVar = rhs
	}
	return c, nil
}

func parseIntLiteral(s string) (int64, error) {
	return expr.ParseNumber(s)
}
