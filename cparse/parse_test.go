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
	"testing"

	"github.com/sonmezarda/ArniComp-Support-Package-sub000/varmem"
	"github.com/stretchr/testify/require"
)

func TestParseVarDefAndAssign(t *testing.T) {
	lines := Preprocess("byte a = 10;\nbyte b = 20;\nbyte c = (a+b)*3 + 10;\n")
	cmds, err := Parse(lines)
	require.NoError(t, err)
	require.Len(t, cmds, 3)
	require.Equal(t, KindVarDef, cmds[0].Kind)
	require.Equal(t, varmem.Byte, cmds[0].VarDef.Kind)
	require.Equal(t, "10", cmds[0].VarDef.Init)
}

func TestParseIfElseNesting(t *testing.T) {
	src := `
byte x = 5;
volatile byte v;
if v == 1
x = 10;
else
x = 20;
endif
byte y = x + 1;
`
	lines := Preprocess(src)
	cmds, err := Parse(lines)
	require.NoError(t, err)
	require.Len(t, cmds, 4)
	require.Equal(t, KindIf, cmds[2].Kind)
	require.True(t, cmds[2].If.HasElse)
	require.Equal(t, CondEQ, cmds[2].If.Branches[0].Cond.Op)
}

func TestParseWhileAndDasm(t *testing.T) {
	src := `
byte arr[4];
while 1 == 1
arr[0] = 1;
endwhile
dasm
NOP
endasm
`
	lines := Preprocess(src)
	cmds, err := Parse(lines)
	require.NoError(t, err)
	require.Len(t, cmds, 3)
	require.Equal(t, KindWhile, cmds[1].Kind)
	require.Equal(t, KindDirectAssembly, cmds[2].Kind)
	require.Equal(t, []string{"NOP"}, cmds[2].DirectAssembly.Lines)
}

func TestMissingEndifErrors(t *testing.T) {
	lines := Preprocess("if 1 == 1\nbyte a = 1;\n")
	_, err := Parse(lines)
	require.Error(t, err)
}

func TestDefineMacroExpansion(t *testing.T) {
	src := "#define SIZE 4\nbyte arr[SIZE];\n"
	lines := Preprocess(src)
	require.Equal(t, []string{"byte arr[4]"}, lines)
}

func TestStoreDirectAddress(t *testing.T) {
	lines := Preprocess("*0xFF00 = 5;\n")
	cmds, err := Parse(lines)
	require.NoError(t, err)
	require.Equal(t, KindAssign, cmds[0].Kind)
	require.Equal(t, TargetDirectAddr, cmds[0].Assign.Target.Kind)
	require.Equal(t, uint16(0xFF00), cmds[0].Assign.Target.Addr)
}
