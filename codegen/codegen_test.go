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
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func countPrefix(lines []string, prefix string) int {
	n := 0
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l
}

func TestCompileConstantFoldedAssignment(t *testing.T) {
	src := `
byte x = 2 + 3
`
	lines, err := Compile(src, DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	require.Contains(t, lines, "LDI #5")
	require.Equal(t, 0, countPrefix(lines, "ADD"))
}

func TestCompileSelfIncrementFastPath(t *testing.T) {
	src := `
byte x = 1
x = x + 3
`
	lines, err := Compile(src, DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	require.Equal(t, 0, countPrefix(lines, "ADDI"))
	require.Contains(t, lines, "LDI #4")
}

func TestCompileSelfIncrementRuntimeWhenUnknown(t *testing.T) {
	src := `
byte x
dasm
MOV RD, PCL
endasm
x = x + 2
`
	lines, err := Compile(src, DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	require.Equal(t, 1, countPrefix(lines, "ADDI"))
}

func TestCompileDeadStoreElided(t *testing.T) {
	src := `
byte x = 5
x = 5
`
	lines, err := Compile(src, DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	require.Equal(t, 1, countPrefix(lines, "LDI #5"))
}

func TestCompileAndOperator(t *testing.T) {
	src := `
byte a
byte b
byte c = a & b
`
	lines, err := Compile(src, DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	require.Contains(t, lines, "ADD CLR")
	require.Contains(t, lines, "AND RA")
}

func TestCompileOrOperatorSynthesizedViaDeMorgan(t *testing.T) {
	src := `
byte a
byte b
byte c = a | b
`
	lines, err := Compile(src, DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	require.GreaterOrEqual(t, countPrefix(lines, "SUB"), 3) // NOT(a), NOT(b), NOT(result)
	require.Contains(t, lines, "AND RA")
}

func TestCompileXorOperator(t *testing.T) {
	src := `
byte a
byte b
byte c = a ^ b
`
	lines, err := Compile(src, DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	// a&notB, notA&b, plus the De Morgan OR composing them.
	require.Equal(t, 3, countPrefix(lines, "AND RA"))
}

func TestCompileLeftShiftByConstantUnrolled(t *testing.T) {
	src := `
byte a
byte c = a << 3
`
	lines, err := Compile(src, DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	require.Equal(t, 3, countPrefix(lines, "ADD RA"))
}

func TestCompileRightShiftIsSemanticError(t *testing.T) {
	src := `
byte a
byte c = a >> 1
`
	_, err := Compile(src, DefaultConfig(), newTestLogger())
	require.Error(t, err)
	var semErr *SemanticError
	require.ErrorAs(t, err, &semErr)
}

func TestCompileIfFullyResolvedAtCompileTime(t *testing.T) {
	src := `
byte x = 1
if x == 1
  byte y = 9
endif
`
	lines, err := Compile(src, DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	require.Equal(t, 0, countPrefix(lines, "JEQ"))
	require.Equal(t, 0, countPrefix(lines, "JNE"))
	require.Contains(t, lines, "LDI #9")
}

func TestCompileIfResolvedFalseSkipsBranchEntirely(t *testing.T) {
	src := `
byte x = 1
if x == 2
  byte y = 9
endif
`
	lines, err := Compile(src, DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	for _, l := range lines {
		require.NotEqual(t, "LDI #9", l)
	}
}

func TestCompileIfRuntimeEmitsJumpAndLabels(t *testing.T) {
	src := `
byte x
if x == 1
  byte y = 9
endif
`
	lines, err := Compile(src, DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	// An "if x == 1" branch skips over its body on the inverse condition.
	require.Equal(t, 1, countPrefix(lines, "JNE"))
	foundLabel := false
	for _, l := range lines {
		if strings.HasPrefix(l, "if_") && strings.HasSuffix(l, ":") {
			foundLabel = true
		}
	}
	require.True(t, foundLabel)
}

func TestCompileWhileInfiniteLoop(t *testing.T) {
	src := `
while 1 == 1
  byte x = 1
endwhile
`
	lines, err := Compile(src, DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	require.Equal(t, 1, countPrefix(lines, "JMP"))
	require.Equal(t, 0, countPrefix(lines, "JEQ"))
}

func TestCompileWhileBypassNeverEmitsBody(t *testing.T) {
	src := `
while 1 == 2
  byte x = 1
endwhile
`
	lines, err := Compile(src, DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	require.Equal(t, []string{"HLT"}, lines) // dead loop body never lowered
}

func TestCompileWhileConditionalRuntimeLoop(t *testing.T) {
	src := `
byte x
while x == 0
  byte y = 1
endwhile
`
	lines, err := Compile(src, DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	require.Equal(t, 1, countPrefix(lines, "JNE"))
	require.Equal(t, 1, countPrefix(lines, "JMP"))
}

func TestCompileWhileHoistsLoopInvariantMAR(t *testing.T) {
	src := `
byte[4] arr
while 1 == 1
  arr[0] = 1
  arr[0] = 2
endwhile
`
	lines, err := Compile(src, DefaultConfig(), newTestLogger())
	require.NoError(t, err)

	startIdx := -1
	for i, l := range lines {
		if strings.HasPrefix(l, "while_start_") && strings.HasSuffix(l, ":") {
			startIdx = i
			break
		}
	}
	require.GreaterOrEqual(t, startIdx, 0, "expected a while start label")

	// Every arr[0] store sets the same address, so the whole MAR-set
	// sequence is invariant across the loop body and must be hoisted
	// into the preheader, once, rather than repeated before each store.
	require.Equal(t, 1, countPrefix(lines, "MOV MARL"))

	marIdx := -1
	for i, l := range lines {
		if strings.HasPrefix(l, "MOV MARL") {
			marIdx = i
			break
		}
	}
	require.Less(t, marIdx, startIdx, "MAR set must be hoisted before the loop start label")

	for _, l := range lines[startIdx:] {
		require.False(t, strings.HasPrefix(l, "MOV MARL"), "no MAR set should remain between the loop's stores")
	}
}

func TestCompileArrayReadAndWrite(t *testing.T) {
	src := `
byte[4] buf
buf[0] = 7
byte v = buf[0]
`
	lines, err := Compile(src, DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	require.Contains(t, lines, "LDI #7")
}

func TestCompileDerefAndDirectAddrStore(t *testing.T) {
	src := `
byte v = *0x10
*0x20 = v
`
	lines, err := Compile(src, DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	require.NotEmpty(t, lines)
}

func TestCompileUint16RequiresConstantInitializer(t *testing.T) {
	src := `
byte x
uint16 ptr = x
`
	_, err := Compile(src, DefaultConfig(), newTestLogger())
	require.Error(t, err)
}

func TestCompileUint16ConstantInitializer(t *testing.T) {
	src := `
uint16 ptr = 0x1234
`
	lines, err := Compile(src, DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	require.Contains(t, lines, "LDI #52") // 0x34
	require.Contains(t, lines, "LDI #18") // 0x12
}

func TestCompileDirectAssemblyInvalidatesState(t *testing.T) {
	src := `
byte x = 5
dasm
MOV RD, RA
endasm
x = 5
`
	lines, err := Compile(src, DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	require.Equal(t, 2, countPrefix(lines, "LDI #5"))
}

func TestCompileEndsWithHalt(t *testing.T) {
	lines, err := Compile("byte x = 1", DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	require.Equal(t, "HLT", lines[len(lines)-1])
}

func TestCompileFreeAllowsReuseOfAddress(t *testing.T) {
	src := `
byte a = 1
free a
byte b = 2
`
	_, err := Compile(src, DefaultConfig(), newTestLogger())
	require.NoError(t, err)
}

func TestCompileUndefinedVariableIsSemanticError(t *testing.T) {
	_, err := Compile("x = 1", DefaultConfig(), newTestLogger())
	require.Error(t, err)
	var semErr *SemanticError
	require.ErrorAs(t, err, &semErr)
}

func TestCompileDynamicArrayReadOutsideLowPageIsSemanticError(t *testing.T) {
	// pad fills [0,255), so arr lands at 0xFF and spans into 0x100 --
	// a dynamic index can't be trusted not to overflow MARL into MARH.
	src := `
byte[255] pad
byte[4] arr
byte idx
byte v = arr[idx]
`
	_, err := Compile(src, DefaultConfig(), newTestLogger())
	require.Error(t, err)
	var semErr *SemanticError
	require.ErrorAs(t, err, &semErr)
	require.Equal(t, "dynamic array index outside low-page constraint", semErr.Msg)
}

func TestCompileDynamicArrayWriteOutsideLowPageIsSemanticError(t *testing.T) {
	src := `
byte[255] pad
byte[4] arr
byte idx
arr[idx] = 1
`
	_, err := Compile(src, DefaultConfig(), newTestLogger())
	require.Error(t, err)
	var semErr *SemanticError
	require.ErrorAs(t, err, &semErr)
	require.Equal(t, "dynamic array index outside low-page constraint", semErr.Msg)
}
