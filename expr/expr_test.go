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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSimplifyAndFold(t *testing.T) {
	// S7: simplify("0xFF & 0x0F") == "15"
	require.Equal(t, "15", Simplify("0xFF & 0x0F"))
}

func TestSimplifyPureConstantArithmetic(t *testing.T) {
	// S2 shape: (a+b)*3+10 with a,b substituted to known constants.
	got, err := SimplifyWithKnownValues("(a+b)*3 + 10", map[string]int64{"a": 10, "b": 20})
	require.NoError(t, err)
	require.Equal(t, "100", got)
}

func TestSimplifyMergesCoefficients(t *testing.T) {
	require.Equal(t, "x + x + 1", Simplify("x + 1 + x"))
}

func TestSimplifyFallsBackOnParseError(t *testing.T) {
	// Unbalanced parens: falls back to returning input unchanged.
	require.Equal(t, "(a + b", Simplify("(a + b"))
}

func TestDivisionByVariableErrors(t *testing.T) {
	n, err := Parse("a / b")
	require.NoError(t, err)
	_, err = ToTerm(n, nil)
	require.Error(t, err)
}

func TestPlanCompilationLeftToRight(t *testing.T) {
	n, err := Parse("a + b * 2")
	require.NoError(t, err)
	// Simplify first so the *2 constant-multiply degrades to repeated
	// addition, as the code generator requires before planning.
	simplified := Simplify("a + b*2")
	require.Equal(t, "a + b + b", simplified)

	n2, err := Parse(simplified)
	require.NoError(t, err)
	steps, final := PlanCompilation(n2)
	require.NotEmpty(t, steps)
	require.Equal(t, "_t1", final)
	_ = n
}

func TestPlanCompilationBareVariableHasNoSteps(t *testing.T) {
	n, err := Parse("x")
	require.NoError(t, err)
	steps, final := PlanCompilation(n)
	require.Empty(t, steps)
	require.Equal(t, "x", final)
}
