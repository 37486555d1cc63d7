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
package regcache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMovPropagation(t *testing.T) {
	c := New()
	c.SetMode(RA, State{Mode: Const, ConstVal: 42})
	c.Mov(RD, RA)
	require.Equal(t, Const, c.Get(RD).Mode)
	require.Equal(t, uint8(42), c.Get(RD).ConstVal)

	c.SetMode(RA, unknownState())
	c.Mov(RD, RA)
	require.Equal(t, Unknown, c.Get(RD).Mode)
}

func TestSelfMoveElided(t *testing.T) {
	c := New()
	c.SetMode(RA, State{Mode: Const, ConstVal: 9})
	c.Mov(RA, RA)
	require.Equal(t, uint8(9), c.Get(RA).ConstVal)
}

func TestFindConstAndVariable(t *testing.T) {
	c := New()
	c.SetMode(RD, State{Mode: Const, ConstVal: 7})
	n, ok := c.FindConst(7)
	require.True(t, ok)
	require.Equal(t, RD, n)

	c.SetMode(MARL, State{Mode: Value, Variable: "x"})
	n, ok = c.FindVariable("x")
	require.True(t, ok)
	require.Equal(t, MARL, n)
}

func TestChangedRegistersGoUnknownOnJoin(t *testing.T) {
	c := New()
	c.ResetChangeDetector()
	c.SetMode(RA, State{Mode: Const, ConstVal: 1})
	c.SetChangedRegistersAsUnknown()
	require.Equal(t, Unknown, c.Get(RA).Mode)
}

func TestAbsAddrTagIndependentOfMode(t *testing.T) {
	c := New()
	c.SetAbsAddr(MARL, 0x10)
	c.SetMode(MARL, State{Mode: Value, Variable: "arr"})
	require.True(t, c.Get(MARL).HasAbsAddr)
	require.Equal(t, uint16(0x10), c.Get(MARL).AbsAddr)
}
