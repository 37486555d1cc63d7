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
package varmem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocationFirstFit(t *testing.T) {
	m := NewManager(0, 4)
	a, err := m.CreateVariable("a", Byte, false)
	require.NoError(t, err)
	require.Equal(t, uint16(0), a.Address)

	b, err := m.CreateArrayVariable("b", 2, false)
	require.NoError(t, err)
	require.Equal(t, uint16(1), b.Address)

	_, err = m.CreateVariable("overflow", Uint16, false)
	require.Error(t, err)
}

func TestDuplicateAndInvalidName(t *testing.T) {
	m := NewManager(0, 16)
	_, err := m.CreateVariable("ok", Byte, false)
	require.NoError(t, err)
	_, err = m.CreateVariable("ok", Byte, false)
	require.Error(t, err)
	_, err = m.CreateVariable("1bad", Byte, false)
	require.Error(t, err)
}

func TestFreeClearsNameAddressAndValue(t *testing.T) {
	m := NewManager(0, 16)
	v, err := m.CreateVariable("x", Byte, false)
	require.NoError(t, err)
	m.SetKnown(v.Address, 7)

	require.NoError(t, m.Free("x"))
	_, ok := m.Get("x")
	require.False(t, ok)
	_, ok = m.GetFromAddress(v.Address)
	require.False(t, ok)
	_, ok = m.Known(v.Address)
	require.False(t, ok)
}

func TestRuntimeValueInvalidation(t *testing.T) {
	m := NewManager(0, 16)
	v, _ := m.CreateVariable("c", Byte, false)
	m.SetKnown(v.Address, 100)
	val, ok := m.Known(v.Address)
	require.True(t, ok)
	require.Equal(t, uint8(100), val)

	m.InvalidateAll()
	_, ok = m.Known(v.Address)
	require.False(t, ok)
}
