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
package mmio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBusPlainRAMRoundTrip(t *testing.T) {
	b := NewBus()
	b.Write8(0x1234, 0x42)
	require.Equal(t, uint8(0x42), b.Read8(0x1234))
	require.Equal(t, uint8(0), b.Read8(0x1235))
}

func TestBusDeviceTakesPrecedenceOverRAM(t *testing.T) {
	b := NewBus()
	seg := NewSevenSegmentDevice("seg0", DefaultSevenSegBase, nil)
	b.Attach(seg)

	b.RAM[DefaultSevenSegBase] = 0x11 // would be returned if RAM won
	b.Write8(DefaultSevenSegBase, 0x7F)
	require.Equal(t, uint8(0x7F), b.Read8(DefaultSevenSegBase))
	require.Equal(t, uint8(0x11), b.RAM[DefaultSevenSegBase]) // RAM untouched
}

func TestBusFirstMatchWins(t *testing.T) {
	b := NewBus()
	first := NewSevenSegmentDevice("first", 0x100, nil)
	second := NewSevenSegmentDevice("second", 0x100, nil)
	b.Attach(first)
	b.Attach(second)

	b.Write8(0x100, 9)
	require.Equal(t, uint8(9), first.Value)
	require.Equal(t, uint8(0), second.Value)
}

func TestBusResetClearsRAMAndDevices(t *testing.T) {
	b := NewBus()
	seg := NewSevenSegmentDevice("seg0", DefaultSevenSegBase, nil)
	b.Attach(seg)
	b.Write8(0x10, 5)
	b.Write8(DefaultSevenSegBase, 0x3F)

	b.Reset()
	require.Equal(t, uint8(0), b.Read8(0x10))
	require.Equal(t, uint8(0), seg.Value)
}

func TestSevenSegmentOnChangeCallback(t *testing.T) {
	var got DeviceInfo
	seg := NewSevenSegmentDevice("seg0", DefaultSevenSegBase, func(i DeviceInfo) { got = i })
	seg.Write(DefaultSevenSegBase, 0b0000_0011) // a, b lit

	require.Equal(t, "seg0", got.ID)
	require.Equal(t, true, got.Extra["segments"].(map[string]any)["a"])
	require.Equal(t, true, got.Extra["segments"].(map[string]any)["b"])
	require.Equal(t, false, got.Extra["segments"].(map[string]any)["c"])
}

func TestDevicesInfoReportsEveryAttachedDevice(t *testing.T) {
	b := NewBus()
	b.Attach(NewSevenSegmentDevice("seg0", DefaultSevenSegBase, nil))
	infos := b.DevicesInfo()
	require.Len(t, infos, 1)
	require.Equal(t, "seg0", infos[0].ID)
	require.Equal(t, uint16(DefaultSevenSegBase), infos[0].Base)
}
