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

// segBits names the seven segments plus decimal point in the order
// their bit latches the device's single data byte.
var segBits = [8]string{"a", "b", "c", "d", "e", "f", "g", "dp"}

// SevenSegmentDevice is a single-byte MMIO output: writing it latches a
// display value, each bit driving one segment. DefaultSevenSegBase is
// the reference toolchain's default attachment address.
const DefaultSevenSegBase = 0xFF00

type SevenSegmentDevice struct {
	BaseDevice
	Value    uint8
	OnChange func(DeviceInfo)
}

// NewSevenSegmentDevice attaches at base with a 1-byte footprint.
func NewSevenSegmentDevice(id string, base uint16, onChange func(DeviceInfo)) *SevenSegmentDevice {
	return &SevenSegmentDevice{
		BaseDevice: BaseDevice{IDVal: id, NameVal: "SevenSegment", Base: base, Size: 1},
		OnChange:   onChange,
	}
}

func (d *SevenSegmentDevice) Read(addr uint16) uint8 { return d.Value }

func (d *SevenSegmentDevice) Write(addr uint16, value uint8) {
	d.Value = value
	if d.OnChange != nil {
		d.OnChange(d.Info())
	}
}

func (d *SevenSegmentDevice) Reset() {
	d.Value = 0
	if d.OnChange != nil {
		d.OnChange(d.Info())
	}
}

// Info reports the latched value plus its per-segment bit decomposition.
func (d *SevenSegmentDevice) Info() DeviceInfo {
	segments := make(map[string]any, len(segBits))
	for i, name := range segBits {
		segments[name] = (d.Value>>uint(i))&1 == 1
	}
	info := d.BaseDevice.Info()
	info.Extra = map[string]any{
		"value":    d.Value,
		"segments": segments,
	}
	return info
}
