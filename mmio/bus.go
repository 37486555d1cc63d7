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

// Package mmio is the data-memory bus the emulator reads and writes
// through: a flat 64K RAM array with a first-match-wins list of
// memory-mapped devices layered on top of it.
package mmio

const RAMSize = 65536

// Device is anything addressable on the bus besides plain RAM.
type Device interface {
	ID() string
	Name() string
	InRange(addr uint16) bool
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
	Reset()
	Info() DeviceInfo
}

// DeviceInfo is a device's static identity plus whatever state it wants
// to surface for diagnostics (the seven-segment device adds its current
// value and segment decomposition here).
type DeviceInfo struct {
	ID    string
	Name  string
	Base  uint16
	Size  uint16
	Extra map[string]any
}

// BaseDevice implements the address-range bookkeeping every concrete
// device embeds; Read/Write/Reset are no-ops left for the embedder to
// override.
type BaseDevice struct {
	IDVal   string
	NameVal string
	Base    uint16
	Size    uint16
}

func (d *BaseDevice) ID() string   { return d.IDVal }
func (d *BaseDevice) Name() string { return d.NameVal }

func (d *BaseDevice) InRange(addr uint16) bool {
	return addr >= d.Base && uint32(addr) < uint32(d.Base)+uint32(d.Size)
}

func (d *BaseDevice) Read(addr uint16) uint8    { return 0 }
func (d *BaseDevice) Write(addr uint16, v uint8) {}
func (d *BaseDevice) Reset()                    {}

func (d *BaseDevice) Info() DeviceInfo {
	return DeviceInfo{ID: d.IDVal, Name: d.NameVal, Base: d.Base, Size: d.Size}
}

// Bus routes every 16-bit data-memory access to the first device whose
// range covers it, falling back to plain RAM.
type Bus struct {
	RAM     [RAMSize]byte
	devices []Device
}

// NewBus returns an empty bus with zeroed RAM and no attached devices.
func NewBus() *Bus {
	return &Bus{}
}

// Attach registers dev. Devices are consulted in attachment order, so
// the first one whose range covers an address wins — spec.md §4.I and
// §8's Testable Property on device precedence.
func (b *Bus) Attach(dev Device) {
	b.devices = append(b.devices, dev)
}

// FindDevice returns the first attached device covering addr, or nil.
func (b *Bus) FindDevice(addr uint16) Device {
	for _, d := range b.devices {
		if d.InRange(addr) {
			return d
		}
	}
	return nil
}

func (b *Bus) Read8(addr uint16) uint8 {
	if d := b.FindDevice(addr); d != nil {
		return d.Read(addr)
	}
	return b.RAM[addr]
}

func (b *Bus) Write8(addr uint16, value uint8) {
	if d := b.FindDevice(addr); d != nil {
		d.Write(addr, value)
		return
	}
	b.RAM[addr] = value
}

// Reset zeroes RAM and resets every attached device.
func (b *Bus) Reset() {
	for i := range b.RAM {
		b.RAM[i] = 0
	}
	for _, d := range b.devices {
		d.Reset()
	}
}

// DevicesInfo reports every attached device's identity and current
// state, for CLI introspection (`target8 run --list-devices`).
func (b *Bus) DevicesInfo() []DeviceInfo {
	infos := make([]DeviceInfo, len(b.devices))
	for i, d := range b.devices {
		infos[i] = d.Info()
	}
	return infos
}
