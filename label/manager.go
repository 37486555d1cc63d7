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

// Package label is the symbolic address book for code the generator
// emits. Positions are updated in place as emission progresses; labels
// do not themselves consume an instruction slot, so a label's recorded
// position is its index in the assembly stream minus the number of
// labels already placed before it.
package label

import "fmt"

// Manager tracks name -> position and hands out unique auto-named
// labels for if/else/while lowering.
type Manager struct {
	positions map[string]int
	count     int // labels placed so far, subtracted from raw indices
	ifSeq     int
	elseSeq   int
	whileSeq  int
}

// NewManager returns an empty label manager.
func NewManager() *Manager {
	return &Manager{positions: make(map[string]int)}
}

// Add records name at the current assembly length, adjusting for labels
// already placed.
func (m *Manager) Add(name string, currentAssemblyLength int) {
	m.positions[name] = currentAssemblyLength - m.count
	m.count++
}

// Position returns name's recorded position, if any.
func (m *Manager) Position(name string) (int, bool) {
	p, ok := m.positions[name]
	return p, ok
}

// IsDefined reports whether name has been recorded.
func (m *Manager) IsDefined(name string) bool {
	_, ok := m.positions[name]
	return ok
}

// Remove deletes name, if present.
func (m *Manager) Remove(name string) {
	delete(m.positions, name)
}

// UpdatePosition moves an already-defined label to a new position,
// called every time intervening emission shifts where it should point.
func (m *Manager) UpdatePosition(name string, currentAssemblyLength int) error {
	if _, ok := m.positions[name]; !ok {
		return fmt.Errorf("label: %q does not exist", name)
	}
	m.positions[name] = currentAssemblyLength - m.count
	return nil
}

// Clear discards all labels (and the running count).
func (m *Manager) Clear() {
	m.positions = make(map[string]int)
	m.count = 0
}

// CreateIfLabel allocates a new "if_N"-style skip label.
func (m *Manager) CreateIfLabel(currentAssemblyLength int) (string, int) {
	m.ifSeq++
	name := fmt.Sprintf("if_%d", m.ifSeq)
	m.Add(name, currentAssemblyLength)
	return name, m.positions[name]
}

// CreateElseLabel allocates a new "else_N"-style end-of-chain label.
func (m *Manager) CreateElseLabel(currentAssemblyLength int) (string, int) {
	m.elseSeq++
	name := fmt.Sprintf("else_%d", m.elseSeq)
	m.Add(name, currentAssemblyLength)
	return name, m.positions[name]
}

// CreateWhileStartLabel allocates a new loop-start label.
func (m *Manager) CreateWhileStartLabel(currentAssemblyLength int) (string, int) {
	m.whileSeq++
	name := fmt.Sprintf("while_start_%d", m.whileSeq)
	m.Add(name, currentAssemblyLength)
	return name, m.positions[name]
}

// CreateWhileEndLabel allocates a new loop-exit label, reusing the
// current while sequence number so start/end pairs are easy to read.
func (m *Manager) CreateWhileEndLabel(currentAssemblyLength int) (string, int) {
	name := fmt.Sprintf("while_end_%d", m.whileSeq)
	m.Add(name, currentAssemblyLength)
	return name, m.positions[name]
}
