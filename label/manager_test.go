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
package label

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLabelArithmetic(t *testing.T) {
	// Testable property 3: a label at line i resolves to i - (labels preceding line i).
	m := NewManager()
	m.Add("start", 0) // line 0, no labels before it
	m.Add("loop", 5)  // line 5, one label already placed

	p, ok := m.Position("start")
	require.True(t, ok)
	require.Equal(t, 0, p)

	p, ok = m.Position("loop")
	require.True(t, ok)
	require.Equal(t, 4, p)
}

func TestUpdatePositionUnknownErrors(t *testing.T) {
	m := NewManager()
	err := m.UpdatePosition("nope", 3)
	require.Error(t, err)
}

func TestCreateIfLabelsAreUnique(t *testing.T) {
	m := NewManager()
	n1, _ := m.CreateIfLabel(0)
	n2, _ := m.CreateIfLabel(1)
	require.NotEqual(t, n1, n2)
}
