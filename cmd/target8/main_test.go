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
package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBreakAddrAcceptsHexWithOrWithoutPrefix(t *testing.T) {
	v, err := parseBreakAddr("0x1A2B")
	require.NoError(t, err)
	require.Equal(t, uint16(0x1A2B), v)

	v, err = parseBreakAddr("FF")
	require.NoError(t, err)
	require.Equal(t, uint16(0xFF), v)
}

func TestParseBreakAddrRejectsGarbage(t *testing.T) {
	_, err := parseBreakAddr("not-hex")
	require.Error(t, err)
}

func TestWriteAndReadCodeRoundTripsEveryFormat(t *testing.T) {
	code := []byte{0x00, 0x2A, 0xFF}
	dir := t.TempDir()

	for _, format := range []string{"bin", "hex", "txt"} {
		path := filepath.Join(dir, "prog."+format)
		require.NoError(t, writeCode(path, format, code))

		back, err := readCode(path, format)
		require.NoError(t, err)
		require.Equal(t, code, back[:len(code)])
	}
}

func TestWriteCodeRejectsUnknownFormat(t *testing.T) {
	err := writeCode(filepath.Join(t.TempDir(), "out"), "weird", []byte{1})
	require.Error(t, err)
}

func TestRootCommandExposesAllFourSubcommands(t *testing.T) {
	root := rootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	require.True(t, names["asm"])
	require.True(t, names["disasm"])
	require.True(t, names["build"])
	require.True(t, names["run"])
}
