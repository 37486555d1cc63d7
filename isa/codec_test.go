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
package isa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeMovMarlRa(t *testing.T) {
	// S1: MOV MARL, RA encodes to 0x50.
	b, err := Encode(MOV, "MARL", "RA")
	require.NoError(t, err)
	require.Equal(t, uint8(0x50), b)

	ins := Decode(0x50)
	require.Equal(t, MOV, ins.Mnemonic)
	require.Equal(t, MARL, ins.Dest)
	require.Equal(t, RA, ins.Src)
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	for b := 0; b < 256; b++ {
		ins := Decode(uint8(b))
		var operands []string
		switch ins.Mnemonic {
		case LDI, ADDI, SUBI:
			operands = []string{fmtImm(ins.Imm)}
		case MOV:
			operands = []string{ins.Dest, ins.Src}
		case ADD, SUB, ADC, SBC, AND:
			operands = []string{ins.Src}
		}
		got, err := Encode(ins.Mnemonic, operands...)
		require.NoError(t, err, "re-encoding byte 0x%02X (%s)", b, ins.Mnemonic)
		if b == 0x02 {
			// NOP's 00000010 spelling re-encodes to the canonical 00000000.
			require.Equal(t, uint8(0x00), got)
			continue
		}
		require.Equal(t, uint8(b), got, "byte 0x%02X round-trip", b)
	}
}

func TestEncodeRangeErrors(t *testing.T) {
	_, err := Encode(LDI, "#128")
	require.Error(t, err)

	_, err = Encode(ADDI, "#8")
	require.Error(t, err)

	_, err = Encode(SUBI, "#4")
	require.Error(t, err)

	_, err = Encode(MOV, "BOGUS", "RA")
	require.Error(t, err)
}

func TestEncodeCaseInsensitiveRegisters(t *testing.T) {
	b, err := Encode(MOV, "marl", "ra")
	require.NoError(t, err)
	require.Equal(t, uint8(0x50), b)
}

func fmtImm(v uint8) string {
	return "#" + itoa(int(v))
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	digits := ""
	for v > 0 {
		digits = string(rune('0'+v%10)) + digits
		v /= 10
	}
	return digits
}
