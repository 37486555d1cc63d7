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
package asmfmt

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// programSize is the emulator's full 16-bit program address space; the
// binary machine format is always padded out to this size (spec.md §6).
const programSize = 65536

// WriteText renders code as one 8-character binary string per line, line
// index == instruction address — spec.md §6's text machine format.
func WriteText(w io.Writer, code []byte) error {
	bw := bufio.NewWriter(w)
	for _, b := range code {
		if _, err := fmt.Fprintf(bw, "%08b\n", b); err != nil {
			return errors.Wrap(err, "asmfmt: writing text machine format")
		}
	}
	return bw.Flush()
}

// ReadText parses the text machine format back into machine code bytes.
func ReadText(r io.Reader) ([]byte, error) {
	var code []byte
	sc := bufio.NewScanner(r)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseUint(line, 2, 8)
		if err != nil {
			return nil, errors.Wrapf(err, "asmfmt: text machine format line %d", lineNo)
		}
		code = append(code, byte(v))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "asmfmt: reading text machine format")
	}
	return code, nil
}

// WriteBinary pads code to the full 65,536-byte program space and writes
// it verbatim — spec.md §6's binary machine format.
func WriteBinary(w io.Writer, code []byte) error {
	if len(code) > programSize {
		return errors.Errorf("asmfmt: program of %d bytes exceeds the %d-byte address space", len(code), programSize)
	}
	padded := make([]byte, programSize)
	copy(padded, code)
	_, err := w.Write(padded)
	return errors.Wrap(err, "asmfmt: writing binary machine format")
}

// ReadBinary reads a binary machine-format file back into bytes, trimming
// nothing: callers that only care about the non-zero prefix truncate
// themselves (ReadBinary returns the full padded image).
func ReadBinary(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "asmfmt: reading binary machine format")
	}
	return data, nil
}

// hexRecordBytes is how many data bytes each Intel HEX data record
// carries; 16 is the conventional width most hex tools emit.
const hexRecordBytes = 16

// WriteIntelHex serializes code using the standard Intel HEX record set:
// one data record (type 00) per hexRecordBytes-byte chunk at its linear
// address, followed by the EOF record (type 01) — spec.md §6's Intel HEX
// machine format.
func WriteIntelHex(w io.Writer, code []byte) error {
	bw := bufio.NewWriter(w)
	for addr := 0; addr < len(code); addr += hexRecordBytes {
		end := addr + hexRecordBytes
		if end > len(code) {
			end = len(code)
		}
		if err := writeHexRecord(bw, uint16(addr), 0x00, code[addr:end]); err != nil {
			return err
		}
	}
	if err := writeHexRecord(bw, 0, 0x01, nil); err != nil {
		return err
	}
	return bw.Flush()
}

func writeHexRecord(w io.Writer, addr uint16, recType byte, data []byte) error {
	length := byte(len(data))
	sum := length + byte(addr>>8) + byte(addr) + recType
	for _, b := range data {
		sum += b
	}
	checksum := byte(0x100 - int(sum)&0xFF)

	var sb strings.Builder
	sb.WriteByte(':')
	sb.WriteString(strings.ToUpper(hex.EncodeToString([]byte{length})))
	sb.WriteString(strings.ToUpper(hex.EncodeToString([]byte{byte(addr >> 8), byte(addr)})))
	sb.WriteString(strings.ToUpper(hex.EncodeToString([]byte{recType})))
	sb.WriteString(strings.ToUpper(hex.EncodeToString(data)))
	sb.WriteString(strings.ToUpper(hex.EncodeToString([]byte{checksum})))
	sb.WriteByte('\n')

	_, err := io.WriteString(w, sb.String())
	return errors.Wrap(err, "asmfmt: writing Intel HEX record")
}

// ReadIntelHex parses Intel HEX data records back into a sparse machine
// code image, sized to the highest address any record touched.
func ReadIntelHex(r io.Reader) ([]byte, error) {
	var code []byte
	sc := bufio.NewScanner(r)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, ":") {
			return nil, errors.Errorf("asmfmt: Intel HEX line %d missing ':' marker", lineNo)
		}
		raw, err := hex.DecodeString(line[1:])
		if err != nil {
			return nil, errors.Wrapf(err, "asmfmt: Intel HEX line %d", lineNo)
		}
		if len(raw) < 5 {
			return nil, errors.Errorf("asmfmt: Intel HEX line %d too short", lineNo)
		}
		length := int(raw[0])
		addr := int(raw[1])<<8 | int(raw[2])
		recType := raw[3]
		data := raw[4 : 4+length]

		if recType == 0x01 {
			break
		}
		if recType != 0x00 {
			continue // extended-address records etc. are out of scope for this 16-bit space
		}
		need := addr + length
		if need > len(code) {
			grown := make([]byte, need)
			copy(grown, code)
			code = grown
		}
		copy(code[addr:], data)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "asmfmt: reading Intel HEX")
	}
	return code, nil
}
