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
package expr

// Simplify returns src's canonical algebraic form. On any parse or
// evaluation error it falls back to returning src unchanged, mirroring
// the reference simplifier's tolerant behavior (callers that need a
// hard error should call Parse/ToTerm directly instead).
func Simplify(src string) string {
	n, err := Parse(src)
	if err != nil {
		return src
	}
	t, err := ToTerm(n, nil)
	if err != nil {
		return src
	}
	if t.IsEmpty() {
		return "0"
	}
	return t.String()
}

// SimplifyWithKnownValues substitutes any identifier present in known
// with its compile-time value before simplifying, enabling constant
// folding across variables the code generator has already proven.
func SimplifyWithKnownValues(src string, known map[string]int64) (string, error) {
	n, err := Parse(src)
	if err != nil {
		return "", err
	}
	t, err := ToTerm(n, func(name string) (int64, bool) {
		v, ok := known[name]
		return v, ok
	})
	if err != nil {
		return "", err
	}
	if t.IsEmpty() {
		return "0", nil
	}
	return t.String(), nil
}
