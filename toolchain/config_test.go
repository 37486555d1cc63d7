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
package toolchain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadWithNoPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverridesSpecificFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target8.yaml")
	yaml := "var_start: 16\nvar_end: 4096\nseven_seg_base: 65024\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, uint32(16), cfg.VarStart)
	require.Equal(t, uint32(4096), cfg.VarEnd)
	require.Equal(t, uint16(65024), cfg.SevenSegBase)
	// Untouched fields keep their defaults.
	require.Equal(t, Default().StackStart, cfg.StackStart)
	require.Equal(t, Default().DefaultCycles, cfg.DefaultCycles)
}

func TestCodegenConfigProjectsMemoryFields(t *testing.T) {
	cfg := Default()
	cc := cfg.CodegenConfig()
	require.Equal(t, cfg.VarStart, cc.VarStart)
	require.Equal(t, cfg.VarEnd, cc.VarEnd)
	require.Equal(t, cfg.StackStart, cc.StackStart)
	require.Equal(t, cfg.StackSize, cc.StackSize)
}
