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

// Package toolchain loads the memory-map and emulator defaults every
// cmd/target8 subcommand needs, via viper, falling back to the reference
// toolchain's built-in defaults when no config file is present —
// core packages never read configuration themselves (SPEC_FULL.md §5).
package toolchain

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/sonmezarda/ArniComp-Support-Package-sub000/codegen"
	"github.com/sonmezarda/ArniComp-Support-Package-sub000/mmio"
)

// Config is the full set of knobs a target8.yaml can override.
type Config struct {
	VarStart      uint32 `mapstructure:"var_start"`
	VarEnd        uint32 `mapstructure:"var_end"`
	StackStart    uint16 `mapstructure:"stack_start"`
	StackSize     uint16 `mapstructure:"stack_size"`
	SevenSegBase  uint16 `mapstructure:"seven_seg_base"`
	DefaultCycles int    `mapstructure:"default_cycle_budget"`
}

// DefaultCycleBudget is how many instructions `target8 run` executes
// before reporting StepBudgetExhausted when --max-cycles is unset.
const DefaultCycleBudget = 1_000_000

// Default returns the reference toolchain's built-in memory map, mirroring
// codegen.DefaultConfig plus the emulator-only fields it has no use for.
func Default() Config {
	cc := codegen.DefaultConfig()
	return Config{
		VarStart:      cc.VarStart,
		VarEnd:        cc.VarEnd,
		StackStart:    cc.StackStart,
		StackSize:     cc.StackSize,
		SevenSegBase:  mmio.DefaultSevenSegBase,
		DefaultCycles: DefaultCycleBudget,
	}
}

// Load reads path (if non-empty and present) as a YAML/TOML/JSON config
// via viper, overlaying it on Default(). A missing path is not an error:
// the zero-config case is the toolchain's defaults, matching spec.md §1's
// treatment of configuration loading as a peripheral concern the CLI
// layer, not the core, owns.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetDefault("var_start", cfg.VarStart)
	v.SetDefault("var_end", cfg.VarEnd)
	v.SetDefault("stack_start", cfg.StackStart)
	v.SetDefault("stack_size", cfg.StackSize)
	v.SetDefault("seven_seg_base", cfg.SevenSegBase)
	v.SetDefault("default_cycle_budget", cfg.DefaultCycles)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !os.IsNotExist(err) {
				return cfg, errors.Wrapf(err, "toolchain: reading config %s", path)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "toolchain: decoding config")
	}
	return cfg, nil
}

// CodegenConfig projects the subset of Config the compiler consumes.
func (c Config) CodegenConfig() codegen.Config {
	return codegen.Config{
		VarStart:   c.VarStart,
		VarEnd:     c.VarEnd,
		StackStart: c.StackStart,
		StackSize:  c.StackSize,
	}
}
