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
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sonmezarda/ArniComp-Support-Package-sub000/asmfmt"
	"github.com/sonmezarda/ArniComp-Support-Package-sub000/codegen"
	"github.com/sonmezarda/ArniComp-Support-Package-sub000/emu"
	"github.com/sonmezarda/ArniComp-Support-Package-sub000/toolchain"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "target8",
		Short: "Assembler, disassembler, compiler and emulator for the target-8 CPU",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "target8.yaml config file (optional)")

	root.AddCommand(
		asmCmd(&configPath),
		disasmCmd(),
		buildCmd(&configPath),
		runCmd(&configPath),
	)
	return root
}

// readLines reads path as a slice of raw text lines (no trimming beyond
// what asmfmt/cparse already do on their own input).
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return lines, nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "opening %s", path)
	}
	return string(data), nil
}

func writeCode(path, format string, code []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	switch strings.ToLower(format) {
	case "bin":
		return asmfmt.WriteBinary(f, code)
	case "hex":
		return asmfmt.WriteIntelHex(f, code)
	case "txt", "":
		return asmfmt.WriteText(f, code)
	default:
		return errors.Errorf("unknown --format %q (want bin, hex or txt)", format)
	}
}

func readCode(path, format string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	switch strings.ToLower(format) {
	case "hex":
		return asmfmt.ReadIntelHex(f)
	case "txt":
		return asmfmt.ReadText(f)
	case "bin", "":
		return asmfmt.ReadBinary(f)
	default:
		return nil, errors.Errorf("unknown --format %q (want bin, hex or txt)", format)
	}
}

func asmCmd(configPath *string) *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "asm <in.asm>",
		Short: "Assemble a text assembly file into machine code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return errors.New("target8 asm: -o output path is required")
			}
			lines, err := readLines(args[0])
			if err != nil {
				return err
			}
			prog, err := asmfmt.Assemble(lines)
			if err != nil {
				return errors.Wrap(err, "target8 asm")
			}
			return writeCode(output, format, prog.Code)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output machine-code file")
	cmd.Flags().StringVar(&format, "format", "bin", "output format: bin, hex, or txt")
	_ = configPath
	return cmd
}

func disasmCmd() *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "disasm <in.bin>",
		Short: "Disassemble machine code back into assembly text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return errors.New("target8 disasm: -o output path is required")
			}
			code, err := readCode(args[0], format)
			if err != nil {
				return errors.Wrap(err, "target8 disasm")
			}
			lines := asmfmt.Disassemble(code)

			f, err := os.Create(output)
			if err != nil {
				return errors.Wrapf(err, "creating %s", output)
			}
			defer f.Close()
			w := bufio.NewWriter(f)
			for _, l := range lines {
				fmt.Fprintln(w, l)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output assembly file")
	cmd.Flags().StringVar(&format, "format", "bin", "input format: bin, hex, or txt")
	return cmd
}

func buildCmd(configPath *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "build <in.t8>",
		Short: "Compile a high-level source file into assembly text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return errors.New("target8 build: -o output path is required")
			}
			source, err := readFile(args[0])
			if err != nil {
				return err
			}
			cfg, err := toolchain.Load(*configPath)
			if err != nil {
				return err
			}
			log := logrus.New()
			lines, err := codegen.Compile(source, cfg.CodegenConfig(), log)
			if err != nil {
				return errors.Wrap(err, "target8 build")
			}

			f, err := os.Create(output)
			if err != nil {
				return errors.Wrapf(err, "creating %s", output)
			}
			defer f.Close()
			w := bufio.NewWriter(f)
			for _, l := range lines {
				fmt.Fprintln(w, l)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output assembly file")
	return cmd
}

func runCmd(configPath *string) *cobra.Command {
	var (
		maxCycles   int
		trace       bool
		listDevices bool
		breaks      []string
		format      string
	)

	cmd := &cobra.Command{
		Use:   "run <in.bin>",
		Short: "Load a machine-code program and run it on the emulator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := readCode(args[0], format)
			if err != nil {
				return errors.Wrap(err, "target8 run")
			}
			cfg, err := toolchain.Load(*configPath)
			if err != nil {
				return err
			}

			log := logrus.New()
			c := emu.NewCPU(log, cfg.SevenSegBase)
			c.Trace = trace
			if trace {
				log.SetLevel(logrus.DebugLevel)
			}
			c.LoadProgram(code, 0)

			for _, b := range breaks {
				addr, err := parseBreakAddr(b)
				if err != nil {
					return errors.Wrap(err, "target8 run")
				}
				c.SetBreakpoint(addr)
			}

			budget := maxCycles
			if budget <= 0 {
				budget = cfg.DefaultCycles
			}

			cycles, status := c.Run(budget)
			switch status {
			case emu.StepHalted:
				fmt.Printf("halted after %d cycles\n", cycles)
				if listDevices {
					printDevices(c)
				}
				return nil
			case emu.StepBreakpoint:
				fmt.Printf("breakpoint hit at 0x%04X\n", c.PC)
				return nil
			default: // emu.StepBudgetExhausted
				return errors.Errorf("target8 run: exceeded cycle budget (%d) without halting", budget)
			}
		},
	}
	cmd.Flags().IntVar(&maxCycles, "max-cycles", 0, "cycle budget (0 = toolchain default)")
	cmd.Flags().BoolVar(&trace, "trace", false, "log every fetched instruction")
	cmd.Flags().BoolVar(&listDevices, "list-devices", false, "print attached MMIO device state after halting")
	cmd.Flags().StringArrayVar(&breaks, "break", nil, "breakpoint address, e.g. 0x1A2B (repeatable)")
	cmd.Flags().StringVar(&format, "format", "bin", "input format: bin, hex, or txt")
	return cmd
}

func parseBreakAddr(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid --break address %q", s)
	}
	return uint16(v), nil
}

func printDevices(c *emu.CPU) {
	for _, info := range c.Bus.DevicesInfo() {
		fmt.Printf("device %s (%s) @0x%04X: %+v\n", info.ID, info.Name, info.Base, info.Extra)
	}
}
