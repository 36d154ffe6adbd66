// cmd_run.go - "run" command: simulate one image

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/intuitionamiga/rv32sim/rv32"
)

type runOptions struct {
	pc           string
	sp           string
	maxSteps     uint64
	haltOnZeroPC bool
	traceMode    string
	until        []string
	script       string
	out          string
	noChecksum   bool
	dumpState    bool
}

func newRunCmd(g *globalOptions) *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run [flags] image.hex",
		Short: "Run one program image and write its trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImage(cmd.Context(), args[0], o, g, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.pc, "pc", "", "entry address override (default: image start address, else 0)")
	f.StringVar(&o.sp, "sp", "0", "initial stack pointer (x2)")
	f.Uint64Var(&o.maxSteps, "max-steps", 0, "stop after this many instructions (0 = unbounded)")
	f.BoolVar(&o.haltOnZeroPC, "halt-on-zero-pc", false, "also halt when control reaches address 0")
	f.StringVar(&o.traceMode, "trace-mode", "full", "trace format: full, reference or off")
	f.StringArrayVar(&o.until, "until", nil, "stop when a condition holds, e.g. a0==0x10 (repeatable)")
	f.StringVar(&o.script, "script", "", "Lua script defining on_step(pc, word, mnemonic)")
	f.StringVarP(&o.out, "out", "o", "-", "trace output file ('-' for stdout)")
	f.BoolVar(&o.noChecksum, "no-checksum", false, "do not verify Intel HEX record checksums")
	f.BoolVar(&o.dumpState, "dump-state", false, "print the final machine state to stderr")
	return cmd
}

func (o *runOptions) loaderOptions() rv32.LoaderOptions {
	opts := rv32.DefaultLoaderOptions()
	opts.VerifyChecksum = !o.noChecksum
	return opts
}

// config maps the flags onto an engine configuration. The trace writer is
// left for the caller.
func (o *runOptions) config() (rv32.Config, error) {
	cfg := rv32.DefaultConfig()
	if o.pc != "" {
		pc, err := parseUint32Flag(o.pc)
		if err != nil {
			return cfg, fmt.Errorf("--pc: %w", err)
		}
		cfg.EntryOverride, cfg.HasEntryOverride = pc, true
	}
	sp, err := parseUint32Flag(o.sp)
	if err != nil {
		return cfg, fmt.Errorf("--sp: %w", err)
	}
	cfg.StackPointer = sp
	cfg.MaxInstructions = o.maxSteps
	cfg.HaltOnZeroPC = o.haltOnZeroPC

	mode, ok := rv32.ParseTraceMode(o.traceMode)
	if !ok {
		return cfg, fmt.Errorf("--trace-mode: unknown mode %q", o.traceMode)
	}
	cfg.TraceMode = mode

	for _, text := range o.until {
		cond, err := rv32.ParseCondition(text)
		if err != nil {
			return cfg, fmt.Errorf("--until %q: %w", text, err)
		}
		cfg.Conditions = append(cfg.Conditions, cond)
	}
	return cfg, nil
}

func openTrace(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create trace: %w", err)
	}
	return f, f.Close, nil
}

func runImage(ctx context.Context, path string, o *runOptions, g *globalOptions, stdout, stderr io.Writer) (err error) {
	cfg, err := o.config()
	if err != nil {
		return err
	}
	img, err := rv32.LoadHexFile(path, o.loaderOptions())
	if err != nil {
		return err
	}

	trace, closeTrace, err := openTrace(o.out, stdout)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeTrace(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	cfg.Trace = trace

	if o.script != "" {
		hook, err := loadLuaHook(o.script)
		if err != nil {
			return err
		}
		defer hook.Close()
		cfg.Hooks = append(cfg.Hooks, hook)
	}

	cpu := rv32.NewCPU(img, cfg)
	n, runErr := cpu.Run(ctx)

	if o.dumpState {
		if err := dumpState(stderr, cpu, isTerminal(stderr)); err != nil {
			return err
		}
	}

	var stop *rv32.StopEvent
	switch {
	case runErr == nil:
		if !g.quiet {
			fmt.Fprintf(stderr, "rv32sim: halted at PC=0x%08X after %d instructions\n", cpu.PC, n)
		}
		return nil
	case errors.As(runErr, &stop):
		if !g.quiet {
			fmt.Fprintf(stderr, "rv32sim: %s after %d instructions\n", stop.Reason, n)
		}
		return nil
	}
	return fmt.Errorf("%s: %w", path, runErr)
}
