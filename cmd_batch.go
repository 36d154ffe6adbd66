// cmd_batch.go - "batch" command: run a directory of test programs

package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/intuitionamiga/rv32sim/rv32"
)

func newBatchCmd(g *globalOptions) *cobra.Command {
	var (
		bo         batchOptions
		traceMode  string
		csvPath    string
		noChecksum bool
	)
	cmd := &cobra.Command{
		Use:   "batch [flags] [file.c ...]",
		Short: "Simulate every test program and write per-program logs and a CSV summary",
		Long: `batch runs each program matched by --path (or given as arguments) from its
<stem>.hex image, writes the trace to <stem>.log and collects timings into a
';'-separated CSV. With --compile each <stem>.c is first built with the RISC-V
cross toolchain named by --prefix.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := rv32.ParseTraceMode(traceMode)
			if !ok {
				return fmt.Errorf("--trace-mode: unknown mode %q", traceMode)
			}
			bo.Config.TraceMode = mode
			bo.Loader.VerifyChecksum = !noChecksum
			bo.Files = args
			bo.Config.HasEntryOverride = true // programs are linked at address 0

			var progress io.Writer
			if !g.quiet {
				progress = cmd.ErrOrStderr()
			}
			results, err := runBatch(cmd.Context(), &bo, progress)
			if err != nil {
				return err
			}

			f, err := os.Create(csvPath)
			if err != nil {
				return fmt.Errorf("create csv: %w", err)
			}
			if err := writeCSV(f, results); err != nil {
				f.Close()
				return fmt.Errorf("write csv: %w", err)
			}
			return f.Close()
		},
	}

	bo.Config = rv32.DefaultConfig()
	bo.Loader = rv32.DefaultLoaderOptions()

	f := cmd.Flags()
	f.StringVarP(&bo.Pattern, "path", "p", "test/*.c", "glob of test sources")
	f.IntVarP(&bo.Jobs, "jobs", "j", runtime.NumCPU(), "number of programs simulated in parallel")
	f.StringVar(&csvPath, "csv", "simulations.csv", "summary output file")
	f.BoolVarP(&bo.Compile, "compile", "c", false, "compile each source and objcopy it to Intel HEX first")
	f.StringVarP(&bo.Prefix, "prefix", "e", DEFAULT_TOOL_PREFIX, "RISC-V toolchain executable prefix")
	f.StringVar(&traceMode, "trace-mode", "reference", "trace format: full, reference or off")
	f.Uint64Var(&bo.Config.MaxInstructions, "max-steps", 0, "per-program instruction bound (0 = unbounded)")
	f.BoolVar(&bo.Config.HaltOnZeroPC, "halt-on-zero-pc", true, "halt when control reaches address 0 (main returning through ra=0)")
	f.BoolVar(&noChecksum, "no-checksum", false, "do not verify Intel HEX record checksums")
	return cmd
}
