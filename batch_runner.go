// batch_runner.go - Parallel simulation of a directory of test programs

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

/*
batch_runner.go - Batch Runner

For every source file matched by the glob (default test/*.c) the runner

  1. optionally cross-compiles <stem>.c to <stem>.hex with the RISC-V
     gcc/objcopy pair
  2. loads <stem>.hex
  3. runs it on a private CPU, writing the trace to <stem>.log
  4. records instruction count and load, execution and total wall time

Programs run on up to Jobs workers. Each worker owns its CPU and its log
file so nothing is shared; results are collected by input index and the CSV
is written in input order once every run has finished. The first failure
cancels the remaining runs.
*/

package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/intuitionamiga/rv32sim/rv32"
)

const DEFAULT_TOOL_PREFIX = "riscv32-unknown-elf-"

type batchOptions struct {
	Files   []string
	Pattern string
	Jobs    int
	Compile bool
	Prefix  string

	Config rv32.Config
	Loader rv32.LoaderOptions
}

type batchResult struct {
	File         string
	Instructions uint64
	Load         time.Duration
	Exec         time.Duration
	Total        time.Duration
}

// stem strips the extension from a source path.
func stem(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

func (o *batchOptions) inputs() ([]string, error) {
	if len(o.Files) > 0 {
		return o.Files, nil
	}
	files, err := filepath.Glob(o.Pattern)
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", o.Pattern, err)
	}
	sort.Strings(files)
	return files, nil
}

// compileToHex builds <stem>.hex from <stem>.c.
func compileToHex(ctx context.Context, prefix, base string) error {
	steps := [][]string{
		{prefix + "gcc", "-march=rv32im", "-mabi=ilp32", "-Ttext=000", "--entry=main",
			"-nostartfiles", "-o", base + ".o", base + ".c"},
		{prefix + "objcopy", "-I", "elf32-littleriscv", "-O", "ihex", base + ".o", base + ".hex"},
	}
	for _, argv := range steps {
		var out bytes.Buffer
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Stdout = &out
		cmd.Stderr = &out
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("%s: %w\n%s", argv[0], err, out.String())
		}
	}
	return nil
}

func runOne(ctx context.Context, o *batchOptions, file string) (batchResult, error) {
	base := stem(file)
	res := batchResult{File: file}

	if o.Compile {
		if err := compileToHex(ctx, o.Prefix, base); err != nil {
			return res, fmt.Errorf("compile %s: %w", file, err)
		}
	}

	start := time.Now()
	img, err := rv32.LoadHexFile(base+".hex", o.Loader)
	if err != nil {
		return res, fmt.Errorf("%s: %w", file, err)
	}
	res.Load = time.Since(start)

	logFile, err := os.Create(base + ".log")
	if err != nil {
		return res, fmt.Errorf("create log: %w", err)
	}
	defer logFile.Close()

	cfg := o.Config
	cfg.Trace = logFile
	cpu := rv32.NewCPU(img, cfg)
	n, err := cpu.Run(ctx)
	if err != nil && !rv32.IsCleanStop(err) {
		return res, fmt.Errorf("%s: %w", file, err)
	}
	if err := logFile.Close(); err != nil {
		return res, fmt.Errorf("close log: %w", err)
	}

	res.Instructions = n
	res.Total = time.Since(start)
	res.Exec = res.Total - res.Load
	return res, nil
}

// runBatch simulates every input and returns the results in input order.
// progress, when non-nil, receives one line per finished program.
func runBatch(ctx context.Context, o *batchOptions, progress io.Writer) ([]batchResult, error) {
	files, err := o.inputs()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files match %q", o.Pattern)
	}

	jobs := o.Jobs
	if jobs < 1 {
		jobs = 1
	}
	results := make([]batchResult, len(files))
	var progressMu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			res, err := runOne(ctx, o, file)
			if err != nil {
				return err
			}
			results[i] = res
			if progress != nil {
				progressMu.Lock()
				defer progressMu.Unlock()
				fmt.Fprintf(progress, "rv32sim: %s: %d instructions in %v\n", file, res.Instructions, res.Total)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

// writeCSV writes the ';'-separated summary table.
func writeCSV(w io.Writer, results []batchResult) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write([]string{"file", "inst_count", "load_time", "exec_time", "total_time"}); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.File,
			strconv.FormatUint(r.Instructions, 10),
			seconds(r.Load),
			seconds(r.Exec),
			seconds(r.Total),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
