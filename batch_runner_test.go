package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/intuitionamiga/rv32sim/rv32"
)

// writeBatchProgram creates <name>.c (empty, only globbed) and <name>.hex
// that counts a0 up to n.
func writeBatchProgram(t *testing.T, dir, name string, n int32) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".c"), nil, 0o644))
	writeHexProgram(t, filepath.Join(dir, name+".hex"),
		rv32.Instruction{Mnemonic: rv32.ADDI, Rd: 11, Imm: n},
		rv32.Instruction{Mnemonic: rv32.ADDI, Rd: 10, Rs1: 10, Imm: 1},
		rv32.Instruction{Mnemonic: rv32.BNE, Rs1: 10, Rs2: 11, Imm: -4},
		rv32.Instruction{Mnemonic: rv32.EBREAK},
	)
}

func TestRunBatch_OrderAndLogs(t *testing.T) {
	dir := t.TempDir()
	writeBatchProgram(t, dir, "b", 10)
	writeBatchProgram(t, dir, "a", 2)
	writeBatchProgram(t, dir, "c", 1)

	o := &batchOptions{
		Pattern: filepath.Join(dir, "*.c"),
		Jobs:    3,
		Config:  rv32.Config{TraceMode: rv32.TraceReference, HasEntryOverride: true},
		Loader:  rv32.DefaultLoaderOptions(),
	}
	var progress bytes.Buffer
	results, err := runBatch(context.Background(), o, &progress)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, 3, strings.Count(progress.String(), "\n"), progress.String())

	// glob order is sorted; instruction counts are 1 + 2n + 1
	wantCounts := map[string]uint64{"a": 6, "b": 22, "c": 4}
	for i, name := range []string{"a", "b", "c"} {
		require.Equal(t, filepath.Join(dir, name+".c"), results[i].File)
		require.Equal(t, wantCounts[name], results[i].Instructions, name)
		require.GreaterOrEqual(t, results[i].Total, results[i].Load)

		data, err := os.ReadFile(filepath.Join(dir, name+".log"))
		require.NoError(t, err)
		require.Equal(t, int(wantCounts[name]), strings.Count(string(data), "\n"), name)
	}
}

func TestRunBatch_ExplicitFilesAndFailure(t *testing.T) {
	dir := t.TempDir()
	writeBatchProgram(t, dir, "ok", 1)

	o := &batchOptions{
		Files:  []string{filepath.Join(dir, "ok.c")},
		Jobs:   1,
		Config: rv32.Config{TraceMode: rv32.TraceOff, HasEntryOverride: true},
		Loader: rv32.DefaultLoaderOptions(),
	}
	results, err := runBatch(context.Background(), o, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	o.Files = append(o.Files, filepath.Join(dir, "missing.c"))
	_, err = runBatch(context.Background(), o, nil)
	require.ErrorIs(t, err, os.ErrNotExist)

	o.Files = nil
	o.Pattern = filepath.Join(dir, "*.nothing")
	_, err = runBatch(context.Background(), o, nil)
	require.ErrorContains(t, err, "no input files")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, []batchResult{
		{File: "test/a.c", Instructions: 42, Load: 1500000, Exec: 500000, Total: 2000000},
	}))

	r := csv.NewReader(&buf)
	r.Comma = ';'
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"file", "inst_count", "load_time", "exec_time", "total_time"},
		{"test/a.c", "42", "0.0015", "0.0005", "0.002"},
	}, rows)
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	writeBatchProgram(t, dir, "prog", 3)
	csvPath := filepath.Join(dir, "sim.csv")

	_, errOut, err := execute(t, "batch", "--path", filepath.Join(dir, "*.c"), "--csv", csvPath, "--jobs", "2")
	require.NoError(t, err)
	require.Contains(t, errOut, "prog.c: 8 instructions")

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "file;inst_count;load_time;exec_time;total_time\n"))

	log, err := os.ReadFile(filepath.Join(dir, "prog.log"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(log), "PC=00000000 [00300593] x11=00000003 x00=00000000 x03=00000000\n"))
}

func TestStem(t *testing.T) {
	require.Equal(t, "test/prog", stem("test/prog.c"))
	require.Equal(t, "prog", stem("prog"))
}

// A -nostartfiles program has no EBREAK; main returns through ra=0.
func TestBatchCommand_ReturnToZeroHalts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ret.c"), nil, 0o644))
	writeHexProgram(t, filepath.Join(dir, "ret.hex"),
		rv32.Instruction{Mnemonic: rv32.ADDI, Rd: 2, Rs1: 2, Imm: -16},
		rv32.Instruction{Mnemonic: rv32.ADDI, Rd: 10, Imm: 5},
		rv32.Instruction{Mnemonic: rv32.ADDI, Rd: 2, Rs1: 2, Imm: 16},
		rv32.Instruction{Mnemonic: rv32.JALR, Rd: 0, Rs1: 1},
	)
	csvPath := filepath.Join(dir, "sim.csv")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	root := newRootCmd()
	var errOut bytes.Buffer
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&errOut)
	root.SetArgs([]string{"batch", "--path", filepath.Join(dir, "*.c"), "--csv", csvPath})
	require.NoError(t, root.ExecuteContext(ctx))
	require.Contains(t, errOut.String(), "ret.c: 4 instructions")

	log, err := os.ReadFile(filepath.Join(dir, "ret.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(log), "\n"), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "PC=0000000C [00008067] x00=00000000 x01=00000000 x00=00000000", lines[3])

	rows, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	require.Contains(t, string(rows), filepath.Join(dir, "ret.c")+";4;")
}

func TestBatchCommand_HaltOnZeroPCDisabled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loop.c"), nil, 0o644))
	writeHexProgram(t, filepath.Join(dir, "loop.hex"),
		rv32.Instruction{Mnemonic: rv32.ADDI, Rd: 10, Rs1: 10, Imm: 1},
		rv32.Instruction{Mnemonic: rv32.JALR, Rd: 0, Rs1: 1},
	)

	_, _, err := execute(t, "batch", "-q", "--path", filepath.Join(dir, "*.c"),
		"--csv", filepath.Join(dir, "sim.csv"), "--halt-on-zero-pc=false", "--max-steps", "9")
	require.ErrorIs(t, err, rv32.ErrStepLimit)
}
