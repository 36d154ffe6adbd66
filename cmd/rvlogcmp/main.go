package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	refDir := flag.String("ref", "spike/outputs", "Reference log directory")
	testDir := flag.String("test", "test", "Directory of logs under test")
	quiet := flag.Bool("q", false, "Only set the exit status")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: rvlogcmp [options]\n\nCompares every *.log in the test directory against the reference log of the same name.\n\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  rvlogcmp\n")
		fmt.Fprintf(os.Stderr, "  rvlogcmp -ref spike/outputs -test build/logs\n")
	}
	flag.Parse()

	if flag.NArg() != 0 {
		flag.Usage()
		os.Exit(1)
	}

	res, err := NewComparer(*refDir, *testDir).Compare()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if !*quiet {
		Report(os.Stdout, res)
	}
	if !res.OK() {
		os.Exit(1)
	}
}
