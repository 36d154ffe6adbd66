// state_dump.go - Final machine state report

package main

import (
	"io"

	"github.com/k0kubun/pp/v3"

	"github.com/intuitionamiga/rv32sim/rv32"
)

// dumpState pretty-prints the CPU state. Colour is only used on a terminal.
func dumpState(w io.Writer, cpu *rv32.CPU, color bool) error {
	printer := pp.New()
	printer.SetOutput(w)
	printer.SetColoringEnabled(color)
	_, err := printer.Println(cpu.State())
	return err
}
