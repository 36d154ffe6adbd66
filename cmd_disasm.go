// cmd_disasm.go - "disasm" command: list an image as RV32IM instructions

package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/intuitionamiga/rv32sim/rv32"
)

func newDisasmCmd() *cobra.Command {
	var noChecksum bool
	cmd := &cobra.Command{
		Use:   "disasm [flags] image.hex",
		Short: "Disassemble every word defined by an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := rv32.DefaultLoaderOptions()
			opts.VerifyChecksum = !noChecksum
			img, err := rv32.LoadHexFile(args[0], opts)
			if err != nil {
				return err
			}
			return disassembleImage(cmd.OutOrStdout(), img)
		},
	}
	cmd.Flags().BoolVar(&noChecksum, "no-checksum", false, "do not verify Intel HEX record checksums")
	return cmd
}

// disassembleImage prints one line per aligned word that the image touches.
func disassembleImage(w io.Writer, img *rv32.Image) error {
	seen := make(map[uint32]struct{})
	for addr := range img.Bytes {
		seen[addr&^3] = struct{}{}
	}
	words := make([]uint32, 0, len(seen))
	for a := range seen {
		words = append(words, a)
	}
	sort.Slice(words, func(i, j int) bool { return words[i] < words[j] })

	mem := rv32.NewMemoryFromImage(img.Bytes)
	for _, addr := range words {
		line := rv32.DisassembleRange(mem, addr, 1)[0]
		marker := ' '
		if img.HasEntry && addr == img.Entry {
			marker = '>'
		}
		if _, err := fmt.Fprintf(w, "%c%08X: %08X  %s\n", marker, line.Address, line.Word, line.Mnemonic); err != nil {
			return err
		}
	}
	return nil
}
