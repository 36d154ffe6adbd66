// main.go - rv32sim command line entry point

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
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var bannerLines = []string{
	`                 _________      _`,
	` _ ____   __   |___ /___ \ ___(_)_ __ ___`,
	`| '__\ \ / /____ |_ \ __) / __| | '_ ` + "`" + ` _ \`,
	`| |   \ V /_____|__) / __/\__ \ | | | | | |`,
	`|_|    \_/     |____/_____|___/_|_| |_| |_|`,
}

func boilerPlate(w io.Writer) {
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		g := 20 + i*55
		fmt.Fprintf(w, "\033[38;2;255;%d;147m%s\033[0m\n", g, line)
	}
	fmt.Fprintln(w, "\nAn RV32IM functional instruction-set simulator with reference-exact trace logs.")
	fmt.Fprintln(w, "(c) 2024 - 2026 Zayn Otley")
	fmt.Fprintln(w, "https://github.com/IntuitionAmiga/IntuitionEngine")
	fmt.Fprintln(w, "License: GPLv3 or later")
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type globalOptions struct {
	quiet bool
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:   "rv32sim",
		Short: "RV32IM functional simulator",
		Long: `rv32sim executes RV32IM programs loaded from Intel HEX images and writes
one trace line per retired instruction. The reference trace mode produces
logs that compare byte for byte against the reference simulator.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// banner goes to stderr so piped traces stay clean
			if !g.quiet && isTerminal(os.Stdout) {
				boilerPlate(cmd.ErrOrStderr())
			}
		},
	}
	root.PersistentFlags().BoolVarP(&g.quiet, "quiet", "q", false, "suppress the banner and progress output")

	root.AddCommand(newRunCmd(g))
	root.AddCommand(newDisasmCmd())
	root.AddCommand(newBatchCmd(g))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "rv32sim: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// parseUint32Flag accepts decimal, 0x hex, 0o octal and 0b binary.
func parseUint32Flag(value string) (uint32, error) {
	parsed, err := strconv.ParseUint(value, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", value, err)
	}
	return uint32(parsed), nil
}
