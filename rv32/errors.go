// errors.go - Error taxonomy for the RV32IM simulator

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

package rv32

import (
	"errors"
	"fmt"
)

var (
	// ErrHalted is returned by Step once EBREAK has retired.
	ErrHalted = errors.New("rv32: cpu halted")

	// ErrStepLimit is returned by Run when Config.MaxInstructions is reached
	// before the program halts.
	ErrStepLimit = errors.New("rv32: instruction limit reached")

	// ErrStopped marks a run ended by a stop condition or a step hook.
	// It is not a simulation failure.
	ErrStopped = errors.New("rv32: run stopped")
)

// DecodeError reports an instruction word that matches no opcode table entry.
type DecodeError struct {
	PC     uint32
	Word   uint32
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("rv32: cannot decode 0x%08X at PC=0x%08X: %s", e.Word, e.PC, e.Reason)
}

// LoadError reports a malformed program image. Line is 1-based.
type LoadError struct {
	Line   int
	Text   string
	Reason string
}

func (e *LoadError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("rv32: bad image: %s", e.Reason)
	}
	return fmt.Sprintf("rv32: bad image at line %d (%q): %s", e.Line, e.Text, e.Reason)
}

// IllegalInstructionError reports a decoded mnemonic with no execution handler.
// Seeing one means the decoder and the executor disagree.
type IllegalInstructionError struct {
	PC       uint32
	Word     uint32
	Mnemonic Mnemonic
}

func (e *IllegalInstructionError) Error() string {
	return fmt.Sprintf("rv32: no handler for %s (0x%08X) at PC=0x%08X", e.Mnemonic, e.Word, e.PC)
}

// StopEvent explains why a run stopped early. It wraps ErrStopped.
type StopEvent struct {
	PC     uint32
	Reason string
}

func (e *StopEvent) Error() string {
	return fmt.Sprintf("rv32: stopped at PC=0x%08X: %s", e.PC, e.Reason)
}

func (e *StopEvent) Unwrap() error { return ErrStopped }
