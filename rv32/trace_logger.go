// trace_logger.go - Per-instruction trace renderer

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
trace_logger.go - Trace Logger

One line per retired instruction:

  PC=00000010 [00A58533] x10=00000007 x11=00000003 x12=00000004 add      a0,a1,a2

The logger owns no simulation state. The engine feeds it the fields of one
instruction as they become known (PC and word at fetch, source registers
before execution, destination after), optionally a disassembly, then calls
Flush which renders one line and clears every field.

Register columns are printed in rd, rs1, rs2 order for whichever slots were
set. In TraceReference mode no disassembly is appended, which is the exact
shape of the reference logs.
*/

package rv32

import (
	"bufio"
	"io"
)

// TraceMode selects what the engine feeds the logger.
type TraceMode uint8

const (
	// TraceFull logs touched registers and the disassembly.
	TraceFull TraceMode = iota
	// TraceReference logs all three raw register slots and no disassembly.
	TraceReference
	// TraceOff disables tracing.
	TraceOff
)

func (m TraceMode) String() string {
	switch m {
	case TraceFull:
		return "full"
	case TraceReference:
		return "reference"
	case TraceOff:
		return "off"
	}
	return "unknown"
}

// ParseTraceMode accepts the String forms.
func ParseTraceMode(s string) (TraceMode, bool) {
	switch s {
	case "full", "":
		return TraceFull, true
	case "reference", "ref", "spike":
		return TraceReference, true
	case "off", "none":
		return TraceOff, true
	}
	return TraceOff, false
}

// RegSlot is one of the three register columns.
type RegSlot uint8

const (
	SlotRd RegSlot = iota
	SlotRs1
	SlotRs2
)

type regField struct {
	id  uint8
	val uint32
	set bool
}

// TraceLogger renders trace records to a buffered writer.
type TraceLogger struct {
	w    *bufio.Writer
	mode TraceMode

	pc       uint32
	word     uint32
	regs     [3]regField
	disasm   []byte
	decoded  Instruction
	haveInst bool

	line  []byte
	lines uint64
}

// NewTraceLogger returns a logger writing to w. A nil w or TraceOff gives a
// logger whose Enabled reports false.
func NewTraceLogger(w io.Writer, mode TraceMode) *TraceLogger {
	t := &TraceLogger{mode: mode, line: make([]byte, 0, 128)}
	if w != nil && mode != TraceOff {
		t.w = bufio.NewWriterSize(w, 64*1024)
	} else {
		t.mode = TraceOff
	}
	return t
}

func (t *TraceLogger) Enabled() bool { return t.w != nil }
func (t *TraceLogger) Mode() TraceMode { return t.mode }
func (t *TraceLogger) Lines() uint64 { return t.lines }

func (t *TraceLogger) SetPC(pc uint32) { t.pc = pc }
func (t *TraceLogger) SetInstruction(word uint32) { t.word = word }

// SetRegister records the value of one register column.
func (t *TraceLogger) SetRegister(slot RegSlot, id uint8, val uint32) {
	t.regs[slot] = regField{id: id, val: val, set: true}
}

// SetDisassembly supplies a ready-made disassembly string.
func (t *TraceLogger) SetDisassembly(s string) {
	t.disasm = append(t.disasm[:0], s...)
	t.haveInst = false
}

// SetDecoded lets the logger synthesise the disassembly at flush time.
func (t *TraceLogger) SetDecoded(in Instruction) {
	t.decoded = in
	t.haveInst = true
	t.disasm = t.disasm[:0]
}

// Render returns the pending record as a line without the newline and
// without clearing it.
func (t *TraceLogger) Render() string {
	return string(t.render(t.line[:0]))
}

func (t *TraceLogger) render(b []byte) []byte {
	b = append(b, "PC="...)
	b = appendHex32(b, t.pc)
	b = append(b, " ["...)
	b = appendHex32(b, t.word)
	b = append(b, ']')
	for _, r := range t.regs {
		if !r.set {
			continue
		}
		b = append(b, " x"...)
		b = append(b, '0'+r.id/10, '0'+r.id%10)
		b = append(b, '=')
		b = appendHex32(b, r.val)
	}
	if t.mode == TraceFull {
		if t.haveInst {
			b = append(b, ' ')
			b = AppendDisassembly(b, t.decoded, t.pc)
		} else if len(t.disasm) > 0 {
			b = append(b, ' ')
			b = append(b, t.disasm...)
		}
	}
	return b
}

// Flush writes the pending record and resets every field.
func (t *TraceLogger) Flush() error {
	if t.w == nil {
		t.reset()
		return nil
	}
	t.line = t.render(t.line[:0])
	t.line = append(t.line, '\n')
	_, err := t.w.Write(t.line)
	t.lines++
	t.reset()
	return err
}

func (t *TraceLogger) reset() {
	t.pc, t.word = 0, 0
	t.regs = [3]regField{}
	t.disasm = t.disasm[:0]
	t.haveInst = false
}

// Close flushes buffered output. It does not close the underlying writer.
func (t *TraceLogger) Close() error {
	if t.w == nil {
		return nil
	}
	return t.w.Flush()
}

const hexDigits = "0123456789ABCDEF"

func appendHex32(b []byte, v uint32) []byte {
	for shift := 28; shift >= 0; shift -= 4 {
		b = append(b, hexDigits[(v>>uint(shift))&0xF])
	}
	return b
}
