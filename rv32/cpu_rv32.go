// cpu_rv32.go - RV32IM execution engine

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
cpu_rv32.go - RV32IM Functional Execution Engine

Each Step is one fetch, decode, execute and trace cycle:

  1. fetch the 32-bit little-endian word at PC
  2. decode it; an unmatched word is a DecodeError and nothing is retired
  3. record PC, word and the source register values for the trace
  4. execute; handlers return the next PC
  5. record the destination register after the write, emit one trace line
  6. commit the next PC and count the instruction as retired

Arithmetic is done on raw uint32 patterns. Signed views are taken with int32()
where an instruction is defined in signed terms, so every wrap modulo 2^32 is
explicit and nothing can trap.

Termination:
  EBREAK retires normally (and appears in the trace) and then halts the CPU.
  With Config.HaltOnZeroPC the CPU also halts when an instruction transfers
  control to address 0, which is how a bare-metal main returning through
  ra=0 finishes.

Register shifts use the low 5 bits of rs2. Division follows the RISC-V M
rules: quotients truncate toward zero, x/0 gives all ones with remainder x,
and MIN/-1 gives MIN with remainder 0.

A CPU is single-threaded. Independent CPUs share nothing and may run in
parallel.
*/

package rv32

import (
	"context"
	"errors"
	"io"
	"math"
)

// RUN_CHECK_MASK sets how often Run polls its context (every 4096 steps).
const RUN_CHECK_MASK = 0xFFF

// Config controls engine construction and the run loop.
type Config struct {
	// EntryOverride replaces the image entry point when HasEntryOverride
	// is set.
	EntryOverride    uint32
	HasEntryOverride bool

	// StackPointer seeds x2. Zero leaves it zero.
	StackPointer uint32

	// MaxInstructions bounds Run. Zero means unbounded.
	MaxInstructions uint64

	// HaltOnZeroPC halts when control reaches address 0.
	HaltOnZeroPC bool

	// Trace receives the instruction log. Nil disables tracing.
	Trace     io.Writer
	TraceMode TraceMode

	// Conditions are evaluated after every retired instruction; the first
	// one that holds stops Run.
	Conditions []*Condition

	// Hooks run after every retired instruction.
	Hooks []StepHook
}

// DefaultConfig returns the configuration used by the command line front end
// when no flags are given.
func DefaultConfig() Config {
	return Config{TraceMode: TraceFull}
}

// Stats are the counters the engine keeps while running.
type Stats struct {
	Retired       uint64
	MemoryCycles  Cycles
	Loads         uint64
	Stores        uint64
	Branches      uint64
	TakenBranches uint64
	Jumps         uint64
}

// StepInfo describes one retired instruction to a hook.
type StepInfo struct {
	PC     uint32
	NextPC uint32
	Inst   Instruction
}

// StepHook observes retired instructions. Returning stop=true ends Run with a
// StopEvent; a non-nil error ends it with that error.
type StepHook interface {
	OnStep(cpu *CPU, info StepInfo) (stop bool, err error)
}

// StepHookFunc adapts a function to StepHook.
type StepHookFunc func(cpu *CPU, info StepInfo) (bool, error)

func (f StepHookFunc) OnStep(cpu *CPU, info StepInfo) (bool, error) { return f(cpu, info) }

// CPU is one simulated RV32IM hart.
type CPU struct {
	PC uint32

	regs  *RegisterFile
	mem   *Memory
	trace *TraceLogger
	cfg   Config

	halted bool
	stats  Stats
	last   StepInfo
}

// NewCPU builds a CPU over a fresh memory populated from img.
func NewCPU(img *Image, cfg Config) *CPU {
	mem := NewMemoryFromImage(img.Bytes)
	return New(mem, img.Entry, cfg)
}

// New builds a CPU over an existing memory. entry is used unless cfg carries
// an override.
func New(mem *Memory, entry uint32, cfg Config) *CPU {
	pc := entry
	if cfg.HasEntryOverride {
		pc = cfg.EntryOverride
	}
	return &CPU{
		PC:    pc,
		regs:  NewRegisterFile(cfg.StackPointer),
		mem:   mem,
		trace: NewTraceLogger(cfg.Trace, cfg.TraceMode),
		cfg:   cfg,
	}
}

func (c *CPU) Halted() bool { return c.halted }
func (c *CPU) Regs() *RegisterFile { return c.regs }
func (c *CPU) Memory() *Memory { return c.mem }
func (c *CPU) Stats() Stats { return c.stats }
func (c *CPU) Retired() uint64 { return c.stats.Retired }
func (c *CPU) LastStep() StepInfo { return c.last }
func (c *CPU) TraceLines() uint64 { return c.trace.Lines() }
func (c *CPU) Config() Config { return c.cfg }
func (c *CPU) Trace() *TraceLogger { return c.trace }
func (c *CPU) Reg(idx uint8) uint32 { return c.regs.Get(idx) }
func (c *CPU) SetReg(idx uint8, v uint32) { c.regs.Set(idx, v) }

// FlushTrace pushes buffered trace output to the writer.
func (c *CPU) FlushTrace() error {
	return c.trace.Close()
}

// ------------------------------------------------------------------------------
// Step
// ------------------------------------------------------------------------------

// Step retires exactly one instruction. It returns ErrHalted once the CPU
// has halted, and a *DecodeError for an unrecognised word, in which case PC
// is left pointing at it.
func (c *CPU) Step() error {
	if c.halted {
		return ErrHalted
	}
	pc := c.PC
	word, lat := c.mem.Read32(pc)
	c.stats.MemoryCycles += lat

	in, err := Decode(word, pc)
	if err != nil {
		return err
	}

	tracing := c.trace.Enabled()
	if tracing {
		c.traceSources(pc, in)
	}

	next, err := c.execute(in, pc)
	if err != nil {
		return err
	}

	if tracing {
		c.traceDest(in)
		if err := c.trace.Flush(); err != nil {
			return err
		}
	}

	c.PC = next
	c.stats.Retired++
	c.last = StepInfo{PC: pc, NextPC: next, Inst: in}

	if in.Mnemonic == EBREAK || (c.cfg.HaltOnZeroPC && next == 0) {
		c.halted = true
	}
	return nil
}

// touches reports which register slots in reads or writes. SYSTEM and
// FENCE carry register fields in their encoding but use none of them.
func touches(in Instruction) (rd, rs1, rs2 bool) {
	switch in.Mnemonic {
	case FENCE, ECALL, EBREAK:
		return false, false, false
	}
	return in.HasRd(), in.HasRs1(), in.HasRs2()
}

func (c *CPU) traceSources(pc uint32, in Instruction) {
	t := c.trace
	t.SetPC(pc)
	t.SetInstruction(in.Word)
	if t.Mode() == TraceReference {
		// raw slots, whatever the format
		rs1, rs2 := bitsRs1(in.Word), bitsRs2(in.Word)
		t.SetRegister(SlotRs1, rs1, c.regs.Get(rs1))
		t.SetRegister(SlotRs2, rs2, c.regs.Get(rs2))
		return
	}
	_, r1, r2 := touches(in)
	if r1 {
		t.SetRegister(SlotRs1, in.Rs1, c.regs.Get(in.Rs1))
	}
	if r2 {
		t.SetRegister(SlotRs2, in.Rs2, c.regs.Get(in.Rs2))
	}
	t.SetDecoded(in)
}

func (c *CPU) traceDest(in Instruction) {
	t := c.trace
	if t.Mode() == TraceReference {
		rd := bitsRd(in.Word)
		t.SetRegister(SlotRd, rd, c.regs.Get(rd))
		return
	}
	if rd, _, _ := touches(in); rd {
		t.SetRegister(SlotRd, in.Rd, c.regs.Get(in.Rd))
	}
}

// ------------------------------------------------------------------------------
// Run
// ------------------------------------------------------------------------------

// Run steps until the CPU halts, a step fails, a stop condition or hook
// fires, MaxInstructions is reached or ctx is cancelled. It returns the
// number of instructions retired by this call. Trace output is flushed on
// every exit path.
func (c *CPU) Run(ctx context.Context) (n uint64, err error) {
	start := c.stats.Retired
	defer func() {
		n = c.stats.Retired - start
		if ferr := c.trace.Close(); ferr != nil && err == nil {
			err = ferr
		}
	}()

	limit := c.cfg.MaxInstructions
	checkCounter := uint32(0)

	for !c.halted {
		checkCounter++
		if checkCounter&RUN_CHECK_MASK == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		if limit > 0 && c.stats.Retired-start >= limit {
			return 0, ErrStepLimit
		}

		if err := c.Step(); err != nil {
			return 0, err
		}

		for _, cond := range c.cfg.Conditions {
			if cond.Eval(c) {
				return 0, &StopEvent{PC: c.PC, Reason: "condition " + cond.String()}
			}
		}
		for _, h := range c.cfg.Hooks {
			stop, err := h.OnStep(c, c.last)
			if err != nil {
				return 0, err
			}
			if stop {
				return 0, &StopEvent{PC: c.PC, Reason: "hook requested stop"}
			}
		}
	}
	return 0, nil
}

// IsCleanStop reports whether err from Run means the program ended on its
// own terms or was stopped on request.
func IsCleanStop(err error) bool {
	return err == nil || errors.Is(err, ErrStopped)
}

// ------------------------------------------------------------------------------
// Execute
// ------------------------------------------------------------------------------

func (c *CPU) load(addr uint32, m Mnemonic) uint32 {
	var v uint32
	var lat Cycles
	switch m {
	case LB:
		var b uint8
		b, lat = c.mem.Read8(addr)
		v = uint32(int32(int8(b)))
	case LBU:
		var b uint8
		b, lat = c.mem.Read8(addr)
		v = uint32(b)
	case LH:
		var h uint16
		h, lat = c.mem.Read16(addr)
		v = uint32(int32(int16(h)))
	case LHU:
		var h uint16
		h, lat = c.mem.Read16(addr)
		v = uint32(h)
	case LW:
		v, lat = c.mem.Read32(addr)
	}
	c.stats.MemoryCycles += lat
	c.stats.Loads++
	return v
}

func (c *CPU) store(addr, v uint32, m Mnemonic) {
	var lat Cycles
	switch m {
	case SB:
		lat = c.mem.Write8(addr, uint8(v))
	case SH:
		lat = c.mem.Write16(addr, uint16(v))
	case SW:
		lat = c.mem.Write32(addr, v)
	}
	c.stats.MemoryCycles += lat
	c.stats.Stores++
}

func (c *CPU) branch(taken bool, pc uint32, imm int32) uint32 {
	c.stats.Branches++
	if taken {
		c.stats.TakenBranches++
		return pc + uint32(imm)
	}
	return pc + 4
}

// execute applies in and returns the next PC.
func (c *CPU) execute(in Instruction, pc uint32) (uint32, error) {
	r := c.regs
	a := r.Get(in.Rs1)
	b := r.Get(in.Rs2)
	imm := uint32(in.Imm)
	next := pc + 4

	switch in.Mnemonic {
	case LUI:
		r.Set(in.Rd, imm)
	case AUIPC:
		r.Set(in.Rd, pc+imm)

	case JAL:
		r.Set(in.Rd, pc+4)
		next = pc + imm
		c.stats.Jumps++
	case JALR:
		// target uses rs1 before rd is written; rd may equal rs1.
		// Bit 0 of rs1+imm is cleared, as the ISA and the reference
		// simulator do.
		next = (a + imm) &^ 1
		r.Set(in.Rd, pc+4)
		c.stats.Jumps++

	case BEQ:
		next = c.branch(a == b, pc, in.Imm)
	case BNE:
		next = c.branch(a != b, pc, in.Imm)
	case BLT:
		next = c.branch(int32(a) < int32(b), pc, in.Imm)
	case BGE:
		next = c.branch(int32(a) >= int32(b), pc, in.Imm)
	case BLTU:
		next = c.branch(a < b, pc, in.Imm)
	case BGEU:
		next = c.branch(a >= b, pc, in.Imm)

	case LB, LH, LW, LBU, LHU:
		r.Set(in.Rd, c.load(a+imm, in.Mnemonic))
	case SB, SH, SW:
		c.store(a+imm, b, in.Mnemonic)

	case ADDI:
		r.Set(in.Rd, a+imm)
	case SLTI:
		r.Set(in.Rd, boolBit(int32(a) < in.Imm))
	case SLTIU:
		r.Set(in.Rd, boolBit(a < imm))
	case XORI:
		r.Set(in.Rd, a^imm)
	case ORI:
		r.Set(in.Rd, a|imm)
	case ANDI:
		r.Set(in.Rd, a&imm)
	case SLLI:
		r.Set(in.Rd, a<<in.Shamt())
	case SRLI:
		r.Set(in.Rd, a>>in.Shamt())
	case SRAI:
		r.Set(in.Rd, uint32(int32(a)>>in.Shamt()))

	case ADD:
		r.Set(in.Rd, a+b)
	case SUB:
		r.Set(in.Rd, a-b)
	case SLL:
		r.Set(in.Rd, a<<(b&0x1F))
	case SLT:
		r.Set(in.Rd, boolBit(int32(a) < int32(b)))
	case SLTU:
		r.Set(in.Rd, boolBit(a < b))
	case XOR:
		r.Set(in.Rd, a^b)
	case SRL:
		r.Set(in.Rd, a>>(b&0x1F))
	case SRA:
		r.Set(in.Rd, uint32(int32(a)>>(b&0x1F)))
	case OR:
		r.Set(in.Rd, a|b)
	case AND:
		r.Set(in.Rd, a&b)

	case FENCE, ECALL:
		// no memory ordering or environment to model
	case EBREAK:
		// Step halts after the instruction retires

	case MUL:
		r.Set(in.Rd, a*b)
	case MULH:
		r.Set(in.Rd, uint32(uint64(int64(int32(a))*int64(int32(b)))>>32))
	case MULHSU:
		r.Set(in.Rd, uint32(uint64(int64(int32(a))*int64(b))>>32))
	case MULHU:
		r.Set(in.Rd, uint32((uint64(a)*uint64(b))>>32))
	case DIV:
		r.Set(in.Rd, div(a, b))
	case DIVU:
		if b == 0 {
			r.Set(in.Rd, math.MaxUint32)
		} else {
			r.Set(in.Rd, a/b)
		}
	case REM:
		r.Set(in.Rd, rem(a, b))
	case REMU:
		if b == 0 {
			r.Set(in.Rd, a)
		} else {
			r.Set(in.Rd, a%b)
		}

	default:
		return pc, &IllegalInstructionError{PC: pc, Word: in.Word, Mnemonic: in.Mnemonic}
	}
	return next, nil
}

func boolBit(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

func div(a, b uint32) uint32 {
	sa, sb := int32(a), int32(b)
	switch {
	case sb == 0:
		return math.MaxUint32
	case sa == math.MinInt32 && sb == -1:
		return a
	}
	return uint32(sa / sb)
}

func rem(a, b uint32) uint32 {
	sa, sb := int32(a), int32(b)
	switch {
	case sb == 0:
		return a
	case sa == math.MinInt32 && sb == -1:
		return 0
	}
	return uint32(sa % sb)
}
