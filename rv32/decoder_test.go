package rv32

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
)

// sample returns a representative instruction for m with every field its
// format carries set to a non-trivial value.
func sample(m Mnemonic) Instruction {
	in := Instruction{Mnemonic: m, Format: FormatOf(m)}
	switch {
	case m == FENCE, m == ECALL:
		// no operands
	case m == EBREAK:
		in.Imm = 1
	case m.IsShiftImm():
		in.Rd, in.Rs1, in.Rs2 = 5, 6, 31
	case in.Format == FormatR:
		in.Rd, in.Rs1, in.Rs2 = 5, 6, 7
	case in.Format == FormatI:
		in.Rd, in.Rs1, in.Imm = 5, 6, -42
	case in.Format == FormatS:
		in.Rs1, in.Rs2, in.Imm = 6, 7, -2048
	case in.Format == FormatB:
		in.Rs1, in.Rs2, in.Imm = 6, 7, -4096
	case in.Format == FormatU:
		in.Rd, in.Imm = 5, int32(-0x7FFFF000)
	case in.Format == FormatJ:
		in.Rd, in.Imm = 5, -1048576
	}
	return in
}

func TestDecode_RoundTripEveryMnemonic(t *testing.T) {
	for _, m := range Mnemonics() {
		t.Run(m.String(), func(t *testing.T) {
			in := sample(m)
			w, err := Encode(in)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := Decode(w, 0)
			if err != nil {
				t.Fatalf("Decode(0x%08X): %v", w, err)
			}
			in.Word = w
			if got != in {
				t.Fatalf("Decode(0x%08X) = %+v, want %+v", w, got, in)
			}
		})
	}
}

// randomInstruction fills every field m's format carries with a random value
// the encoding can represent.
func randomInstruction(rng *rand.Rand, m Mnemonic) Instruction {
	in := Instruction{Mnemonic: m, Format: FormatOf(m)}
	reg := func() uint8 { return uint8(rng.Intn(NUM_REGS)) }
	switch {
	case m == ECALL, m == EBREAK:
		return sample(m)
	case m.IsShiftImm():
		in.Rd, in.Rs1, in.Rs2 = reg(), reg(), reg()
	case in.Format == FormatR:
		in.Rd, in.Rs1, in.Rs2 = reg(), reg(), reg()
	case in.Format == FormatI:
		in.Rd, in.Rs1, in.Imm = reg(), reg(), int32(rng.Intn(1<<12))-1<<11
	case in.Format == FormatS:
		in.Rs1, in.Rs2, in.Imm = reg(), reg(), int32(rng.Intn(1<<12))-1<<11
	case in.Format == FormatB:
		in.Rs1, in.Rs2, in.Imm = reg(), reg(), (int32(rng.Intn(1<<12))-1<<11)*2
	case in.Format == FormatU:
		in.Rd, in.Imm = reg(), int32(rng.Uint32()&0xFFFFF000)
	case in.Format == FormatJ:
		in.Rd, in.Imm = reg(), (int32(rng.Intn(1<<20))-1<<19)*2
	}
	return in
}

func TestDecode_RoundTripGeneratedCorpus(t *testing.T) {
	const perMnemonic = 2000
	rng := rand.New(rand.NewSource(0x5EED))
	for _, m := range Mnemonics() {
		t.Run(m.String(), func(t *testing.T) {
			for i := 0; i < perMnemonic; i++ {
				in := randomInstruction(rng, m)
				w, err := Encode(in)
				if err != nil {
					t.Fatalf("Encode(%+v): %v", in, err)
				}
				got, err := Decode(w, 0)
				if err != nil {
					t.Fatalf("Decode(0x%08X): %v", w, err)
				}
				in.Word = w
				if got != in {
					t.Fatalf("Decode(0x%08X) = %+v, want %+v", w, got, in)
				}
				w2, err := Encode(got)
				if err != nil || w2 != w {
					t.Fatalf("re-encode of 0x%08X = 0x%08X, %v", w, w2, err)
				}
			}
		})
	}
}

// Every register triple through the R format, exhaustively.
func TestDecode_RoundTripAllRegisterTriples(t *testing.T) {
	for _, m := range []Mnemonic{ADD, SUB, MULHSU, REMU, SRA} {
		for rd := uint8(0); rd < NUM_REGS; rd++ {
			for rs1 := uint8(0); rs1 < NUM_REGS; rs1++ {
				for rs2 := uint8(0); rs2 < NUM_REGS; rs2++ {
					in := Instruction{Mnemonic: m, Format: FormatR, Rd: rd, Rs1: rs1, Rs2: rs2}
					w, err := Encode(in)
					if err != nil {
						t.Fatalf("Encode(%+v): %v", in, err)
					}
					got, err := Decode(w, 0)
					in.Word = w
					if err != nil || got != in {
						t.Fatalf("Decode(0x%08X) = %+v, %v; want %+v", w, got, err, in)
					}
				}
			}
		}
	}
}

func TestDecode_ImmediateExtremes(t *testing.T) {
	tests := []Instruction{
		{Mnemonic: ADDI, Rd: 1, Rs1: 2, Imm: 2047},
		{Mnemonic: ADDI, Rd: 1, Rs1: 2, Imm: -2048},
		{Mnemonic: SW, Rs1: 2, Rs2: 3, Imm: 2047},
		{Mnemonic: SW, Rs1: 2, Rs2: 3, Imm: -1},
		{Mnemonic: BNE, Rs1: 2, Rs2: 3, Imm: 4094},
		{Mnemonic: BNE, Rs1: 2, Rs2: 3, Imm: -2},
		{Mnemonic: JAL, Rd: 1, Imm: 1048574},
		{Mnemonic: JAL, Rd: 1, Imm: -2},
		{Mnemonic: LUI, Rd: 1, Imm: int32(-4096)},
	}
	for _, in := range tests {
		t.Run(fmt.Sprintf("%s_%d", in.Mnemonic, in.Imm), func(t *testing.T) {
			in.Format = FormatOf(in.Mnemonic)
			w, err := Encode(in)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := Decode(w, 0)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got.Imm != in.Imm {
				t.Fatalf("imm = %d, want %d", got.Imm, in.Imm)
			}
		})
	}
}

func TestDecode_KnownWords(t *testing.T) {
	tests := []struct {
		word uint32
		want Instruction
	}{
		{0x00C58533, Instruction{Mnemonic: ADD, Format: FormatR, Rd: 10, Rs1: 11, Rs2: 12}},
		{0x40C58533, Instruction{Mnemonic: SUB, Format: FormatR, Rd: 10, Rs1: 11, Rs2: 12}},
		{0x02C58533, Instruction{Mnemonic: MUL, Format: FormatR, Rd: 10, Rs1: 11, Rs2: 12}},
		{0xFF010113, Instruction{Mnemonic: ADDI, Format: FormatI, Rd: 2, Rs1: 2, Imm: -16}},
		{0x00112623, Instruction{Mnemonic: SW, Format: FormatS, Rs1: 2, Rs2: 1, Imm: 12}},
		{0x00008067, Instruction{Mnemonic: JALR, Format: FormatI, Rd: 0, Rs1: 1, Imm: 0}},
		{0x40355513, Instruction{Mnemonic: SRAI, Format: FormatR, Rd: 10, Rs1: 10, Rs2: 3}},
		{0x00000073, Instruction{Mnemonic: ECALL, Format: FormatI}},
		{0x00100073, Instruction{Mnemonic: EBREAK, Format: FormatI, Imm: 1}},
		{0x0FF0000F, Instruction{Mnemonic: FENCE, Format: FormatI, Imm: 0xFF}},
	}
	for _, tt := range tests {
		t.Run(tt.want.Mnemonic.String(), func(t *testing.T) {
			got, err := Decode(tt.word, 0)
			if err != nil {
				t.Fatalf("Decode(0x%08X): %v", tt.word, err)
			}
			tt.want.Word = tt.word
			if got != tt.want {
				t.Fatalf("Decode(0x%08X) = %+v, want %+v", tt.word, got, tt.want)
			}
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		word uint32
	}{
		{"zero_word", 0x00000000},
		{"all_ones", 0xFFFFFFFF},
		{"op_bad_funct7", 0x04C58533},
		{"sub_bad_funct3", 0x40C59533},
		{"slli_bad_funct7", 0x40001013},
		{"srli_bad_funct7", 0x10005013},
		{"load_funct3_3", 0x00003003},
		{"store_funct3_3", 0x00003023},
		{"branch_funct3_2", 0x00002063},
		{"csrrw", 0x00001073},
		{"system_imm_2", 0x00200073},
		{"compressed", 0x00004501},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.word, 0x80)
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("Decode(0x%08X) err = %v, want *DecodeError", tt.word, err)
			}
			if de.Word != tt.word || de.PC != 0x80 {
				t.Fatalf("DecodeError word=0x%08X pc=0x%X", de.Word, de.PC)
			}
		})
	}
}

func TestDecode_FieldPresence(t *testing.T) {
	slli := sample(SLLI)
	if slli.HasRs2() {
		t.Fatal("slli should not report an rs2 register")
	}
	if slli.Shamt() != 31 {
		t.Fatalf("shamt = %d, want 31", slli.Shamt())
	}
	if sw := sample(SW); sw.HasRd() {
		t.Fatal("sw has no rd")
	}
	if lui := sample(LUI); lui.HasRs1() || lui.HasRs2() {
		t.Fatal("lui has no source registers")
	}
}

func TestEncode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   Instruction
	}{
		{"invalid", Instruction{Mnemonic: INVALID}},
		{"imm_too_large", Instruction{Mnemonic: ADDI, Imm: 2048}},
		{"odd_branch", Instruction{Mnemonic: BEQ, Imm: 3}},
		{"branch_range", Instruction{Mnemonic: BEQ, Imm: 4096}},
		{"odd_jump", Instruction{Mnemonic: JAL, Imm: 1}},
		{"u_low_bits", Instruction{Mnemonic: LUI, Imm: 0x123}},
		{"reg_range", Instruction{Mnemonic: ADD, Rd: 32}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Encode(tt.in); err == nil {
				t.Fatal("Encode succeeded, want error")
			}
		})
	}
}

func TestDisassemble(t *testing.T) {
	ops := func(m, operands string) string { return fmt.Sprintf("%-8s %s", m, operands) }
	tests := []struct {
		in   Instruction
		pc   uint32
		want string
	}{
		{Instruction{Mnemonic: ADD, Format: FormatR, Rd: 10, Rs1: 11, Rs2: 12}, 0, ops("add", "a0,a1,a2")},
		{Instruction{Mnemonic: MULHSU, Format: FormatR, Rd: 5, Rs1: 6, Rs2: 7}, 0, ops("mulhsu", "t0,t1,t2")},
		{Instruction{Mnemonic: ADDI, Format: FormatI, Rd: 2, Rs1: 2, Imm: -16}, 0, ops("addi", "sp,sp,-16")},
		{Instruction{Mnemonic: SLLI, Format: FormatR, Rd: 10, Rs1: 10, Rs2: 12}, 0, ops("slli", "a0,a0,0xc")},
		{Instruction{Mnemonic: LW, Format: FormatI, Rd: 10, Rs1: 2, Imm: 8}, 0, ops("lw", "a0,8(sp)")},
		{Instruction{Mnemonic: LBU, Format: FormatI, Rd: 10, Rs1: 8, Imm: -1}, 0, ops("lbu", "a0,-1(s0)")},
		{Instruction{Mnemonic: SW, Format: FormatS, Rs1: 2, Rs2: 1, Imm: 12}, 0, ops("sw", "ra,12(sp)")},
		{Instruction{Mnemonic: BEQ, Format: FormatB, Rs1: 10, Rs2: 0, Imm: 16}, 0x100, ops("beq", "a0,zero,0x110")},
		{Instruction{Mnemonic: BNE, Format: FormatB, Rs1: 10, Rs2: 11, Imm: -8}, 0x20, ops("bne", "a0,a1,0x18")},
		{Instruction{Mnemonic: JAL, Format: FormatJ, Rd: 1, Imm: -8}, 0x20, ops("jal", "ra,0x18")},
		{Instruction{Mnemonic: JALR, Format: FormatI, Rd: 0, Rs1: 1, Imm: 0}, 0, ops("jalr", "zero,0(ra)")},
		{Instruction{Mnemonic: LUI, Format: FormatU, Rd: 10, Imm: 0x12345000}, 0, ops("lui", "a0,0x12345")},
		{Instruction{Mnemonic: AUIPC, Format: FormatU, Rd: 3, Imm: -4096}, 0, ops("auipc", "gp,0xfffff")},
		{Instruction{Mnemonic: EBREAK, Format: FormatI, Imm: 1}, 0, "ebreak"},
		{Instruction{Mnemonic: ECALL, Format: FormatI}, 0, "ecall"},
		{Instruction{Mnemonic: FENCE, Format: FormatI}, 0, "fence"},
	}
	for _, tt := range tests {
		t.Run(tt.in.Mnemonic.String(), func(t *testing.T) {
			if got := Disassemble(tt.in, tt.pc); got != tt.want {
				t.Fatalf("Disassemble = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisassembleRange(t *testing.T) {
	mem := NewMemory()
	mem.Write32(0, 0x00C58533)
	mem.Write32(4, 0xFFFFFFFF)
	lines := DisassembleRange(mem, 0, 2)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !lines[0].Valid || lines[0].Mnemonic != Disassemble(Instruction{Mnemonic: ADD, Format: FormatR, Rd: 10, Rs1: 11, Rs2: 12}, 0) {
		t.Fatalf("line 0 = %+v", lines[0])
	}
	if lines[1].Valid || lines[1].Address != 4 {
		t.Fatalf("line 1 = %+v, want invalid at 4", lines[1])
	}
}

func BenchmarkDecode(b *testing.B) {
	words := []uint32{0x00C58533, 0xFF010113, 0x00112623, 0x00008067, 0x02C58533, 0x40355513}
	for i := 0; i < b.N; i++ {
		if _, err := Decode(words[i%len(words)], 0); err != nil {
			b.Fatal(err)
		}
	}
}
