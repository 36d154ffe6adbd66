// decoder.go - RV32IM instruction decoder

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
decoder.go - RV32IM Instruction Decoder

Instruction word layout (bit 31 is the sign bit of every immediate):

  31      25 24  20 19  15 14 12 11   7 6      0
  [ funct7 ] [ rs2 ] [ rs1 ] [ f3 ] [ rd  ] [ opcode ]

Decoding walks a fixed decision structure: the opcode selects either a final
(mnemonic, format) pair or a funct3 level, and some funct3 entries descend to a
funct7 level. SYSTEM is the exception: ECALL and EBREAK share opcode and funct3
and are told apart by the whole 12-bit immediate.

The structure is a nest of switch statements, so it is fixed at compile time
and cannot be mutated at runtime.

Immediates by format:

  I  imm[11:0]  = inst[31:20]                                   sign bit 31
  S  imm[11:5]  = inst[31:25], imm[4:0] = inst[11:7]            sign bit 31
  B  imm[12|11|10:5|4:1] = inst[31|7|30:25|11:8], imm[0] = 0    sign bit 31
  U  imm[31:12] = inst[31:12], imm[11:0] = 0
  J  imm[20|19:12|11|10:1] = inst[31|19:12|20|30:21], imm[0]=0  sign bit 31

SLLI/SRLI/SRAI use the R format; their rs2 slot carries the literal shift
amount, not a register number.
*/

package rv32

// ------------------------------------------------------------------------------
// Major opcodes (bits 6:0)
// ------------------------------------------------------------------------------
const (
	OPC_LOAD     = 0x03 // 0000011
	OPC_MISC_MEM = 0x0F // 0001111
	OPC_OP_IMM   = 0x13 // 0010011
	OPC_AUIPC    = 0x17 // 0010111
	OPC_STORE    = 0x23 // 0100011
	OPC_OP       = 0x33 // 0110011
	OPC_LUI      = 0x37 // 0110111
	OPC_BRANCH   = 0x63 // 1100011
	OPC_JALR     = 0x67 // 1100111
	OPC_JAL      = 0x6F // 1101111
	OPC_SYSTEM   = 0x73 // 1110011
)

// funct7 values
const (
	F7_BASE   = 0x00 // 0000000
	F7_MULDIV = 0x01 // 0000001
	F7_ALT    = 0x20 // 0100000 (SUB, SRA, SRAI)
)

// Format is the structural encoding of an instruction.
type Format uint8

const (
	FormatR Format = iota
	FormatI
	FormatS
	FormatB
	FormatU
	FormatJ
)

var formatNames = [...]string{"R", "I", "S", "B", "U", "J"}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "?"
}

// Mnemonic is the closed set of supported instructions.
type Mnemonic uint8

const (
	INVALID Mnemonic = iota

	LUI
	AUIPC
	JAL
	JALR

	BEQ
	BNE
	BLT
	BGE
	BLTU
	BGEU

	LB
	LH
	LW
	LBU
	LHU

	SB
	SH
	SW

	ADDI
	SLTI
	SLTIU
	XORI
	ORI
	ANDI
	SLLI
	SRLI
	SRAI

	ADD
	SUB
	SLL
	SLT
	SLTU
	XOR
	SRL
	SRA
	OR
	AND

	FENCE
	ECALL
	EBREAK

	MUL
	MULH
	MULHSU
	MULHU
	DIV
	DIVU
	REM
	REMU

	numMnemonics
)

var mnemonicNames = [numMnemonics]string{
	INVALID: "invalid",
	LUI: "lui", AUIPC: "auipc", JAL: "jal", JALR: "jalr",
	BEQ: "beq", BNE: "bne", BLT: "blt", BGE: "bge", BLTU: "bltu", BGEU: "bgeu",
	LB: "lb", LH: "lh", LW: "lw", LBU: "lbu", LHU: "lhu",
	SB: "sb", SH: "sh", SW: "sw",
	ADDI: "addi", SLTI: "slti", SLTIU: "sltiu", XORI: "xori", ORI: "ori", ANDI: "andi",
	SLLI: "slli", SRLI: "srli", SRAI: "srai",
	ADD: "add", SUB: "sub", SLL: "sll", SLT: "slt", SLTU: "sltu",
	XOR: "xor", SRL: "srl", SRA: "sra", OR: "or", AND: "and",
	FENCE: "fence", ECALL: "ecall", EBREAK: "ebreak",
	MUL: "mul", MULH: "mulh", MULHSU: "mulhsu", MULHU: "mulhu",
	DIV: "div", DIVU: "divu", REM: "rem", REMU: "remu",
}

func (m Mnemonic) String() string {
	if m < numMnemonics {
		return mnemonicNames[m]
	}
	return "invalid"
}

// Mnemonics returns every supported mnemonic in declaration order.
func Mnemonics() []Mnemonic {
	out := make([]Mnemonic, 0, numMnemonics-1)
	for m := LUI; m < numMnemonics; m++ {
		out = append(out, m)
	}
	return out
}

// IsShiftImm reports whether the rs2 slot holds a shift amount.
func (m Mnemonic) IsShiftImm() bool {
	return m == SLLI || m == SRLI || m == SRAI
}

func (m Mnemonic) IsBranch() bool {
	return m >= BEQ && m <= BGEU
}

func (m Mnemonic) IsLoad() bool {
	return m >= LB && m <= LHU
}

func (m Mnemonic) IsStore() bool {
	return m >= SB && m <= SW
}

// Instruction is one decoded instruction word.
type Instruction struct {
	Word     uint32
	Mnemonic Mnemonic
	Format   Format
	Rd       uint8
	Rs1      uint8
	Rs2      uint8 // shift amount for SLLI/SRLI/SRAI
	Imm      int32
}

// Fields that a format carries.
func (in Instruction) HasRd() bool {
	switch in.Format {
	case FormatR, FormatI, FormatU, FormatJ:
		return true
	}
	return false
}

func (in Instruction) HasRs1() bool {
	switch in.Format {
	case FormatR, FormatI, FormatS, FormatB:
		return true
	}
	return false
}

// HasRs2 is false for shift-immediates even though they use the R format.
func (in Instruction) HasRs2() bool {
	switch in.Format {
	case FormatR:
		return !in.Mnemonic.IsShiftImm()
	case FormatS, FormatB:
		return true
	}
	return false
}

func (in Instruction) HasImm() bool {
	return in.Format != FormatR
}

// Shamt returns the shift amount of a shift-immediate instruction.
func (in Instruction) Shamt() uint32 {
	return uint32(in.Rs2) & 0x1F
}

// ------------------------------------------------------------------------------
// Field extraction
// ------------------------------------------------------------------------------

func bitsRd(w uint32) uint8      { return uint8(w>>7) & 0x1F }
func bitsRs1(w uint32) uint8     { return uint8(w>>15) & 0x1F }
func bitsRs2(w uint32) uint8     { return uint8(w>>20) & 0x1F }
func bitsFunct3(w uint32) uint32 { return (w >> 12) & 0x07 }
func bitsFunct7(w uint32) uint32 { return w >> 25 }

func immI(w uint32) int32 {
	return int32(w) >> 20
}

func immS(w uint32) int32 {
	return (int32(w)>>25)<<5 | int32((w>>7)&0x1F)
}

func immB(w uint32) int32 {
	return (int32(w)>>31)<<12 |
		int32((w>>7)&0x1)<<11 |
		int32((w>>25)&0x3F)<<5 |
		int32((w>>8)&0xF)<<1
}

func immU(w uint32) int32 {
	return int32(w & 0xFFFFF000)
}

func immJ(w uint32) int32 {
	return (int32(w)>>31)<<20 |
		int32((w>>12)&0xFF)<<12 |
		int32((w>>20)&0x1)<<11 |
		int32((w>>21)&0x3FF)<<1
}

// ------------------------------------------------------------------------------
// Decode
// ------------------------------------------------------------------------------

// Decode classifies w and extracts its operand fields. pc is only used to
// annotate a DecodeError.
func Decode(w uint32, pc uint32) (Instruction, error) {
	m, f, reason := classify(w)
	if m == INVALID {
		return Instruction{}, &DecodeError{PC: pc, Word: w, Reason: reason}
	}
	return fill(w, m, f), nil
}

func fill(w uint32, m Mnemonic, f Format) Instruction {
	in := Instruction{Word: w, Mnemonic: m, Format: f}
	switch f {
	case FormatR:
		in.Rd, in.Rs1, in.Rs2 = bitsRd(w), bitsRs1(w), bitsRs2(w)
	case FormatI:
		in.Rd, in.Rs1, in.Imm = bitsRd(w), bitsRs1(w), immI(w)
	case FormatS:
		in.Rs1, in.Rs2, in.Imm = bitsRs1(w), bitsRs2(w), immS(w)
	case FormatB:
		in.Rs1, in.Rs2, in.Imm = bitsRs1(w), bitsRs2(w), immB(w)
	case FormatU:
		in.Rd, in.Imm = bitsRd(w), immU(w)
	case FormatJ:
		in.Rd, in.Imm = bitsRd(w), immJ(w)
	}
	return in
}

func classify(w uint32) (Mnemonic, Format, string) {
	f3 := bitsFunct3(w)
	f7 := bitsFunct7(w)

	switch opcode := w & 0x7F; opcode {
	case OPC_LUI:
		return LUI, FormatU, ""
	case OPC_AUIPC:
		return AUIPC, FormatU, ""
	case OPC_JAL:
		return JAL, FormatJ, ""
	case OPC_JALR:
		return JALR, FormatI, ""
	case OPC_MISC_MEM:
		return FENCE, FormatI, ""

	case OPC_BRANCH:
		switch f3 {
		case 0x0:
			return BEQ, FormatB, ""
		case 0x1:
			return BNE, FormatB, ""
		case 0x4:
			return BLT, FormatB, ""
		case 0x5:
			return BGE, FormatB, ""
		case 0x6:
			return BLTU, FormatB, ""
		case 0x7:
			return BGEU, FormatB, ""
		}
		return INVALID, 0, "unknown branch funct3"

	case OPC_LOAD:
		switch f3 {
		case 0x0:
			return LB, FormatI, ""
		case 0x1:
			return LH, FormatI, ""
		case 0x2:
			return LW, FormatI, ""
		case 0x4:
			return LBU, FormatI, ""
		case 0x5:
			return LHU, FormatI, ""
		}
		return INVALID, 0, "unknown load funct3"

	case OPC_STORE:
		switch f3 {
		case 0x0:
			return SB, FormatS, ""
		case 0x1:
			return SH, FormatS, ""
		case 0x2:
			return SW, FormatS, ""
		}
		return INVALID, 0, "unknown store funct3"

	case OPC_OP_IMM:
		switch f3 {
		case 0x0:
			return ADDI, FormatI, ""
		case 0x2:
			return SLTI, FormatI, ""
		case 0x3:
			return SLTIU, FormatI, ""
		case 0x4:
			return XORI, FormatI, ""
		case 0x6:
			return ORI, FormatI, ""
		case 0x7:
			return ANDI, FormatI, ""
		case 0x1:
			if f7 == F7_BASE {
				return SLLI, FormatR, ""
			}
		case 0x5:
			switch f7 {
			case F7_BASE:
				return SRLI, FormatR, ""
			case F7_ALT:
				return SRAI, FormatR, ""
			}
		}
		return INVALID, 0, "unknown shift-immediate funct7"

	case OPC_OP:
		switch f7 {
		case F7_BASE:
			return [8]Mnemonic{ADD, SLL, SLT, SLTU, XOR, SRL, OR, AND}[f3], FormatR, ""
		case F7_MULDIV:
			return [8]Mnemonic{MUL, MULH, MULHSU, MULHU, DIV, DIVU, REM, REMU}[f3], FormatR, ""
		case F7_ALT:
			switch f3 {
			case 0x0:
				return SUB, FormatR, ""
			case 0x5:
				return SRA, FormatR, ""
			}
		}
		return INVALID, 0, "unknown register-register funct3/funct7"

	case OPC_SYSTEM:
		// ECALL/EBREAK are keyed by the full 12-bit immediate
		if f3 != 0 {
			return INVALID, 0, "unsupported SYSTEM funct3"
		}
		switch w >> 20 {
		case 0x000:
			return ECALL, FormatI, ""
		case 0x001:
			return EBREAK, FormatI, ""
		}
		return INVALID, 0, "unknown SYSTEM immediate"
	}
	return INVALID, 0, "unknown opcode"
}
