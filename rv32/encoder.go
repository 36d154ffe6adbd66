// encoder.go - RV32IM instruction encoder

package rv32

import "fmt"

type encoding struct {
	opcode uint32
	funct3 uint32
	funct7 uint32
	format Format
}

var encodings = [numMnemonics]encoding{
	LUI:   {OPC_LUI, 0, 0, FormatU},
	AUIPC: {OPC_AUIPC, 0, 0, FormatU},
	JAL:   {OPC_JAL, 0, 0, FormatJ},
	JALR:  {OPC_JALR, 0, 0, FormatI},

	BEQ:  {OPC_BRANCH, 0x0, 0, FormatB},
	BNE:  {OPC_BRANCH, 0x1, 0, FormatB},
	BLT:  {OPC_BRANCH, 0x4, 0, FormatB},
	BGE:  {OPC_BRANCH, 0x5, 0, FormatB},
	BLTU: {OPC_BRANCH, 0x6, 0, FormatB},
	BGEU: {OPC_BRANCH, 0x7, 0, FormatB},

	LB:  {OPC_LOAD, 0x0, 0, FormatI},
	LH:  {OPC_LOAD, 0x1, 0, FormatI},
	LW:  {OPC_LOAD, 0x2, 0, FormatI},
	LBU: {OPC_LOAD, 0x4, 0, FormatI},
	LHU: {OPC_LOAD, 0x5, 0, FormatI},

	SB: {OPC_STORE, 0x0, 0, FormatS},
	SH: {OPC_STORE, 0x1, 0, FormatS},
	SW: {OPC_STORE, 0x2, 0, FormatS},

	ADDI:  {OPC_OP_IMM, 0x0, 0, FormatI},
	SLTI:  {OPC_OP_IMM, 0x2, 0, FormatI},
	SLTIU: {OPC_OP_IMM, 0x3, 0, FormatI},
	XORI:  {OPC_OP_IMM, 0x4, 0, FormatI},
	ORI:   {OPC_OP_IMM, 0x6, 0, FormatI},
	ANDI:  {OPC_OP_IMM, 0x7, 0, FormatI},
	SLLI:  {OPC_OP_IMM, 0x1, F7_BASE, FormatR},
	SRLI:  {OPC_OP_IMM, 0x5, F7_BASE, FormatR},
	SRAI:  {OPC_OP_IMM, 0x5, F7_ALT, FormatR},

	ADD:  {OPC_OP, 0x0, F7_BASE, FormatR},
	SUB:  {OPC_OP, 0x0, F7_ALT, FormatR},
	SLL:  {OPC_OP, 0x1, F7_BASE, FormatR},
	SLT:  {OPC_OP, 0x2, F7_BASE, FormatR},
	SLTU: {OPC_OP, 0x3, F7_BASE, FormatR},
	XOR:  {OPC_OP, 0x4, F7_BASE, FormatR},
	SRL:  {OPC_OP, 0x5, F7_BASE, FormatR},
	SRA:  {OPC_OP, 0x5, F7_ALT, FormatR},
	OR:   {OPC_OP, 0x6, F7_BASE, FormatR},
	AND:  {OPC_OP, 0x7, F7_BASE, FormatR},

	FENCE:  {OPC_MISC_MEM, 0x0, 0, FormatI},
	ECALL:  {OPC_SYSTEM, 0x0, 0, FormatI},
	EBREAK: {OPC_SYSTEM, 0x0, 0, FormatI},

	MUL:    {OPC_OP, 0x0, F7_MULDIV, FormatR},
	MULH:   {OPC_OP, 0x1, F7_MULDIV, FormatR},
	MULHSU: {OPC_OP, 0x2, F7_MULDIV, FormatR},
	MULHU:  {OPC_OP, 0x3, F7_MULDIV, FormatR},
	DIV:    {OPC_OP, 0x4, F7_MULDIV, FormatR},
	DIVU:   {OPC_OP, 0x5, F7_MULDIV, FormatR},
	REM:    {OPC_OP, 0x6, F7_MULDIV, FormatR},
	REMU:   {OPC_OP, 0x7, F7_MULDIV, FormatR},
}

// FormatOf returns the structural format of m.
func FormatOf(m Mnemonic) Format {
	if m == INVALID || m >= numMnemonics {
		return FormatR
	}
	return encodings[m].format
}

// Encode packs in back into an instruction word. Only the fields that in's
// mnemonic uses are read; Format is taken from the mnemonic.
func Encode(in Instruction) (uint32, error) {
	if in.Mnemonic == INVALID || in.Mnemonic >= numMnemonics {
		return 0, fmt.Errorf("rv32: cannot encode mnemonic %d", in.Mnemonic)
	}
	if in.Rd > 31 || in.Rs1 > 31 || in.Rs2 > 31 {
		return 0, fmt.Errorf("rv32: register out of range in %s", in.Mnemonic)
	}
	e := encodings[in.Mnemonic]
	rd, rs1, rs2 := uint32(in.Rd), uint32(in.Rs1), uint32(in.Rs2)
	imm := uint32(in.Imm)

	switch e.format {
	case FormatR:
		return e.funct7<<25 | rs2<<20 | rs1<<15 | e.funct3<<12 | rd<<7 | e.opcode, nil

	case FormatI:
		switch in.Mnemonic {
		case ECALL:
			imm = 0
		case EBREAK:
			imm = 1
		}
		if !fitsSigned(in.Imm, 12) && in.Mnemonic != FENCE {
			return 0, fmt.Errorf("rv32: immediate %d out of range for %s", in.Imm, in.Mnemonic)
		}
		return (imm&0xFFF)<<20 | rs1<<15 | e.funct3<<12 | rd<<7 | e.opcode, nil

	case FormatS:
		if !fitsSigned(in.Imm, 12) {
			return 0, fmt.Errorf("rv32: immediate %d out of range for %s", in.Imm, in.Mnemonic)
		}
		return (imm>>5&0x7F)<<25 | rs2<<20 | rs1<<15 | e.funct3<<12 | (imm&0x1F)<<7 | e.opcode, nil

	case FormatB:
		if !fitsSigned(in.Imm, 13) || in.Imm&1 != 0 {
			return 0, fmt.Errorf("rv32: branch offset %d invalid for %s", in.Imm, in.Mnemonic)
		}
		return (imm>>12&0x1)<<31 | (imm>>5&0x3F)<<25 | rs2<<20 | rs1<<15 | e.funct3<<12 |
			(imm>>1&0xF)<<8 | (imm>>11&0x1)<<7 | e.opcode, nil

	case FormatU:
		if imm&0xFFF != 0 {
			return 0, fmt.Errorf("rv32: U immediate 0x%X has low bits set", imm)
		}
		return imm | rd<<7 | e.opcode, nil

	case FormatJ:
		if !fitsSigned(in.Imm, 21) || in.Imm&1 != 0 {
			return 0, fmt.Errorf("rv32: jump offset %d invalid for %s", in.Imm, in.Mnemonic)
		}
		return (imm>>20&0x1)<<31 | (imm>>1&0x3FF)<<21 | (imm>>11&0x1)<<20 |
			(imm>>12&0xFF)<<12 | rd<<7 | e.opcode, nil
	}
	return 0, fmt.Errorf("rv32: unknown format for %s", in.Mnemonic)
}

func fitsSigned(v int32, bits uint) bool {
	lim := int32(1) << (bits - 1)
	return v >= -lim && v < lim
}
