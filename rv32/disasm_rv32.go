// disasm_rv32.go - RV32IM disassembly renderer

package rv32

import "strconv"

// MNEMONIC_WIDTH is the column the operand list starts after.
const MNEMONIC_WIDTH = 8

// Disassemble renders in as "<mnemonic padded to 8> <operands>". pc is the
// address of the instruction; branch and jump targets are printed absolute.
func Disassemble(in Instruction, pc uint32) string {
	return string(AppendDisassembly(nil, in, pc))
}

// AppendDisassembly is the allocation-free form of Disassemble.
func AppendDisassembly(dst []byte, in Instruction, pc uint32) []byte {
	name := in.Mnemonic.String()

	switch in.Mnemonic {
	case FENCE, ECALL, EBREAK:
		return append(dst, name...)
	}

	dst = append(dst, name...)
	for i := len(name); i < MNEMONIC_WIDTH; i++ {
		dst = append(dst, ' ')
	}
	dst = append(dst, ' ')

	switch {
	case in.Mnemonic.IsShiftImm():
		dst = appendRegs(dst, in.Rd, in.Rs1)
		dst = append(dst, ",0x"...)
		dst = strconv.AppendUint(dst, uint64(in.Shamt()), 16)

	case in.Format == FormatR:
		dst = appendRegs(dst, in.Rd, in.Rs1, in.Rs2)

	case in.Mnemonic.IsLoad(), in.Mnemonic == JALR:
		dst = append(dst, RegName(in.Rd)...)
		dst = append(dst, ',')
		dst = appendMemOperand(dst, in.Imm, in.Rs1)

	case in.Mnemonic.IsStore():
		dst = append(dst, RegName(in.Rs2)...)
		dst = append(dst, ',')
		dst = appendMemOperand(dst, in.Imm, in.Rs1)

	case in.Format == FormatI:
		dst = appendRegs(dst, in.Rd, in.Rs1)
		dst = append(dst, ',')
		dst = strconv.AppendInt(dst, int64(in.Imm), 10)

	case in.Format == FormatB:
		dst = appendRegs(dst, in.Rs1, in.Rs2)
		dst = append(dst, ",0x"...)
		dst = strconv.AppendUint(dst, uint64(pc+uint32(in.Imm)), 16)

	case in.Format == FormatJ:
		dst = append(dst, RegName(in.Rd)...)
		dst = append(dst, ",0x"...)
		dst = strconv.AppendUint(dst, uint64(pc+uint32(in.Imm)), 16)

	case in.Format == FormatU:
		dst = append(dst, RegName(in.Rd)...)
		dst = append(dst, ",0x"...)
		dst = strconv.AppendUint(dst, uint64(uint32(in.Imm)>>12), 16)
	}
	return dst
}

func appendRegs(dst []byte, regs ...uint8) []byte {
	for i, r := range regs {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, RegName(r)...)
	}
	return dst
}

func appendMemOperand(dst []byte, imm int32, base uint8) []byte {
	dst = strconv.AppendInt(dst, int64(imm), 10)
	dst = append(dst, '(')
	dst = append(dst, RegName(base)...)
	return append(dst, ')')
}

// DisassembledLine is one listing entry.
type DisassembledLine struct {
	Address  uint32
	Word     uint32
	Mnemonic string
	Valid    bool
}

// DisassembleRange decodes count consecutive words starting at addr. Words
// that fail to decode are listed with Valid=false.
func DisassembleRange(mem *Memory, addr uint32, count int) []DisassembledLine {
	lines := make([]DisassembledLine, 0, count)
	for i := 0; i < count; i++ {
		w, _ := mem.Read32(addr)
		line := DisassembledLine{Address: addr, Word: w}
		if in, err := Decode(w, addr); err == nil {
			line.Mnemonic = Disassemble(in, addr)
			line.Valid = true
		} else {
			line.Mnemonic = ".word   0x" + strconv.FormatUint(uint64(w), 16)
		}
		lines = append(lines, line)
		addr += 4
	}
	return lines
}
