// registers.go - RV32 general-purpose register file

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
	"fmt"
	"strconv"
	"strings"
)

const NUM_REGS = 32

// Register indices with a fixed role.
const (
	REG_ZERO = 0
	REG_RA   = 1
	REG_SP   = 2
)

// abiNames are the canonical ABI names, indexed by register number.
var abiNames = [NUM_REGS]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// RegName returns the ABI name of register r.
func RegName(r uint8) string {
	return abiNames[r&0x1F]
}

// ParseRegister accepts an ABI name ("a0"), an architectural name ("x10")
// or the frame pointer alias "fp".
func ParseRegister(name string) (uint8, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "fp" {
		return 8, true
	}
	for i, n := range abiNames {
		if n == name {
			return uint8(i), true
		}
	}
	if strings.HasPrefix(name, "x") {
		n, err := strconv.Atoi(name[1:])
		if err == nil && n >= 0 && n < NUM_REGS {
			return uint8(n), true
		}
	}
	return 0, false
}

// RegisterFile holds x0..x31 as raw 32-bit patterns. Signed views are taken
// with int32() at the point of use so every wrap is explicit.
type RegisterFile struct {
	regs [NUM_REGS]uint32
}

// NewRegisterFile returns a zeroed register file. A non-zero sp seeds x2.
func NewRegisterFile(sp uint32) *RegisterFile {
	rf := &RegisterFile{}
	rf.regs[REG_SP] = sp
	return rf
}

// Get returns register idx. x0 always reads zero.
func (rf *RegisterFile) Get(idx uint8) uint32 {
	if idx == REG_ZERO {
		return 0
	}
	return rf.regs[idx&0x1F]
}

// Set writes register idx. Writes to x0 are dropped.
func (rf *RegisterFile) Set(idx uint8, val uint32) {
	if idx == REG_ZERO {
		return // x0 is hardwired to zero
	}
	rf.regs[idx&0x1F] = val
}

// Snapshot returns a copy of all 32 registers.
func (rf *RegisterFile) Snapshot() [NUM_REGS]uint32 {
	s := rf.regs
	s[REG_ZERO] = 0
	return s
}

func (rf *RegisterFile) String() string {
	var sb strings.Builder
	for i := 0; i < NUM_REGS; i++ {
		fmt.Fprintf(&sb, "x%02d(%-4s)=%08X", i, abiNames[i], rf.Get(uint8(i)))
		if i%4 == 3 {
			sb.WriteByte('\n')
		} else {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}
