// conditions.go - Stop condition parser and evaluator

package rv32

import (
	"fmt"
	"strconv"
	"strings"
)

type CondSource uint8

const (
	CondSourceRegister CondSource = iota
	CondSourceMemory
	CondSourcePC
	CondSourceRetired
)

type CondOp uint8

const (
	CondOpEqual CondOp = iota
	CondOpNotEqual
	CondOpLess
	CondOpGreater
	CondOpLessEqual
	CondOpGreaterEqual
)

var condOpStrings = [...]string{"==", "!=", "<", ">", "<=", ">="}

// Condition is a predicate over CPU state evaluated after each step.
type Condition struct {
	Source  CondSource
	Reg     uint8
	MemAddr uint32
	Op      CondOp
	Value   uint64
}

// ParseCondition parses a condition string into a Condition.
// Formats:
//
//	a0==$FF        - register a0 (or x10), op ==, value 0xFF
//	[$1000]==$42   - byte at 0x1000, op ==, value 0x42
//	pc==0x80       - program counter
//	retired>=1000  - retired instruction count
//
// Values are decimal, 0x hex or $hex. A leading '-' gives the 32-bit two's
// complement pattern.
func ParseCondition(text string) (*Condition, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty condition")
	}

	var op CondOp
	opStr := ""
	opIdx := 0
	for _, candidate := range []string{"==", "!=", "<=", ">=", "<", ">"} {
		if idx := strings.Index(text, candidate); idx >= 0 {
			opStr, opIdx = candidate, idx
			break
		}
	}
	if opStr == "" {
		return nil, fmt.Errorf("no operator found (use ==, !=, <, >, <=, >=)")
	}
	for i, s := range condOpStrings {
		if s == opStr {
			op = CondOp(i)
		}
	}

	lhs := strings.TrimSpace(text[:opIdx])
	rhs := strings.TrimSpace(text[opIdx+len(opStr):])

	value, ok := ParseValue(rhs)
	if !ok {
		return nil, fmt.Errorf("invalid value: %s", rhs)
	}

	// Memory dereference: [$1000]
	if strings.HasPrefix(lhs, "[") && strings.HasSuffix(lhs, "]") {
		addrStr := lhs[1 : len(lhs)-1]
		addr, ok := ParseValue(addrStr)
		if !ok || addr > 0xFFFFFFFF {
			return nil, fmt.Errorf("invalid memory address: %s", addrStr)
		}
		return &Condition{Source: CondSourceMemory, MemAddr: uint32(addr), Op: op, Value: value}, nil
	}

	switch strings.ToLower(lhs) {
	case "pc":
		return &Condition{Source: CondSourcePC, Op: op, Value: value}, nil
	case "retired":
		return &Condition{Source: CondSourceRetired, Op: op, Value: value}, nil
	}

	reg, ok := ParseRegister(lhs)
	if !ok {
		return nil, fmt.Errorf("unknown register: %s", lhs)
	}
	return &Condition{Source: CondSourceRegister, Reg: reg, Op: op, Value: value}, nil
}

// ParseValue parses "#decimal", "$hex", "0xhex" or plain decimal. A leading
// '-' negates within 32 bits.
func ParseValue(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if s[0] == '-' {
		v, ok := ParseValue(s[1:])
		if !ok || v > 0x80000000 {
			return 0, false
		}
		return uint64(uint32(-int64(v))), true
	}

	var v uint64
	var err error
	switch {
	case strings.HasPrefix(s, "#"):
		v, err = strconv.ParseUint(s[1:], 10, 64)
	case strings.HasPrefix(s, "$"):
		v, err = strconv.ParseUint(s[1:], 16, 64)
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		v, err = strconv.ParseUint(s[2:], 16, 64)
	default:
		v, err = strconv.ParseUint(s, 10, 64)
	}
	return v, err == nil
}

// Eval reports whether the condition holds for cpu. Memory reads here do not
// count toward the CPU's statistics.
func (cond *Condition) Eval(cpu *CPU) bool {
	var actual uint64
	switch cond.Source {
	case CondSourceRegister:
		actual = uint64(cpu.regs.Get(cond.Reg))
	case CondSourceMemory:
		actual = uint64(cpu.mem.peek(cond.MemAddr))
	case CondSourcePC:
		actual = uint64(cpu.PC)
	case CondSourceRetired:
		actual = cpu.stats.Retired
	}
	return compareValues(actual, cond.Op, cond.Value)
}

func compareValues(actual uint64, op CondOp, expected uint64) bool {
	switch op {
	case CondOpEqual:
		return actual == expected
	case CondOpNotEqual:
		return actual != expected
	case CondOpLess:
		return actual < expected
	case CondOpGreater:
		return actual > expected
	case CondOpLessEqual:
		return actual <= expected
	case CondOpGreaterEqual:
		return actual >= expected
	}
	return false
}

// String returns the condition in a form ParseCondition accepts.
func (cond *Condition) String() string {
	var lhs string
	switch cond.Source {
	case CondSourceRegister:
		lhs = RegName(cond.Reg)
	case CondSourceMemory:
		lhs = fmt.Sprintf("[$%X]", cond.MemAddr)
	case CondSourcePC:
		lhs = "pc"
	case CondSourceRetired:
		lhs = "retired"
	}
	return fmt.Sprintf("%s%s$%X", lhs, condOpStrings[cond.Op], cond.Value)
}
