// inspect.go - Register and state introspection for tooling

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

import "strings"

// RegisterInfo describes one register for listings and scripts.
type RegisterInfo struct {
	Name  string
	ABI   string
	Index int
	Value uint32
}

// Registers lists x0..x31 followed by pc.
func (c *CPU) Registers() []RegisterInfo {
	regs := make([]RegisterInfo, 0, NUM_REGS+1)
	for i := 0; i < NUM_REGS; i++ {
		regs = append(regs, RegisterInfo{
			Name:  "x" + itoa2(i),
			ABI:   abiNames[i],
			Index: i,
			Value: c.regs.Get(uint8(i)),
		})
	}
	regs = append(regs, RegisterInfo{Name: "pc", ABI: "pc", Index: NUM_REGS, Value: c.PC})
	return regs
}

// GetRegister looks a register up by ABI name, xN or "pc".
func (c *CPU) GetRegister(name string) (uint32, bool) {
	if strings.EqualFold(strings.TrimSpace(name), "pc") {
		return c.PC, true
	}
	r, ok := ParseRegister(name)
	if !ok {
		return 0, false
	}
	return c.regs.Get(r), true
}

// SetRegister writes a register by name. Writes to x0 succeed and are
// dropped.
func (c *CPU) SetRegister(name string, value uint32) bool {
	if strings.EqualFold(strings.TrimSpace(name), "pc") {
		c.PC = value
		return true
	}
	r, ok := ParseRegister(name)
	if !ok {
		return false
	}
	c.regs.Set(r, value)
	return true
}

// ReadMemory returns n bytes at addr without touching the statistics.
func (c *CPU) ReadMemory(addr uint32, n int) []byte {
	return c.mem.ReadBytes(addr, n)
}

// State is a point-in-time snapshot for reporting.
type State struct {
	PC        uint32
	Halted    bool
	Stats     Stats
	Registers map[string]uint32
	Pages     []uint32
}

// State captures the architectural state keyed by ABI name.
func (c *CPU) State() State {
	regs := make(map[string]uint32, NUM_REGS)
	for i := 0; i < NUM_REGS; i++ {
		regs[abiNames[i]] = c.regs.Get(uint8(i))
	}
	return State{
		PC:        c.PC,
		Halted:    c.halted,
		Stats:     c.stats,
		Registers: regs,
		Pages:     c.mem.PageAddresses(),
	}
}

func itoa2(i int) string {
	return string([]byte{'0' + byte(i/10), '0' + byte(i%10)})
}
