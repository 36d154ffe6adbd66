// memory_bus.go - Sparse byte-addressable memory for the RV32IM simulator

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
memory_bus.go - Memory Bus for the RV32IM simulator

The memory covers the whole 32-bit address space without pre-sizing. Storage is
split into 4KB pages that are allocated on first write, so a program touching a
handful of addresses costs a handful of pages. Reading an address that was never
written yields zero and never allocates.

Multi-byte accessors are little-endian. Accesses need not be aligned and may
straddle a page boundary; such accesses behave exactly like consecutive byte
accesses. Addresses wrap modulo 2^32.

Every accessor reports a nominal access latency. The engine sums it into its
statistics and nothing else consumes it.

A Memory belongs to exactly one CPU and is not safe for concurrent use.
*/

package rv32

import (
	"encoding/binary"
	"sort"
)

const (
	PAGE_SHIFT = 12
	PAGE_SIZE  = 1 << PAGE_SHIFT
	PAGE_MASK  = PAGE_SIZE - 1

	// ACCESS_LATENCY is the nominal cost of one memory access.
	ACCESS_LATENCY Cycles = 10
)

// Cycles is a nominal latency count.
type Cycles uint64

type page [PAGE_SIZE]byte

// Memory is sparse paged storage for a 32-bit address space.
type Memory struct {
	pages map[uint32]*page

	// single-entry lookup cache; instruction fetch hits the same page
	// for long runs
	lastIdx  uint32
	lastPage *page
}

// NewMemory returns an empty memory. Every address reads as zero.
func NewMemory() *Memory {
	return &Memory{pages: make(map[uint32]*page)}
}

// NewMemoryFromImage returns a memory pre-populated with the given bytes.
func NewMemoryFromImage(image map[uint32]byte) *Memory {
	m := NewMemory()
	m.LoadImage(image)
	return m
}

// LoadImage copies every byte of image into memory.
func (m *Memory) LoadImage(image map[uint32]byte) {
	for addr, b := range image {
		m.poke(addr, b)
	}
}

func (m *Memory) lookup(idx uint32) *page {
	if m.lastPage != nil && m.lastIdx == idx {
		return m.lastPage
	}
	p := m.pages[idx]
	if p != nil {
		m.lastIdx, m.lastPage = idx, p
	}
	return p
}

func (m *Memory) peek(addr uint32) byte {
	p := m.lookup(addr >> PAGE_SHIFT)
	if p == nil {
		return 0
	}
	return p[addr&PAGE_MASK]
}

func (m *Memory) poke(addr uint32, b byte) {
	idx := addr >> PAGE_SHIFT
	p := m.lookup(idx)
	if p == nil {
		if b == 0 {
			return // unallocated pages already read as zero
		}
		p = new(page)
		m.pages[idx] = p
		m.lastIdx, m.lastPage = idx, p
	}
	p[addr&PAGE_MASK] = b
}

// span returns the n bytes at addr as a slice into one page, or nil when the
// access crosses a page boundary or the page is absent.
func (m *Memory) span(addr uint32, n uint32) []byte {
	off := addr & PAGE_MASK
	if off+n > PAGE_SIZE {
		return nil
	}
	p := m.lookup(addr >> PAGE_SHIFT)
	if p == nil {
		return nil
	}
	return p[off : off+n]
}

// ------------------------------------------------------------------------------
// Reads
// ------------------------------------------------------------------------------

func (m *Memory) Read8(addr uint32) (uint8, Cycles) {
	return m.peek(addr), ACCESS_LATENCY
}

func (m *Memory) Read16(addr uint32) (uint16, Cycles) {
	if s := m.span(addr, 2); s != nil {
		return binary.LittleEndian.Uint16(s), ACCESS_LATENCY
	}
	v := uint16(m.peek(addr)) | uint16(m.peek(addr+1))<<8
	return v, ACCESS_LATENCY
}

func (m *Memory) Read32(addr uint32) (uint32, Cycles) {
	if s := m.span(addr, 4); s != nil {
		return binary.LittleEndian.Uint32(s), ACCESS_LATENCY
	}
	var v uint32
	for i := uint32(0); i < 4; i++ {
		v |= uint32(m.peek(addr+i)) << (8 * i)
	}
	return v, ACCESS_LATENCY
}

// ------------------------------------------------------------------------------
// Writes
// ------------------------------------------------------------------------------

func (m *Memory) Write8(addr uint32, value uint8) Cycles {
	m.poke(addr, value)
	return ACCESS_LATENCY
}

func (m *Memory) Write16(addr uint32, value uint16) Cycles {
	m.poke(addr, byte(value))
	m.poke(addr+1, byte(value>>8))
	return ACCESS_LATENCY
}

func (m *Memory) Write32(addr uint32, value uint32) Cycles {
	for i := uint32(0); i < 4; i++ {
		m.poke(addr+i, byte(value>>(8*i)))
	}
	return ACCESS_LATENCY
}

// ------------------------------------------------------------------------------
// Inspection
// ------------------------------------------------------------------------------

// ReadBytes copies n bytes starting at addr. Used by debugging tools.
func (m *Memory) ReadBytes(addr uint32, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = m.peek(addr + uint32(i))
	}
	return out
}

// Pages returns the number of allocated pages.
func (m *Memory) Pages() int {
	return len(m.pages)
}

// NonZero returns a copy of every non-zero byte, keyed by address.
func (m *Memory) NonZero() map[uint32]byte {
	out := make(map[uint32]byte)
	for idx, p := range m.pages {
		base := idx << PAGE_SHIFT
		for off, b := range p {
			if b != 0 {
				out[base+uint32(off)] = b
			}
		}
	}
	return out
}

// PageAddresses returns the base address of every allocated page in order.
func (m *Memory) PageAddresses() []uint32 {
	out := make([]uint32, 0, len(m.pages))
	for idx := range m.pages {
		out = append(out, idx<<PAGE_SHIFT)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Reset drops every page.
func (m *Memory) Reset() {
	m.pages = make(map[uint32]*page)
	m.lastPage = nil
	m.lastIdx = 0
}
