// script_hooks.go - Lua per-step hooks

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
script_hooks.go - Lua Step Hooks

A script may define

  function on_step(pc, word, mnemonic) ... end

which is called after every retired instruction. Returning true stops the
run. A script error aborts the run with that error.

Read-only accessors available to the script:

  reg(n)         register by number (0-31) or name ("a0", "x10", "pc")
  mem(addr [,n]) little-endian value of n bytes (1, 2 or 4; default 1)
  retired()      instructions retired so far
*/

package main

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/intuitionamiga/rv32sim/rv32"
)

type luaHook struct {
	L      *lua.LState
	onStep lua.LValue
	cpu    *rv32.CPU
}

func loadLuaHook(path string) (*luaHook, error) {
	h := newLuaHook()
	if err := h.L.DoFile(path); err != nil {
		h.Close()
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	h.onStep = h.L.GetGlobal("on_step")
	return h, nil
}

func loadLuaHookString(src string) (*luaHook, error) {
	h := newLuaHook()
	if err := h.L.DoString(src); err != nil {
		h.Close()
		return nil, fmt.Errorf("script: %w", err)
	}
	h.onStep = h.L.GetGlobal("on_step")
	return h, nil
}

func newLuaHook() *luaHook {
	h := &luaHook{L: lua.NewState()}
	h.L.SetGlobal("reg", h.L.NewFunction(h.luaReg))
	h.L.SetGlobal("mem", h.L.NewFunction(h.luaMem))
	h.L.SetGlobal("retired", h.L.NewFunction(h.luaRetired))
	return h
}

func (h *luaHook) Close() {
	h.L.Close()
}

// OnStep implements rv32.StepHook.
func (h *luaHook) OnStep(cpu *rv32.CPU, info rv32.StepInfo) (bool, error) {
	h.cpu = cpu
	if h.onStep.Type() != lua.LTFunction {
		return false, nil
	}
	err := h.L.CallByParam(lua.P{Fn: h.onStep, NRet: 1, Protect: true},
		lua.LNumber(info.PC),
		lua.LNumber(info.Inst.Word),
		lua.LString(info.Inst.Mnemonic.String()),
	)
	if err != nil {
		return false, fmt.Errorf("on_step at PC=0x%08X: %w", info.PC, err)
	}
	ret := h.L.Get(-1)
	h.L.Pop(1)
	return lua.LVAsBool(ret), nil
}

func (h *luaHook) luaReg(L *lua.LState) int {
	if h.cpu == nil {
		L.RaiseError("reg: no cpu attached")
		return 0
	}
	switch v := L.CheckAny(1).(type) {
	case lua.LNumber:
		n := int(v)
		if n < 0 || n >= rv32.NUM_REGS {
			L.ArgError(1, "register number out of range")
			return 0
		}
		L.Push(lua.LNumber(h.cpu.Reg(uint8(n))))
	case lua.LString:
		val, ok := h.cpu.GetRegister(string(v))
		if !ok {
			L.ArgError(1, "unknown register "+string(v))
			return 0
		}
		L.Push(lua.LNumber(val))
	default:
		L.ArgError(1, "register number or name expected")
		return 0
	}
	return 1
}

func (h *luaHook) luaMem(L *lua.LState) int {
	if h.cpu == nil {
		L.RaiseError("mem: no cpu attached")
		return 0
	}
	addr := uint32(L.CheckInt64(1))
	n := L.OptInt(2, 1)
	if n != 1 && n != 2 && n != 4 {
		L.ArgError(2, "size must be 1, 2 or 4")
		return 0
	}
	var v uint32
	for i, b := range h.cpu.ReadMemory(addr, n) {
		v |= uint32(b) << (8 * i)
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (h *luaHook) luaRetired(L *lua.LState) int {
	if h.cpu == nil {
		L.Push(lua.LNumber(0))
		return 1
	}
	L.Push(lua.LNumber(h.cpu.Retired()))
	return 1
}
