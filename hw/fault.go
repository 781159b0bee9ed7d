package hw

import (
	"fmt"

	"m65/emu/log"
)

// FaultError describes an access the memory controller can't make sense of.
// It always denotes an emulator bug.
type FaultError struct {
	Op   string
	Addr uint32
	PC   uint16
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("memory fault: %s at %08X (pc=%04X)", e.Op, e.Addr, e.PC)
}

func (m *Memory) fault(op string, addr uint32) {
	err := &FaultError{Op: op, Addr: addr, PC: m.pc()}
	if m.OnFault != nil {
		m.OnFault(err)
		return
	}

	log.ModMem.FatalZ("memory fault").
		String("op", op).
		Hex32("addr", addr).
		Hex16("pc", err.PC).
		End()
}
