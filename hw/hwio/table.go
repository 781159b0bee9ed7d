package hwio

import (
	"fmt"

	"m65/emu/log"
)

// log unmapped accesses (verbose: lots of software probes empty I/O space)
const logUnmapped = false

type BankIO8 interface {
	// Read8 reads a byte from the given address. If peek is true, the read
	// shouldn't have any side effects (debugging/tracing).
	Read8(addr uint16, peek bool) uint8
	Write8(addr uint16, val uint8)
}

// Table dispatches 16-bit addresses to the devices mapped on a bus. Later
// mappings replace earlier ones on the addresses they cover.
type Table struct {
	Name string

	// Unmapped, if set, serves addresses where nothing is mapped.
	Unmapped BankIO8

	pages [256]*[256]BankIO8
}

func NewTable(name string) *Table {
	t := new(Table)
	t.Name = name
	t.Reset()
	return t
}

func (t *Table) Reset() {
	t.pages = [256]*[256]BankIO8{}
}

// MapBank maps a register bank, that is, a structure containing multiple
// Reg8/Mem/Device fields described by "hwio" struct tags (see InitRegs).
// Only the registers of bank number bankNum are mapped, at addr+offset.
func (t *Table) MapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.MapMem(addr+reg.offset, r)
		case *Reg8:
			t.MapReg8(addr+reg.offset, r)
		case *Device:
			t.MapDevice(addr+reg.offset, r)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) UnmapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.Unmap(addr+reg.offset, addr+reg.offset+uint16(r.VSize-1))
		case *Reg8:
			t.Unmap(addr+reg.offset, addr+reg.offset)
		case *Device:
			t.Unmap(addr+reg.offset, addr+reg.offset+uint16(r.Size-1))
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

// MapBankIO8 maps io over size bytes starting at addr.
func (t *Table) MapBankIO8(addr uint16, size int, io BankIO8) {
	if size <= 0 || int(addr)+size > 0x10000 {
		panic(fmt.Errorf("invalid mapping %04X+%X on %s", addr, size, t.Name))
	}
	for i := range size {
		t.set(addr+uint16(i), io)
	}
}

func (t *Table) MapReg8(addr uint16, io *Reg8) {
	t.MapBankIO8(addr, 1, io)
}

func (t *Table) MapDevice(addr uint16, io *Device) {
	t.MapBankIO8(addr, io.Size, io)
}

func (t *Table) MapMem(addr uint16, mem *Mem) {
	log.ModHwIo.DebugZ("mapping mem").
		Hex16("addr", addr).
		Hex16("size", uint16(mem.VSize)).
		String("area", mem.Name).
		String("bus", t.Name).
		End()

	t.MapBankIO8(addr, mem.VSize, mem.BankIO8())
}

func (t *Table) Unmap(begin, end uint16) {
	for addr := uint32(begin); addr <= uint32(end); addr++ {
		t.set(uint16(addr), nil)
	}
}

func (t *Table) set(addr uint16, io BankIO8) {
	pg := t.pages[addr>>8]
	if pg == nil {
		if io == nil {
			return
		}
		pg = new([256]BankIO8)
		t.pages[addr>>8] = pg
	}
	pg[addr&0xFF] = io
}

func (t *Table) Search(addr uint16) BankIO8 {
	if pg := t.pages[addr>>8]; pg != nil {
		return pg[addr&0xFF]
	}
	return nil
}

// Read8 forwards the read to the device mapped at addr.
func (t *Table) Read8(addr uint16, peek bool) uint8 {
	io := t.Search(addr)
	if io == nil {
		if logUnmapped && !peek {
			log.ModHwIo.ErrorZ("unmapped Read8").
				String("name", t.Name).
				Hex16("addr", addr).
				End()
		}
		if t.Unmapped != nil {
			return t.Unmapped.Read8(addr, peek)
		}
		return 0
	}
	return io.Read8(addr, peek)
}

func (t *Table) Write8(addr uint16, val uint8) {
	io := t.Search(addr)
	if io == nil {
		if logUnmapped {
			log.ModHwIo.ErrorZ("unmapped Write8").
				String("name", t.Name).
				Hex16("addr", addr).
				Hex8("val", val).
				End()
		}
		if t.Unmapped != nil {
			t.Unmapped.Write8(addr, val)
		}
		return
	}
	io.Write8(addr, val)
}
