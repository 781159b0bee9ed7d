package hw

import (
	"m65/emu/log"
	"m65/hw/hwdefs"
)

const (
	bankRegCRAM2K     = 1 << 0 // $D030: colour RAM at $D800-$DFFF
	hvROMWriteProtect = 1 << 2 // $D67D

	hvRegsBase = 0x640
)

// mapIO (re)builds the I/O window. Later mappings win, so the banking
// registers go over the video chip, and the 2K colour RAM window goes over
// the CIAs.
func (m *Memory) mapIO() {
	m.IO.Reset()
	m.IO.Unmapped = floatingBus{}

	if m.VIC != nil {
		m.IO.MapBankIO8(0x000, 0x100, m.VIC)
	}
	m.IO.MapBank(0x000, m, 0)
	m.mapHypervisorRegs()

	if m.CIA1 != nil {
		m.IO.MapBankIO8(0xC00, 0x100, m.CIA1)
	}
	if m.CIA2 != nil {
		m.IO.MapBankIO8(0xD00, 0x100, m.CIA2)
	}

	size := 0x400
	if m.BankReg.Value&bankRegCRAM2K != 0 {
		size = 0x800
	}
	m.Colour.Data = m.colour[:size]
	m.Colour.VSize = size
	m.IO.MapMem(0x800, &m.Colour)
}

// mapHypervisorRegs maps the hypervisor registers or the trap block at
// $D640-$D67F, depending on the CPU mode.
func (m *Memory) mapHypervisorRegs() {
	if m.hyper {
		m.IO.UnmapBank(hvRegsBase, m, 2)
		m.IO.MapBank(hvRegsBase, m, 1)
		return
	}
	m.IO.UnmapBank(hvRegsBase, m, 1)
	m.IO.MapBank(hvRegsBase, m, 2)
}

func (m *Memory) readIO(addr uint32, peek bool) uint8 {
	return m.IO.Read8(uint16(addr&0xFFF), peek)
}

func (m *Memory) writeIO(addr uint32, val uint8) {
	m.IO.Write8(uint16(addr&0xFFF), val)
}

// WriteCOLOUR handles writes to the colour RAM window, which also land in
// main RAM for the first 2K.
func (m *Memory) WriteCOLOUR(addr uint16, val uint8) {
	off := uint32(addr) & uint32(len(m.Colour.Data)-1)
	m.writeColourRAM(hwdefs.ColourRAMBase+off, val)
}

func (m *Memory) WriteBANKREG(old, val uint8) {
	log.ModBank.DebugZ("write $D030").Hex8("old", old).Hex8("val", val).End()
	if (old^val)&bankRegCRAM2K != 0 {
		m.mapIO()
	}
	m.applyBanking()
}

func (m *Memory) WriteHVFLAGS(old, val uint8) {
	m.SetROMWriteProtect(val&hvROMWriteProtect != 0)
}

func (m *Memory) WriteHVEXIT(old, val uint8) {
	m.SetHypervisor(false)
}

func (m *Memory) ReadHVTRAP(addr uint16) uint8 { return hwdefs.FloatingBus }
func (m *Memory) PeekHVTRAP(addr uint16) uint8 { return hwdefs.FloatingBus }

func (m *Memory) WriteHVTRAP(addr uint16, val uint8) {
	trap := uint8(addr & 0x3F)
	log.ModBank.DebugZ("hypervisor trap").
		Hex8("trap", trap).
		Hex8("val", val).
		End()
	if m.OnTrap != nil {
		m.OnTrap(trap)
	}
}

type floatingBus struct{}

func (floatingBus) Read8(addr uint16, peek bool) uint8 { return hwdefs.FloatingBus }
func (floatingBus) Write8(addr uint16, val uint8)      {}
