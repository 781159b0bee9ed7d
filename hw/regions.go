package hw

import (
	"math"

	"m65/emu/log"
	"m65/hw/hwdefs"
	"m65/hw/hwio"
)

// regionList returns the physical memory map, in ascending address order.
func (m *Memory) regionList() []hwio.Region {
	storage := func(name string, begin uint32, buf []byte) hwio.Region {
		return hwio.Region{
			Name:  name,
			Begin: begin,
			End:   begin + uint32(len(buf)) - 1,
			Read:  buf,
			Write: buf,
		}
	}
	unmapped := func(begin, end uint32) hwio.Region {
		return hwio.Region{
			Name:    "unmapped",
			Begin:   begin,
			End:     end,
			ReadFn:  m.readUnmapped,
			WriteFn: m.writeUnmapped,
		}
	}
	const (
		mirrorEnd = hwdefs.ColourMirrorBase + hwdefs.ColourMirrorSize
		ram2Base  = hwdefs.ROMBase + hwdefs.ROMSize
		colourHi  = hwdefs.ColourRAMBase + hwdefs.ColourMirrorSize
	)

	// Writes to the 2K shared by main and colour RAM go through the
	// mirroring writers.
	ramColour := storage("ram/colour", hwdefs.ColourMirrorBase, m.ram[hwdefs.ColourMirrorBase:mirrorEnd])
	ramColour.Write, ramColour.WriteFn = nil, m.writeColourMirror
	colourRAM := storage("colour/ram", hwdefs.ColourRAMBase, m.colour[:hwdefs.ColourMirrorSize])
	colourRAM.Write, colourRAM.WriteFn = nil, m.writeColourRAM

	rom := storage("rom", hwdefs.ROMBase, m.rom)
	rom.Flags = hwio.RegionROM
	rom.WriteFn = m.writeProtectedROM

	charWOM := storage("charwom", hwdefs.CharWOMBase, m.charWOM)
	charWOM.Read, charWOM.ReadFn = nil, m.readUnmapped

	hyper := storage("hypervisor", hwdefs.HypervisorRAMBase, m.hyperRAM)
	hyper.Flags = hwio.RegionHypervisor
	hyper.ReadFn = m.readHyperGuarded
	hyper.WriteFn = m.writeHyperGuarded

	return []hwio.Region{
		storage("ram", 0, m.ram[:hwdefs.ColourMirrorBase]),
		ramColour,
		rom,
		storage("ram2", ram2Base, m.ram[mirrorEnd:]),
		unmapped(ram2Base+hwdefs.MainRAMSize-mirrorEnd, hwdefs.AtticRAMBase-1),
		storage("attic", hwdefs.AtticRAMBase, m.attic),
		unmapped(hwdefs.AtticRAMBase+hwdefs.AtticRAMSize, hwdefs.CharWOMBase-1),
		charWOM,
		colourRAM,
		storage("colour", colourHi, m.colour[hwdefs.ColourMirrorSize:]),
		unmapped(hwdefs.ColourRAMBase+hwdefs.ColourRAMSize, hwdefs.IOBase-1),
		{
			Name:    "io",
			Begin:   hwdefs.IOBase,
			End:     hwdefs.IOBase + hwdefs.IOSize - 1,
			ReadFn:  m.readIO,
			WriteFn: m.writeIO,
		},
		unmapped(hwdefs.IOBase+hwdefs.IOSize, hwdefs.I2CBase-1),
		storage("i2c", hwdefs.I2CBase, m.i2c),
		unmapped(hwdefs.I2CBase+hwdefs.I2CSize, hwdefs.HypervisorRAMBase-1),
		hyper,
		unmapped(hwdefs.HypervisorRAMBase+hwdefs.HypervisorRAMSize, hwdefs.PhysicalLimit-1),
		{
			Name:    "catch-all",
			Begin:   hwdefs.PhysicalLimit,
			End:     math.MaxUint32,
			Flags:   hwio.RegionFatal,
			ReadFn:  m.readFatal,
			WriteFn: m.writeFatal,
		},
	}
}

// resolve returns the region serving phys, with the write-protect and
// hypervisor visibility rules applied, along with its index in the table.
func (m *Memory) resolve(phys uint32) (int, *hwio.Region) {
	i, r := m.regions.Lookup(phys)
	switch {
	case i == m.romIdx && m.romWP:
		return i, &m.romProtected
	case i == m.hyperIdx && !m.hyper:
		return i, &m.hyperGuarded
	}
	return i, r
}

func (m *Memory) readUnmapped(addr uint32, peek bool) uint8 {
	if !peek {
		log.ModMem.DebugZ("unmapped read").Hex32("addr", addr).End()
	}
	return hwdefs.FloatingBus
}

func (m *Memory) writeUnmapped(addr uint32, val uint8) {
	log.ModMem.DebugZ("unmapped write").Hex32("addr", addr).Hex8("val", val).End()
}

func (m *Memory) writeProtectedROM(addr uint32, val uint8) {
	log.ModMem.DebugZ("write to protected rom ignored").
		Hex32("addr", addr).
		Hex8("val", val).
		End()
}

func (m *Memory) readHyperGuarded(addr uint32, peek bool) uint8 {
	if !peek {
		log.ModMem.WarnZ("hypervisor ram read outside hypervisor mode").Hex32("addr", addr).End()
	}
	return hwdefs.FloatingBus
}

func (m *Memory) writeHyperGuarded(addr uint32, val uint8) {
	log.ModMem.WarnZ("hypervisor ram write outside hypervisor mode").
		Hex32("addr", addr).
		Hex8("val", val).
		End()
}

// Main RAM 0x1F800-0x1FFFF and colour RAM 0x000-0x7FF are the same 2K seen
// from two places; a write on either side updates both.

func (m *Memory) writeColourMirror(addr uint32, val uint8) {
	off := addr - hwdefs.ColourMirrorBase
	m.ram[addr] = val
	m.colour[off] = val
}

func (m *Memory) writeColourRAM(addr uint32, val uint8) {
	off := addr - hwdefs.ColourRAMBase
	m.colour[off] = val
	if off < hwdefs.ColourMirrorSize {
		m.ram[hwdefs.ColourMirrorBase+off] = val
	}
}

func (m *Memory) readFatal(addr uint32, peek bool) uint8 {
	if !peek {
		m.fault("read", addr)
	}
	return hwdefs.FloatingBus
}

func (m *Memory) writeFatal(addr uint32, _ uint8) {
	m.fault("write", addr)
}
