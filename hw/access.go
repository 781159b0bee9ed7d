package hw

import "m65/hw/hwdefs"

// Read8 reads the byte at CPU address addr.
func (m *Memory) Read8(addr uint16) uint8 {
	return m.read8(addr, false)
}

// Peek8 is like Read8 but without side effects on I/O devices, for debuggers
// and tracers.
func (m *Memory) Peek8(addr uint16) uint8 {
	return m.read8(addr, true)
}

func (m *Memory) read8(addr uint16, peek bool) uint8 {
	if addr <= hwdefs.CPUPortData {
		return m.port[addr]
	}

	pg := int(addr >> 8)
	e := &m.cache[pg]
	if e.rdTag == invalidTag {
		m.resolvePage(pg)
	}
	if m.cfg.Paranoid {
		m.checkEntry(pg, e)
	}
	if e.rd != nil {
		return e.rd[addr&0xFF]
	}
	return e.rdRegion.ReadFn(e.rdTag|uint32(addr&0xFF), peek)
}

// Write8 writes val at CPU address addr.
func (m *Memory) Write8(addr uint16, val uint8) {
	if addr <= hwdefs.CPUPortData {
		m.WriteCPUPort(int(addr), val)
		return
	}

	e := m.writeEntry(addr)
	if e.wr != nil {
		e.wr[addr&0xFF] = val
		return
	}
	e.wrRegion.WriteFn(e.wrTag|uint32(addr&0xFF), val)
}

// WriteRMW8 performs the write cycles of a read-modify-write instruction:
// the unmodified value is written back first, then the new one. Only devices
// see both writes.
func (m *Memory) WriteRMW8(addr uint16, old, val uint8) {
	if addr <= hwdefs.CPUPortData {
		m.WriteCPUPort(int(addr), old)
		m.WriteCPUPort(int(addr), val)
		return
	}

	e := m.writeEntry(addr)
	if e.wr != nil {
		e.wr[addr&0xFF] = val
		return
	}
	phys := e.wrTag | uint32(addr&0xFF)
	e.wrRegion.WriteFn(phys, old)
	e.wrRegion.WriteFn(phys, val)
}

func (m *Memory) writeEntry(addr uint16) *pageEntry {
	pg := int(addr >> 8)
	e := &m.cache[pg]
	if e.wrTag == invalidTag {
		m.resolvePage(pg)
	}
	if m.cfg.Paranoid {
		m.checkEntry(pg, e)
	}
	return e
}

// ReadLinear reads the byte at physical address phys, bypassing banking.
func (m *Memory) ReadLinear(phys uint32) uint8 {
	return m.readLinear(phys, false)
}

// PeekLinear is the side effect free version of ReadLinear.
func (m *Memory) PeekLinear(phys uint32) uint8 {
	return m.readLinear(phys, true)
}

func (m *Memory) readLinear(phys uint32, peek bool) uint8 {
	e := &m.cache[slotLinearRead]
	if e.rdTag != phys&^0xFF {
		m.resolveLinear(slotLinearRead, phys)
	}
	if e.rd != nil {
		return e.rd[phys&0xFF]
	}
	return e.rdRegion.ReadFn(phys, peek)
}

// WriteLinear writes val at physical address phys, bypassing banking.
func (m *Memory) WriteLinear(phys uint32, val uint8) {
	e := &m.cache[slotLinearWrite]
	if e.wrTag != phys&^0xFF {
		m.resolveLinear(slotLinearWrite, phys)
	}
	if e.wr != nil {
		e.wr[phys&0xFF] = val
		return
	}
	e.wrRegion.WriteFn(phys, val)
}
