package hw

import (
	"fmt"

	"m65/emu/log"
	"m65/hw/hwdefs"
)

// Policy describes how a 4K slot of the CPU address space is decoded. Values
// below 0x10000000 are literal MAP translations (megabyte|offset), the others
// defer to the banking bits.
type Policy uint32

const (
	PolicyRAM Policy = 0xF0000000 + iota
	PolicyROM
	PolicyIO

	policyNone Policy = 0xFFFFFFFF // linear and stale slots
)

func (p Policy) String() string {
	switch p {
	case PolicyRAM:
		return "ram"
	case PolicyROM:
		return "rom"
	case PolicyIO:
		return "io"
	case policyNone:
		return "none"
	}
	return fmt.Sprintf("map:%07X", uint32(p))
}

// phys returns the physical addresses CPU address addr is read from and
// written to under policy p.
func (p Policy) phys(addr uint16) (rd, wr uint32) {
	switch p {
	case PolicyRAM:
		return uint32(addr), uint32(addr)
	case PolicyROM:
		return romPhys(addr), uint32(addr)
	case PolicyIO:
		io := hwdefs.IOBase + uint32(addr&0xFFF)
		return io, io
	}
	phys := uint32(p)&^0xFFFFF | (uint32(p)+uint32(addr))&0xFFFFF
	return phys, phys
}

// romPhys returns where the ROM visible at CPU address addr lives: $8000-$9FFF
// shows the top of the ROM image, everything above shows the lower half at
// the same offset.
func romPhys(addr uint16) uint32 {
	if addr < 0xA000 {
		return hwdefs.ROMBase + 0x10000 + uint32(addr)
	}
	return hwdefs.ROMBase + uint32(addr)
}

// Bank configuration bits, derived from the CPU port and $D030.
const (
	bankROM8 = 1 << iota // $8000-$9FFF
	bankROMA             // $A000-$BFFF
	bankROMC             // $C000-$CFFF
	bankCHAR             // $D000-$DFFF, character ROM
	bankIO               // $D000-$DFFF, I/O
	bankROME             // $E000-$FFFF
)

// C64 PLA, indexed by the three low CPU port bits (LORAM, HIRAM, CHAREN).
var plaModes = [8]uint8{
	0: 0,
	1: bankCHAR,
	2: bankCHAR | bankROME,
	3: bankROMA | bankCHAR | bankROME,
	4: 0,
	5: bankIO,
	6: bankIO | bankROME,
	7: bankROMA | bankIO | bankROME,
}

// deriveBankCfg computes the bank configuration from the CPU port and the
// $D030 banking register. Pins configured as inputs read as 1. The $D030 ROM
// bits are ignored in hypervisor mode.
func deriveBankCfg(port [2]uint8, bankReg uint8, hyper bool) uint8 {
	cfg := plaModes[(port[1]|^port[0])&7]
	if !hyper {
		// $D030 bits 3-6 are ROM8, ROMA, ROMC and CROM, bit 7 is ROME. CROM
		// selects the $D000 char ROM slot, still shadowed by I/O when visible.
		cfg |= bankReg>>3&0x0F | bankReg>>2&bankROME
	}
	return cfg
}

type mapState struct {
	offLo, offHi uint32
	mbLo, mbHi   uint32
	mask         uint8
}

func (m *Memory) mapState() mapState {
	return mapState{
		offLo: m.mapOffLo,
		offHi: m.mapOffHi,
		mbLo:  m.mapMBLo,
		mbHi:  m.mapMBHi,
		mask:  m.mapMask,
	}
}

// derivePolicies computes the policy of each 4K slot. A MAP'ed 8K block
// always uses its MAP translation, other slots follow the bank configuration.
func derivePolicies(cfg uint8, ms mapState) [hwdefs.NumSlots]Policy {
	var pol [hwdefs.NumSlots]Policy
	for slot := range pol {
		if ms.mask&(1<<(slot>>1)) != 0 {
			if slot < 8 {
				pol[slot] = Policy(ms.mbLo | ms.offLo)
			} else {
				pol[slot] = Policy(ms.mbHi | ms.offHi)
			}
			continue
		}

		var rom bool
		switch slot {
		case 8, 9:
			rom = cfg&bankROM8 != 0
		case 10, 11:
			rom = cfg&bankROMA != 0
		case 12:
			rom = cfg&bankROMC != 0
		case 13:
			if cfg&bankIO != 0 {
				pol[slot] = PolicyIO
				continue
			}
			rom = cfg&bankCHAR != 0
		case 14, 15:
			rom = cfg&bankROME != 0
		}
		if rom {
			pol[slot] = PolicyROM
		} else {
			pol[slot] = PolicyRAM
		}
	}
	return pol
}

// applyBanking recomputes the bank configuration and the slot policies, and
// re-decodes the pages of the slots whose policy changed.
func (m *Memory) applyBanking() {
	m.bankCfg = deriveBankCfg(m.port, m.BankReg.Value, m.hyper)
	pol := derivePolicies(m.bankCfg, m.mapState())

	var changed uint16
	for slot, p := range pol {
		if p == m.policies[slot] {
			continue
		}
		m.policies[slot] = p
		m.invalidate(slot*16, 16)
		changed |= 1 << slot
	}
	if changed != 0 {
		log.ModBank.DebugZ("policies changed").
			Hex8("cfg", m.bankCfg).
			Hex16("slots", changed).
			End()
	}
}

// WriteCPUPort writes the CPU port DDR (reg 0) or data (reg 1) register.
func (m *Memory) WriteCPUPort(reg int, val uint8) {
	m.port[reg&1] = val
	if deriveBankCfg(m.port, m.BankReg.Value, m.hyper) == m.bankCfg {
		return
	}
	m.applyBanking()
}

// WriteBankReg writes the $D030 banking register.
func (m *Memory) WriteBankReg(val uint8) {
	m.BankReg.Write8(0x030, val)
}

// MAP is called by the CPU on the MAP instruction. Interrupts are inhibited
// until the next EOM.
//
// An X (resp. Z) of 0x0F doesn't touch the low (resp. high) offset and mask
// but selects the megabyte of the low (resp. high) translation from A (resp.
// Y).
//
// TODO: check the megabyte select against the 45GS02 reference once the
// MAP description there covers it.
func (m *Memory) MAP(a, x, y, z uint8) {
	m.irqInhibit = true

	if x == 0x0F {
		m.mapMBLo = uint32(a) << 20
	} else {
		m.mapOffLo = uint32(x&0x0F)<<16 | uint32(a)<<8
		m.mapMask = m.mapMask&0xF0 | x>>4
	}
	if z == 0x0F {
		m.mapMBHi = uint32(y) << 20
	} else {
		m.mapOffHi = uint32(z&0x0F)<<16 | uint32(y)<<8
		m.mapMask = m.mapMask&0x0F | z&0xF0
	}

	log.ModBank.DebugZ("MAP").
		Hex32("lo", m.mapMBLo|m.mapOffLo).
		Hex32("hi", m.mapMBHi|m.mapOffHi).
		Hex8("mask", m.mapMask).
		End()
	m.applyBanking()
}

// EOM is called by the CPU on the EOM instruction.
func (m *Memory) EOM() {
	m.irqInhibit = false
}

// SetHypervisor enters or leaves hypervisor mode.
func (m *Memory) SetHypervisor(on bool) {
	if m.hyper == on {
		return
	}
	m.hyper = on
	log.ModBank.InfoZ("hypervisor mode").Bool("on", on).End()

	m.mapHypervisorRegs()
	m.applyBanking()
	m.invalidateRegion(m.hyperIdx)
}

// SetROMWriteProtect enables or disables ROM write protection.
func (m *Memory) SetROMWriteProtect(on bool) {
	if m.romWP == on {
		return
	}
	m.romWP = on
	if on {
		m.HVFlags.Value |= hvROMWriteProtect
	} else {
		m.HVFlags.Value &^= hvROMWriteProtect
	}

	m.invalidateByPolicy(PolicyROM)
	m.invalidateRegion(m.romIdx)
}

// BankState is a snapshot of the banking registers.
type BankState struct {
	Port            [2]uint8
	BankReg         uint8
	BankCfg         uint8 // derived
	MapOffsetLow    uint32
	MapOffsetHigh   uint32
	MapMask         uint8
	MapMegabyteLow  uint32
	MapMegabyteHigh uint32
	Hypervisor      bool
	ROMWriteProtect bool
	IRQInhibit      bool
}

func (m *Memory) Bank() BankState {
	return BankState{
		Port:            m.port,
		BankReg:         m.BankReg.Value,
		BankCfg:         m.bankCfg,
		MapOffsetLow:    m.mapOffLo,
		MapOffsetHigh:   m.mapOffHi,
		MapMask:         m.mapMask,
		MapMegabyteLow:  m.mapMBLo,
		MapMegabyteHigh: m.mapMBHi,
		Hypervisor:      m.hyper,
		ROMWriteProtect: m.romWP,
		IRQInhibit:      m.irqInhibit,
	}
}

// SetBank restores the banking registers from bs. BankCfg is recomputed, not
// copied.
func (m *Memory) SetBank(bs BankState) {
	m.port = bs.Port
	m.BankReg.Value = bs.BankReg
	m.mapOffLo, m.mapOffHi = bs.MapOffsetLow&0xFFF00, bs.MapOffsetHigh&0xFFF00
	m.mapMBLo, m.mapMBHi = bs.MapMegabyteLow&0xFF00000, bs.MapMegabyteHigh&0xFF00000
	m.mapMask = bs.MapMask
	m.hyper = bs.Hypervisor
	m.romWP = bs.ROMWriteProtect
	m.irqInhibit = bs.IRQInhibit
	m.HVFlags.Value &^= hvROMWriteProtect
	if m.romWP {
		m.HVFlags.Value |= hvROMWriteProtect
	}

	m.mapIO()
	m.bankCfg = deriveBankCfg(m.port, m.BankReg.Value, m.hyper)
	m.policies = derivePolicies(m.bankCfg, m.mapState())
	m.Flush()
}

// Policies returns the current policy of each 4K slot.
func (m *Memory) Policies() [hwdefs.NumSlots]Policy { return m.policies }

// SlotMapping describes where a 4K slot of the CPU address space is decoded
// to.
type SlotMapping struct {
	Addr        uint16
	Policy      Policy
	ReadPhys    uint32
	WritePhys   uint32
	ReadRegion  string
	WriteRegion string
}

// Mapping returns the decoding of each 4K slot. It doesn't touch the page
// cache.
func (m *Memory) Mapping() []SlotMapping {
	sm := make([]SlotMapping, hwdefs.NumSlots)
	for slot, p := range m.policies {
		addr := uint16(slot * hwdefs.SlotSize)
		rd, wr := p.phys(addr)
		_, rdr := m.resolve(rd)
		_, wrr := m.resolve(wr)
		sm[slot] = SlotMapping{
			Addr:        addr,
			Policy:      p,
			ReadPhys:    rd,
			WritePhys:   wr,
			ReadRegion:  rdr.Name,
			WriteRegion: wrr.Name,
		}
	}
	return sm
}
