package hw

import (
	"fmt"

	"m65/emu/log"
	"m65/hw/hwdefs"
	"m65/hw/hwio"
)

type MemoryConfig struct {
	ROMWriteProtect bool `toml:"rom_write_protect"`
	Hypervisor      bool `toml:"hypervisor"` // start in hypervisor mode
	Paranoid        bool `toml:"paranoid"`   // extra consistency checks on the access path
}

// ProgramCounter gives the memory controller access to the CPU program
// counter, for diagnostics.
type ProgramCounter interface {
	PC() uint16
}

// Memory is the memory controller: it owns every physical storage array,
// the banking state and the page cache translating CPU addresses.
type Memory struct {
	cfg MemoryConfig

	// Peripherals reached through the I/O window. A nil device reads as
	// floating bus.
	VIC  hwio.BankIO8
	CIA1 hwio.BankIO8
	CIA2 hwio.BankIO8

	CPU ProgramCounter

	// OnFault, when set, receives fatal faults instead of terminating the
	// process.
	OnFault func(*FaultError)

	// I/O window, offsets 0x000-0xFFF.
	IO *hwio.Table

	// OnTrap, when set, receives the trap number (0x00-0x3F) written to
	// $D640-$D67F outside hypervisor mode. The CPU is expected to save its
	// state and call SetHypervisor(true).
	OnTrap func(trap uint8)

	BankReg hwio.Reg8 `hwio:"offset=0x030,wcb"`
	Colour  hwio.Mem  `hwio:"wcb"` // mapped by mapIO

	// $D640-$D67F: hypervisor registers (bank 1) in hypervisor mode, trap
	// triggers (bank 2) otherwise.
	HVFlags hwio.Reg8   `hwio:"bank=1,offset=0x03D,wcb"`
	HVExit  hwio.Reg8   `hwio:"bank=1,offset=0x03F,writeonly,wcb"`
	HVTrap  hwio.Device `hwio:"bank=2,offset=0x000,size=0x40,rcb,pcb,wcb"`

	// physical storage
	ram      []byte
	rom      []byte
	colour   []byte
	charWOM  []byte
	hyperRAM []byte
	i2c      []byte
	attic    []byte

	regions      *hwio.Regions
	romIdx       int
	hyperIdx     int
	romProtected hwio.Region // rom region with write-protect applied
	hyperGuarded hwio.Region // hypervisor region seen from user mode

	// banking state
	port       [2]uint8
	bankCfg    uint8
	mapOffLo   uint32
	mapOffHi   uint32
	mapMask    uint8
	mapMBLo    uint32
	mapMBHi    uint32
	hyper      bool
	romWP      bool
	irqInhibit bool

	policies [hwdefs.NumSlots]Policy
	cache    [numCacheSlots]pageEntry
}

// NewMemory allocates all physical storage, builds and checks the physical
// region table and leaves the controller in its hard reset state.
func NewMemory(cfg MemoryConfig) (*Memory, error) {
	m := &Memory{
		cfg:      cfg,
		IO:       hwio.NewTable("io"),
		ram:      make([]byte, hwdefs.MainRAMSize),
		rom:      make([]byte, hwdefs.ROMSize),
		colour:   make([]byte, hwdefs.ColourRAMSize),
		charWOM:  make([]byte, hwdefs.CharWOMSize),
		hyperRAM: make([]byte, hwdefs.HypervisorRAMSize),
		i2c:      make([]byte, hwdefs.I2CSize),
		attic:    make([]byte, hwdefs.AtticRAMSize),
	}

	regions, err := hwio.NewRegions(m.regionList())
	if err != nil {
		return nil, fmt.Errorf("physical region table: %w", err)
	}
	m.regions = regions
	m.romIdx, m.hyperIdx = -1, -1
	for i := range regions.Len() {
		r := regions.At(i)
		switch {
		case r.Flags&hwio.RegionROM != 0:
			m.romIdx = i
			m.romProtected = *r
			m.romProtected.Write = nil
		case r.Flags&hwio.RegionHypervisor != 0:
			m.hyperIdx = i
			m.hyperGuarded = *r
			m.hyperGuarded.Read, m.hyperGuarded.Write = nil, nil
		}
	}
	if m.romIdx < 0 || m.hyperIdx < 0 {
		return nil, fmt.Errorf("physical region table: missing rom or hypervisor region")
	}

	m.Colour.Data = m.colour[:0x400]
	if err := hwio.InitRegs(m); err != nil {
		return nil, err
	}
	m.Reset(hwdefs.HardReset)
	return m, nil
}

// InitBus maps the I/O window. It must be called again after the
// peripheral fields (VIC, CIA1, CIA2) change.
func (m *Memory) InitBus() {
	m.mapIO()
}

// Reset brings the banking state back to its power-on value. On hard reset,
// RAM contents are cleared too. ROM, character WOM and attic RAM are never
// touched.
func (m *Memory) Reset(soft bool) {
	if !soft {
		clear(m.ram)
		clear(m.colour)
		clear(m.hyperRAM)
		clear(m.i2c)
	}

	m.port = [2]uint8{0xFF, 0xFF}
	m.BankReg.Value = 0
	m.mapOffLo, m.mapOffHi = 0, 0
	m.mapMBLo, m.mapMBHi = 0, 0
	m.mapMask = 0
	m.irqInhibit = false
	m.hyper = m.cfg.Hypervisor
	m.romWP = m.cfg.ROMWriteProtect
	m.HVFlags.Value = 0
	if m.romWP {
		m.HVFlags.Value |= hvROMWriteProtect
	}

	m.mapIO()
	m.bankCfg = deriveBankCfg(m.port, m.BankReg.Value, m.hyper)
	m.policies = derivePolicies(m.bankCfg, m.mapState())
	m.Flush()

	log.ModMem.DebugZ("reset").
		Bool("soft", soft).
		Bool("hyper", m.hyper).
		Bool("romwp", m.romWP).
		End()
}

// Storage accessors, for loaders and tests.

func (m *Memory) RAM() []byte           { return m.ram }
func (m *Memory) ROM() []byte           { return m.rom }
func (m *Memory) ColourRAM() []byte     { return m.colour }
func (m *Memory) CharWOM() []byte       { return m.charWOM }
func (m *Memory) HypervisorRAM() []byte { return m.hyperRAM }
func (m *Memory) I2C() []byte           { return m.i2c }
func (m *Memory) AtticRAM() []byte      { return m.attic }

// Regions returns the physical region table.
func (m *Memory) Regions() *hwio.Regions { return m.regions }

// IRQInhibited reports whether interrupts are held off by a MAP not yet
// followed by EOM.
func (m *Memory) IRQInhibited() bool { return m.irqInhibit }

func (m *Memory) pc() uint16 {
	if m.CPU == nil {
		return 0
	}
	return m.CPU.PC()
}

// AddLogContext adds the current CPU program counter to log entries.
func (m *Memory) AddLogContext(z *log.EntryZ) {
	if m.CPU != nil {
		z.Hex16("pc", m.CPU.PC())
	}
}
