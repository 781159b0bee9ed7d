package hwdefs

// Physical memory layout (28-bit address space).
const (
	MainRAMSize = 0x40000 // 256K chip RAM

	ColourMirrorBase = 0x001F800 // first 2K of colour RAM, mirrored into chip RAM
	ColourMirrorSize = 0x800

	ROMBase = 0x0020000
	ROMSize = 0x20000

	AtticRAMBase = 0x8000000
	AtticRAMSize = 0x800000

	CharWOMBase = 0xFF7E000 // character generator, write-only from the CPU side
	CharWOMSize = 0x2000

	ColourRAMBase = 0xFF80000
	ColourRAMSize = 0x8000

	IOBase = 0xFFD0000 // four 4K I/O personalities
	IOSize = 0x4000

	I2CBase = 0xFFD7000
	I2CSize = 0x1000

	HypervisorRAMBase = 0xFFF8000
	HypervisorRAMSize = 0x4000

	// PhysicalLimit is the first address outside of the decoded space.
	PhysicalLimit = 0x10000000

	FloatingBus = 0xFF
)

// CPU-visible layout.
const (
	CPUPortDDR  = 0x0000
	CPUPortData = 0x0001

	PageSize  = 0x100
	SlotSize  = 0x1000 // banking granularity
	NumSlots  = 16
	NumPages  = 256
	IOWindow  = 0xD000 // slot 13
	IOWinSize = 0x1000
)

const (
	SoftReset = true
	HardReset = false
)
