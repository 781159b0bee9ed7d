package hw

import (
	"fmt"
	"slices"

	"m65/hw/snapshot"
)

const stateVersion = 1

// SaveState returns a copy of the memory controller state.
func (m *Memory) SaveState() *snapshot.Memory {
	bs := m.Bank()
	return &snapshot.Memory{
		Version: stateVersion,
		Bank: snapshot.Bank{
			Port:            bs.Port,
			BankReg:         bs.BankReg,
			MapOffsetLow:    bs.MapOffsetLow,
			MapOffsetHigh:   bs.MapOffsetHigh,
			MapMask:         bs.MapMask,
			MapMegabyteLow:  bs.MapMegabyteLow,
			MapMegabyteHigh: bs.MapMegabyteHigh,
			Hypervisor:      bs.Hypervisor,
			ROMWriteProtect: bs.ROMWriteProtect,
			IRQInhibit:      bs.IRQInhibit,
		},
		RAM:        slices.Clone(m.ram),
		Colour:     slices.Clone(m.colour),
		CharWOM:    slices.Clone(m.charWOM),
		Hypervisor: slices.Clone(m.hyperRAM),
		I2C:        slices.Clone(m.i2c),
	}
}

// LoadState restores a state saved by SaveState. The controller is left
// untouched if s is not valid.
func (m *Memory) LoadState(s *snapshot.Memory) error {
	if s.Version != stateVersion {
		return fmt.Errorf("unsupported memory state version %d", s.Version)
	}
	for _, a := range []struct {
		name      string
		got, want int
	}{
		{"ram", len(s.RAM), len(m.ram)},
		{"colour", len(s.Colour), len(m.colour)},
		{"charwom", len(s.CharWOM), len(m.charWOM)},
		{"hypervisor", len(s.Hypervisor), len(m.hyperRAM)},
		{"i2c", len(s.I2C), len(m.i2c)},
	} {
		if a.got != a.want {
			return fmt.Errorf("memory state: %s size is %d, want %d", a.name, a.got, a.want)
		}
	}

	copy(m.ram, s.RAM)
	copy(m.colour, s.Colour)
	copy(m.charWOM, s.CharWOM)
	copy(m.hyperRAM, s.Hypervisor)
	copy(m.i2c, s.I2C)

	m.SetBank(BankState{
		Port:            s.Bank.Port,
		BankReg:         s.Bank.BankReg,
		MapOffsetLow:    s.Bank.MapOffsetLow,
		MapOffsetHigh:   s.Bank.MapOffsetHigh,
		MapMask:         s.Bank.MapMask,
		MapMegabyteLow:  s.Bank.MapMegabyteLow,
		MapMegabyteHigh: s.Bank.MapMegabyteHigh,
		Hypervisor:      s.Bank.Hypervisor,
		ROMWriteProtect: s.Bank.ROMWriteProtect,
		IRQInhibit:      s.Bank.IRQInhibit,
	})
	return nil
}
