package main

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"text/tabwriter"

	"m65/emu"
	"m65/hw"
	"m65/hw/hwdefs"
)

func main() {
	cfg := parseArgs(os.Args[1:])

	switch cfg.mode {
	case regionsMode:
		m, err := hw.NewMemory(hw.MemoryConfig{})
		checkf(err, "failed to create memory")
		printRegions(os.Stdout, m)
	case decodeMode:
		m, err := hw.NewMemory(hw.MemoryConfig{})
		checkf(err, "failed to create memory")
		m.InitBus()
		cfg.Decode.apply(m)
		printMapping(os.Stdout, m)
	case peekMode:
		m := cfg.Peek.Machine.memory()
		cfg.Peek.Banking.apply(m)
		checkf(peek(os.Stdout, m, cfg.Peek.Addrs, cfg.Peek.Count, cfg.Peek.Linear), "peek")
	case snapshotMode:
		m := cfg.Snapshot.Machine.memory()
		cfg.Snapshot.Banking.apply(m)
		checkf(emu.SaveSnapshot(cfg.Snapshot.Out, m), "failed to save snapshot")
	case versionMode:
		printVersion(os.Stdout)
	}
}

// memory creates the memory controller from the configuration.
func (mc *Machine) memory() *hw.Memory {
	var cfg emu.Config
	if mc.Config != "" {
		var err error
		cfg, err = emu.LoadConfig(mc.Config)
		checkf(err, "failed to load configuration")
	} else {
		cfg = emu.LoadConfigOrDefault()
	}
	if mc.ROM != "" {
		cfg.Memory.ROM = mc.ROM
	}

	m, err := emu.NewMemory(cfg.Memory)
	checkf(err, "failed to create memory")
	return m
}

func (b *Banking) apply(m *hw.Memory) {
	m.WriteCPUPort(hwdefs.CPUPortDDR, uint8(b.DDR))
	m.WriteCPUPort(hwdefs.CPUPortData, uint8(b.Port))
	m.WriteBankReg(uint8(b.BankReg))
	if b.Map.set {
		m.MAP(b.Map.regs[0], b.Map.regs[1], b.Map.regs[2], b.Map.regs[3])
		m.EOM()
	}
	if b.Hyper {
		m.SetHypervisor(true)
	}
}

func printRegions(w io.Writer, m *hw.Memory) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "BEGIN\tEND\tSIZE\tNAME")
	rs := m.Regions()
	for i := range rs.Len() {
		r := rs.At(i)
		fmt.Fprintf(tw, "%08X\t%08X\t%s\t%s\n", r.Begin, r.End, sizeString(r.Size()), r.Name)
	}
	tw.Flush()
}

func sizeString(n uint64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%dM", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%dK", n>>10)
	}
	return fmt.Sprintf("%d", n)
}

func printMapping(w io.Writer, m *hw.Memory) {
	bs := m.Bank()
	fmt.Fprintf(w, "port=%02X,%02X bankreg=%02X bankcfg=%02X hypervisor=%t rom_wp=%t\n",
		bs.Port[0], bs.Port[1], bs.BankReg, bs.BankCfg, bs.Hypervisor, bs.ROMWriteProtect)
	fmt.Fprintf(w, "map: low=%07X/%07X high=%07X/%07X mask=%02X\n\n",
		bs.MapMegabyteLow, bs.MapOffsetLow, bs.MapMegabyteHigh, bs.MapOffsetHigh, bs.MapMask)

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "CPU\tPOLICY\tREAD\t\tWRITE\t")
	for _, sm := range m.Mapping() {
		fmt.Fprintf(tw, "%04X\t%s\t%07X\t%s\t%07X\t%s\n",
			sm.Addr, sm.Policy, sm.ReadPhys, sm.ReadRegion, sm.WritePhys, sm.WriteRegion)
	}
	tw.Flush()
}

func peek(w io.Writer, m *hw.Memory, addrs []string, count int, linear bool) error {
	bits := 16
	if linear {
		bits = 32
	}
	for _, s := range addrs {
		addr, err := parseHex(s, bits)
		if err != nil {
			return fmt.Errorf("invalid address %q", s)
		}

		var sb strings.Builder
		if linear {
			fmt.Fprintf(&sb, "%07X:", addr)
		} else {
			fmt.Fprintf(&sb, "%04X:", addr)
		}
		for i := range count {
			var val uint8
			if linear {
				val = m.PeekLinear(uint32(addr) + uint32(i))
			} else {
				val = m.Peek8(uint16(addr) + uint16(i))
			}
			fmt.Fprintf(&sb, " %02X", val)
		}
		fmt.Fprintln(w, sb.String())
	}
	return nil
}

func printVersion(w io.Writer) {
	version := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		version = bi.Main.Version
	}
	fmt.Fprintf(w, "m65 %s\n", version)
}
