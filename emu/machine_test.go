package emu

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"m65/hw/hwdefs"
)

func romImage() []byte {
	rom := make([]byte, hwdefs.ROMSize)
	for i := range rom {
		rom[i] = uint8(i>>8) ^ 0x5A
	}
	return rom
}

func TestNewMemoryROM(t *testing.T) {
	rom := romImage()
	path := writeFile(t, "mega65.rom", rom)

	m := newMemory(t, MemoryConfig{ROM: path})
	if !bytes.Equal(m.ROM(), rom) {
		t.Fatalf("ROM image not loaded")
	}

	// KERNAL is visible at reset.
	if got, want := m.Read8(0xE000), rom[0xE000]; got != want {
		t.Errorf("Read8(E000) = %02X, want %02X", got, want)
	}
	if got, want := m.ReadLinear(hwdefs.ROMBase+0x1234), rom[0x1234]; got != want {
		t.Errorf("ReadLinear(ROMBase+1234) = %02X, want %02X", got, want)
	}
}

func TestNewMemoryErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		want string
	}{
		{
			name: "missing",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.rom") },
			want: "rom:",
		},
		{
			name: "short",
			path: func(t *testing.T) string { return writeFile(t, "short.rom", make([]byte, 0x4000)) },
			want: "size is 16384 bytes",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMemory(MemoryConfig{ROM: tt.path(t)})
			if err == nil {
				t.Fatalf("NewMemory() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("NewMemory() error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestSnapshotFile(t *testing.T) {
	m := newMemory(t, MemoryConfig{})
	m.Write8(0x0400, 0x01)
	m.Write8(0x0001, 0x35)
	m.WriteBankReg(0x01)
	m.MAP(0x00, 0x11, 0x00, 0x00)
	m.EOM()
	m.SetHypervisor(true)
	m.WriteLinear(hwdefs.HypervisorRAMBase, 0x42)

	path := filepath.Join(t.TempDir(), "state.json")
	tcheck(t, SaveSnapshot(path, m))

	m2 := newMemory(t, MemoryConfig{})
	tcheck(t, LoadSnapshot(path, m2))

	if diff := cmp.Diff(m.Bank(), m2.Bank()); diff != "" {
		t.Errorf("bank state mismatch (-want +got):\n%s", diff)
	}
	if !bytes.Equal(m.RAM(), m2.RAM()) {
		t.Errorf("RAM mismatch")
	}
	if got := m2.HypervisorRAM()[0]; got != 0x42 {
		t.Errorf("hypervisor RAM[0] = %02X, want 42", got)
	}
	for addr := range 0x10000 {
		if a, b := m.Peek8(uint16(addr)), m2.Peek8(uint16(addr)); a != b {
			t.Fatalf("Peek8(%04X) = %02X after load, want %02X", addr, b, a)
		}
	}
}

func TestLoadSnapshotErrors(t *testing.T) {
	m := newMemory(t, MemoryConfig{})

	bad := writeFile(t, "bad.json", []byte(`{"version": 1, "ram": "not base64!"}`))
	if err := LoadSnapshot(bad, m); err == nil {
		t.Errorf("LoadSnapshot(bad base64) should fail")
	}

	short := writeFile(t, "short.json", []byte(`{"version": 1, "ram": "AAAA"}`))
	if err := LoadSnapshot(short, m); err == nil {
		t.Errorf("LoadSnapshot(short ram) should fail")
	}

	if err := LoadSnapshot(filepath.Join(t.TempDir(), "none.json"), m); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("LoadSnapshot(missing) = %v, want not exist", err)
	}
}
