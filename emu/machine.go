package emu

import (
	"fmt"
	"os"

	"github.com/go-faster/jx"

	"m65/emu/log"
	"m65/hw"
	"m65/hw/hwdefs"
	"m65/hw/snapshot"
)

// NewMemory creates the memory controller described by cfg, with the ROM
// image loaded, and registers it as a log context.
func NewMemory(cfg MemoryConfig) (*hw.Memory, error) {
	m, err := hw.NewMemory(cfg.MemoryConfig)
	if err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}
	if cfg.ROM != "" {
		if err := LoadROM(m, cfg.ROM); err != nil {
			return nil, err
		}
	}
	m.InitBus()
	log.AddContext(m)
	return m, nil
}

// LoadROM copies the ROM image at path into m.
func LoadROM(m *hw.Memory, path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("rom: %w", err)
	}
	if len(buf) != hwdefs.ROMSize {
		return fmt.Errorf("rom %s: size is %d bytes, want %d", path, len(buf), hwdefs.ROMSize)
	}
	copy(m.ROM(), buf)
	log.ModEmu.InfoZ("loaded rom").String("path", path).End()
	return nil
}

// SaveSnapshot writes the state of m at path, as JSON.
func SaveSnapshot(path string, m *hw.Memory) error {
	var e jx.Encoder
	m.SaveState().Encode(&e)
	if err := os.WriteFile(path, e.Bytes(), 0644); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot restores m from a snapshot written by SaveSnapshot.
func LoadSnapshot(path string, m *hw.Memory) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	var s snapshot.Memory
	if err := s.Decode(jx.DecodeBytes(buf)); err != nil {
		return fmt.Errorf("snapshot %s: %w", path, err)
	}
	if err := m.LoadState(&s); err != nil {
		return fmt.Errorf("snapshot %s: %w", path, err)
	}
	return nil
}
