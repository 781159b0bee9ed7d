package emu

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"m65/emu/log"
	"m65/hw"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"
)

type Config struct {
	Memory MemoryConfig `toml:"memory"`
}

type MemoryConfig struct {
	// Path to the 128K ROM image. Without it the ROM is all zeroes.
	ROM string `toml:"rom"`

	hw.MemoryConfig
}

// DefaultConfig is the configuration used when none has been saved yet.
func DefaultConfig() Config {
	return Config{
		Memory: MemoryConfig{
			MemoryConfig: hw.MemoryConfig{
				ROMWriteProtect: true,
			},
		},
	}
}

var ConfigDir = sync.OnceValue(func() string {
	dir := configdir.LocalConfig("m65")
	if err := configdir.MakePath(dir); err != nil {
		log.ModCfg.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

const cfgFilename = "config.toml"

// LoadConfig loads the configuration file at path. Keys absent from the file
// keep their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		log.ModCfg.WarnZ("unknown config key").String("key", key.String()).End()
	}
	return cfg, nil
}

// LoadConfigOrDefault loads the configuration from the m65 config directory,
// or provide a default one.
func LoadConfigOrDefault() Config {
	path := filepath.Join(ConfigDir(), cfgFilename)
	cfg, err := LoadConfig(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.ModCfg.WarnZ("using default config").Error("err", err).End()
		}
		return DefaultConfig()
	}
	return cfg
}

// SaveConfig into m65 config directory.
func SaveConfig(cfg Config) error {
	return saveConfig(filepath.Join(ConfigDir(), cfgFilename), cfg)
}

func saveConfig(path string, cfg Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
