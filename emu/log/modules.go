package log

import "gopkg.in/Sirupsen/logrus.v0"

type ModuleMask uint64
type Module uint

const (
	ModuleMaskAll ModuleMask = 0xFFFFFFFFFFFFFFFF
)

const (
	ModEmu Module = iota + 1
	ModMem
	ModBank
	ModHwIo
	ModCfg
)

var modDebugMask ModuleMask = 0

var modNames = []string{
	"<error>", "emu", "mem", "bank", "hwio", "cfg",
}

func ModuleByName(name string) (Module, bool) {
	for idx, s := range modNames {
		if s == name {
			return Module(idx), true
		}
	}
	return Module(0xFFFFFFFF), false
}

// ModuleNames returns the names of all registered modules.
func ModuleNames() []string {
	return append([]string(nil), modNames[1:]...)
}

// EnableDebugModules enables debug level logging for the modules in mask.
func EnableDebugModules(mask ModuleMask) {
	modDebugMask |= mask
	if modDebugMask != 0 {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

func DisableDebugModules(mask ModuleMask) {
	modDebugMask &^= mask
}

func (mod Module) String() string {
	if int(mod) < len(modNames) {
		return modNames[mod]
	}
	return modNames[0]
}

func (mod Module) Mask() ModuleMask {
	return 1 << ModuleMask(mod)
}

func (mod Module) Enabled(level Level) bool {
	return level <= WarnLevel || modDebugMask&mod.Mask() != 0
}

func (mod Module) Fatalf(format string, args ...any) { Entry{mod: mod}.Fatalf(format, args...) }

// Fast, allocation-light logging. The returned entry is nil when the level is
// disabled for the module, and every EntryZ method accepts a nil receiver.

func (mod Module) logz(lvl Level, msg string) *EntryZ {
	if mod.Enabled(lvl) {
		e := NewEntryZ()
		e.lvl = lvl
		e.msg = msg
		e.mod = mod
		return e
	}
	return nil
}

func (mod Module) DebugZ(msg string) *EntryZ { return mod.logz(DebugLevel, msg) }
func (mod Module) InfoZ(msg string) *EntryZ  { return mod.logz(InfoLevel, msg) }
func (mod Module) WarnZ(msg string) *EntryZ  { return mod.logz(WarnLevel, msg) }
func (mod Module) ErrorZ(msg string) *EntryZ { return mod.logz(ErrorLevel, msg) }
func (mod Module) FatalZ(msg string) *EntryZ { return mod.logz(FatalLevel, msg) }
