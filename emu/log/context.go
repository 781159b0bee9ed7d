package log

import (
	"io"

	"gopkg.in/Sirupsen/logrus.v0"
)

// A Context decorates every emitted entry, typically with the state of the
// emulated machine (program counter, scanline...).
type Context interface {
	AddLogContext(z *EntryZ)
}

var contexts []Context

func AddContext(c Context) {
	contexts = append(contexts, c)
}

func RemoveContext(c Context) {
	for i := range contexts {
		if contexts[i] == c {
			contexts = append(contexts[:i], contexts[i+1:]...)
			return
		}
	}
}

// SetOutput redirects all log output.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

// Disable discards all log output, fatal entries still exit.
func Disable() {
	DisableDebugModules(ModuleMaskAll)
	logrus.SetOutput(io.Discard)
}

func emit(lvl Level, msg string, fields Fields) {
	entry := logrus.StandardLogger().WithFields(logrus.Fields(fields))
	switch lvl {
	case DebugLevel:
		entry.Debug(msg)
	case InfoLevel:
		entry.Info(msg)
	case WarnLevel:
		entry.Warn(msg)
	case ErrorLevel:
		entry.Error(msg)
	case FatalLevel:
		entry.Fatal(msg)
	}
}
