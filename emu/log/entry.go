package log

import (
	"gopkg.in/Sirupsen/logrus.v0"
)

type Level = logrus.Level

const (
	FatalLevel = logrus.FatalLevel
	ErrorLevel = logrus.ErrorLevel
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
)

type Fields logrus.Fields

// Entry is a printf-style log entry bound to a module, carrying the fields of
// the registered contexts.
type Entry struct {
	mod Module
}

func (entry Entry) log() *logrus.Entry {
	final := logrus.StandardLogger().WithField("_mod", entry.mod.String())

	var z EntryZ
	for _, c := range contexts {
		c.AddLogContext(&z)
	}
	if z.zfidx == 0 {
		return final
	}
	fields := make(logrus.Fields, z.zfidx)
	for i := range z.zfbuf[:z.zfidx] {
		fields[z.zfbuf[i].Key] = z.zfbuf[i].Value()
	}
	return final.WithFields(fields)
}

func (entry Entry) Fatalf(format string, args ...any) {
	entry.log().Fatalf(format, args...)
}
