package log

import (
	"bytes"
	"strings"
	"testing"
)

type pcContext struct{ pc uint16 }

func (c *pcContext) AddLogContext(z *EntryZ) { z.Hex16("pc", c.pc) }

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nopWriter{}) })
	return &buf
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestEntryZFields(t *testing.T) {
	buf := captureOutput(t)

	ModMem.WarnZ("write to protected area").
		Hex32("addr", 0x20010).
		Hex8("val", 0xAB).
		Bool("hv", false).
		End()

	out := buf.String()
	for _, want := range []string{"_mod=mem", "addr=00020010", "val=ab", "hv=false", "write to protected area"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

func TestEntryZDisabled(t *testing.T) {
	DisableDebugModules(ModuleMaskAll)
	if z := ModBank.DebugZ("hidden"); z != nil {
		t.Fatalf("DebugZ on disabled module = %v, want nil", z)
	}
	// Chaining on a nil entry must be harmless.
	ModBank.DebugZ("hidden").Hex16("addr", 1).String("k", "v").End()

	EnableDebugModules(ModBank.Mask())
	defer DisableDebugModules(ModBank.Mask())
	if z := ModBank.DebugZ("shown"); z == nil {
		t.Fatal("DebugZ on enabled module = nil")
	}
}

func TestContext(t *testing.T) {
	buf := captureOutput(t)

	ctx := &pcContext{pc: 0xC0DE}
	AddContext(ctx)
	defer RemoveContext(ctx)

	ModMem.ErrorZ("bad access").End()
	if out := buf.String(); !strings.Contains(out, "pc=c0de") {
		t.Errorf("output %q does not carry context field", out)
	}
}

func TestModuleByName(t *testing.T) {
	m, ok := ModuleByName("bank")
	if !ok || m != ModBank {
		t.Fatalf("ModuleByName(bank) = %v, %v", m, ok)
	}
	if _, ok := ModuleByName("nope"); ok {
		t.Fatal("ModuleByName(nope) found a module")
	}
}

func TestModuleNames(t *testing.T) {
	for _, mod := range []Module{ModEmu, ModMem, ModBank, ModHwIo, ModCfg} {
		got, ok := ModuleByName(mod.String())
		if !ok || got != mod {
			t.Errorf("ModuleByName(%q) = %v, %v, want %v", mod.String(), got, ok, mod)
		}
	}
	if got, want := len(ModuleNames()), 5; got != want {
		t.Errorf("len(ModuleNames()) = %d, want %d", got, want)
	}
	if s := Module(100).String(); s != "<error>" {
		t.Errorf("unknown module String() = %q", s)
	}
}
