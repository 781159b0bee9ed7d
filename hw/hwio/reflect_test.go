package hwio

import (
	"strings"
	"testing"
)

type test1 struct {
	Reg1   Reg8   `hwio:"offset=0x111,reset=0x23,rwmask=0x1,wcb"`
	Reg2   Reg8   `hwio:"offset=0x444,bank=1,rcb"`
	Dev    Device `hwio:"offset=0x500,bank=1,size=0x10,rcb,wcb"`
	called bool
	last   uint16
}

func (t *test1) WriteREG1(old, val uint8) {
	t.called = true
}

func (t *test1) ReadREG2(val uint8) uint8 {
	return val | 1
}

func (t *test1) ReadDEV(addr uint16) uint8       { return uint8(addr) }
func (t *test1) WriteDEV(addr uint16, val uint8) { t.last = addr }

func TestReflect(t *testing.T) {
	ts := &test1{}

	err := InitRegs(ts)
	if err != nil {
		t.Fatal(err)
	}

	if ts.Reg1.Name != "Reg1" || ts.Reg2.Name != "Reg2" {
		t.Error("invalid names:", ts.Reg1, ts.Reg2)
	}

	if ts.Reg2.Read8(0, false) != 1 {
		t.Error("invalid read8:", ts.Reg2.Read8(0, false))
	}

	val := ts.Reg1.Read8(0, false)
	if val != 0x23 {
		t.Error("invalid read8", val)
	}

	ts.Reg1.Write8(0, 0)
	if ts.Reg1.Value != 0x22 {
		t.Error("invalid read after rwmask", ts.Reg1.Value)
	}
	if !ts.called {
		t.Error("callback not called")
	}

	if ts.Dev.Size != 0x10 {
		t.Errorf("device size = %#x, want 0x10", ts.Dev.Size)
	}
	if got := ts.Dev.Read8(0x507, false); got != 0x07 {
		t.Errorf("device read = %02x, want 07", got)
	}
	ts.Dev.Write8(0x50A, 0xFF)
	if ts.last != 0x50A {
		t.Errorf("device write callback got addr %04x", ts.last)
	}
}

func TestParseBank(t *testing.T) {
	ts := &test1{}
	info, err := bankGetRegs(ts, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(info) != 1 {
		t.Fatal("wrong number of regs in bank:", len(info))
	}
	if info[0].offset != 0x111 {
		t.Errorf("invalid reg offset: %x", info[0].offset)
	}

	rptr, ok := info[0].regPtr.(*Reg8)
	if !ok {
		t.Errorf("invalid reg ptr type: %T", info[0].regPtr)
	} else if rptr != &ts.Reg1 {
		t.Errorf("invalid reg ptr")
	}

	info, err = bankGetRegs(ts, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(info) != 2 {
		t.Fatal("wrong number of regs in bank:", len(info))
	}
	if info[0].offset != 0x444 || info[1].offset != 0x500 {
		t.Errorf("invalid reg offsets: %x %x", info[0].offset, info[1].offset)
	}
}

type test3 struct {
	Buf    Mem `hwio:"size=0x40,vsize=0x100,wcb"`
	Shared Mem `hwio:"vsize=0x200"`
	writes int
}

func (t *test3) WriteBUF(addr uint16, val uint8) {
	t.writes++
	t.Buf.Data[addr&0x3F] = val ^ 0xFF
}

func TestReflectMem(t *testing.T) {
	ts := &test3{}
	ts.Shared.Data = make([]byte, 0x80)
	if err := InitRegs(ts); err != nil {
		t.Fatal(err)
	}

	if len(ts.Buf.Data) != 0x40 || ts.Buf.VSize != 0x100 {
		t.Errorf("Buf: len=%#x vsize=%#x", len(ts.Buf.Data), ts.Buf.VSize)
	}
	if len(ts.Shared.Data) != 0x80 || ts.Shared.VSize != 0x200 {
		t.Errorf("Shared: len=%#x vsize=%#x", len(ts.Shared.Data), ts.Shared.VSize)
	}

	io := ts.Buf.BankIO8()
	io.Write8(0x41, 0x0F)
	if ts.writes != 1 {
		t.Fatalf("write callback called %d times", ts.writes)
	}
	if got := io.Read8(0x01, false); got != 0xF0 {
		t.Errorf("Read8(01) = %02x, want f0", got)
	}
}

func TestReadWriteOnly(t *testing.T) {
	type test2 struct {
		Reg1 Reg8 `hwio:"reset=0x23,readonly"`
		Reg2 Reg8 `hwio:"writeonly"`
	}

	ts := &test2{}
	err := InitRegs(ts)
	if err != nil {
		t.Fatal(err)
	}

	ts.Reg1.Write8(0, 0) // this should be ignored
	if ts.Reg1.Read8(0, false) != 0x23 {
		t.Error("invalid reg1 read:", ts.Reg1.Read8(0, false))
	}

	ts.Reg2.Write8(0, 0x23)
	if ts.Reg2.Read8(0, false) != 0 {
		t.Error("invalid reg2 read:", ts.Reg2.Read8(0, false))
	}
}

func TestInitRegsErrors(t *testing.T) {
	type tooBig struct {
		R Reg8 `hwio:"reset=0x123"`
	}
	type tooBigMask struct {
		R Reg8 `hwio:"rwmask=0x123"`
	}
	type missingCb struct {
		R Reg8 `hwio:"wcb"`
	}
	type unknownOpt struct {
		R Reg8 `hwio:"offset=0x1,bogus"`
	}

	tests := []struct {
		name string
		data any
		want string
	}{
		{"reset", &tooBig{}, "too big"},
		{"rwmask", &tooBigMask{}, "too big"},
		{"callback", &missingCb{}, "WriteR not found"},
		{"option", &unknownOpt{}, "unknown hwio option"},
		{"not a pointer", tooBig{}, "expected pointer to struct"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitRegs(tt.data)
			if err == nil {
				t.Fatal("InitRegs should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
