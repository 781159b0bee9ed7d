package hwio

import (
	"errors"
	"math"
	"testing"
)

func testRegions() []Region {
	ff := func(uint32, bool) uint8 { return 0xFF }
	ignore := func(uint32, uint8) {}
	ram := make([]byte, 0x1000)
	return []Region{
		{Name: "ram", Begin: 0x0000, End: 0x0FFF, Read: ram, Write: ram},
		{Name: "rom", Begin: 0x1000, End: 0x1FFF, Flags: RegionROM, Read: make([]byte, 0x1000), WriteFn: ignore},
		{Name: "unmapped", Begin: 0x2000, End: 0xFFFFFF, ReadFn: ff, WriteFn: ignore},
		{Name: "fatal", Begin: 0x1000000, End: math.MaxUint32, Flags: RegionFatal, ReadFn: ff, WriteFn: ignore},
	}
}

func TestRegionsCheck(t *testing.T) {
	if _, err := NewRegions(testRegions()); err != nil {
		t.Fatalf("valid table rejected: %v", err)
	}

	tests := []struct {
		name   string
		modify func([]Region) []Region
		want   error
	}{
		{"empty", func([]Region) []Region { return nil }, ErrRegionEmpty},
		{"start", func(l []Region) []Region { return l[1:] }, ErrRegionBounds},
		{"end", func(l []Region) []Region { return l[:3] }, ErrRegionBounds},
		{"align", func(l []Region) []Region {
			l[0].End, l[1].Begin = 0x0FFE, 0x0FFF
			return l
		}, ErrRegionAlign},
		{"gap", func(l []Region) []Region {
			l[2].Begin = 0x2100
			return l
		}, ErrRegionGap},
		{"overlap", func(l []Region) []Region {
			l[1].Begin = 0x0F00
			l[1].Read = make([]byte, 0x1100)
			return l
		}, ErrRegionOverlap},
		{"storage", func(l []Region) []Region {
			l[1].Read = make([]byte, 0x800)
			return l
		}, ErrRegionStorage},
		{"accessor", func(l []Region) []Region {
			l[2].WriteFn = nil
			return l
		}, ErrRegionAccessor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegions(tt.modify(testRegions()))
			if !errors.Is(err, tt.want) {
				t.Errorf("got error %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegionsLookup(t *testing.T) {
	rs, err := NewRegions(testRegions())
	if err != nil {
		t.Fatal(err)
	}

	// Alternate between far apart addresses so that lookups scan both ways.
	tests := []struct {
		addr uint32
		want string
	}{
		{0x0000, "ram"},
		{0xFFFFFFFF, "fatal"},
		{0x1234, "rom"},
		{0x10000000, "fatal"},
		{0x0FFF, "ram"},
		{0x2000, "unmapped"},
		{0xFFFFFF, "unmapped"},
		{0x1000, "rom"},
	}
	for _, tt := range tests {
		i, r := rs.Lookup(tt.addr)
		if r.Name != tt.want {
			t.Errorf("Lookup(%08X) = %s, want %s", tt.addr, r.Name, tt.want)
		}
		if rs.At(i) != r {
			t.Errorf("Lookup(%08X): index %d does not match region", tt.addr, i)
		}
	}
	if rs.Len() != 4 {
		t.Errorf("Len() = %d, want 4", rs.Len())
	}
}

func TestRegionAccess(t *testing.T) {
	rs, err := NewRegions(testRegions())
	if err != nil {
		t.Fatal(err)
	}

	_, ram := rs.Lookup(0x0123)
	ram.Write8(0x0123, 0x42)
	if got := ram.Read8(0x0123, false); got != 0x42 {
		t.Errorf("ram Read8 = %02X, want 42", got)
	}
	page := ram.ReadPage(0x0123)
	if len(page) != 0x100 || page[0x23] != 0x42 {
		t.Errorf("ReadPage(0123) = len %d, [23]=%02X", len(page), page[0x23])
	}

	_, rom := rs.Lookup(0x1080)
	if rom.WritePage(0x1080) != nil {
		t.Errorf("rom has a write page")
	}
	rom.Write8(0x1080, 0x42)
	if got := rom.Read8(0x1080, false); got != 0 {
		t.Errorf("rom Read8 = %02X after ignored write", got)
	}

	_, un := rs.Lookup(0x5000)
	if got := un.Read8(0x5000, true); got != 0xFF {
		t.Errorf("unmapped Read8 = %02X, want FF", got)
	}
	if un.Size() != 0xFFE000 {
		t.Errorf("unmapped Size = %X", un.Size())
	}
}
