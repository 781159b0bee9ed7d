package hwio

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrRegionEmpty    = errors.New("empty region table")
	ErrRegionBounds   = errors.New("region table does not cover the whole physical space")
	ErrRegionAlign    = errors.New("region boundary is not page aligned")
	ErrRegionGap      = errors.New("gap between regions")
	ErrRegionOverlap  = errors.New("overlapping regions")
	ErrRegionStorage  = errors.New("invalid region storage")
	ErrRegionAccessor = errors.New("region has neither storage nor accessor")
)

type RegionFlags uint8

const (
	RegionROM        RegionFlags = 1 << iota // ROM image, writes may be write-protected
	RegionHypervisor                         // only visible in hypervisor mode
	RegionFatal                              // any access is an emulator bug
)

// Region describes a contiguous range of the physical address space. For each
// direction, either the storage slice (indexed by addr-Begin) or the accessor
// function serves the access; storage takes precedence.
type Region struct {
	Name       string
	Begin, End uint32 // inclusive bounds
	Flags      RegionFlags

	Read  []byte
	Write []byte

	ReadFn  func(addr uint32, peek bool) uint8
	WriteFn func(addr uint32, val uint8)
}

func (r *Region) Contains(addr uint32) bool {
	return r.Begin <= addr && addr <= r.End
}

func (r *Region) Size() uint64 {
	return uint64(r.End) - uint64(r.Begin) + 1
}

func (r *Region) page(buf []byte, addr uint32) []byte {
	if buf == nil {
		return nil
	}
	off := (addr &^ 0xFF) - r.Begin
	return buf[off : off+0x100 : off+0x100]
}

// ReadPage returns the 256-byte storage window backing the page containing
// addr, or nil if reads go through ReadFn.
func (r *Region) ReadPage(addr uint32) []byte { return r.page(r.Read, addr) }

// WritePage is the write-side counterpart of ReadPage.
func (r *Region) WritePage(addr uint32) []byte { return r.page(r.Write, addr) }

func (r *Region) Read8(addr uint32, peek bool) uint8 {
	if r.Read != nil {
		return r.Read[addr-r.Begin]
	}
	return r.ReadFn(addr, peek)
}

func (r *Region) Write8(addr uint32, val uint8) {
	if r.Write != nil {
		r.Write[addr-r.Begin] = val
		return
	}
	r.WriteFn(addr, val)
}

func (r *Region) String() string {
	return fmt.Sprintf("%08X-%08X %s", r.Begin, r.End, r.Name)
}

// Regions is an ordered, gapless list of regions covering the whole 32-bit
// physical address space.
type Regions struct {
	list []Region
	last int // index of the last successful lookup
}

// NewRegions returns a region table after verifying its consistency.
func NewRegions(list []Region) (*Regions, error) {
	rs := &Regions{list: list}
	if err := rs.Check(); err != nil {
		return nil, err
	}
	return rs, nil
}

// Check verifies that the table starts at 0, ends at the highest 32-bit
// address, has page aligned bounds and no gap nor overlap between neighbours.
func (rs *Regions) Check() error {
	if len(rs.list) == 0 {
		return ErrRegionEmpty
	}
	if rs.list[0].Begin != 0 {
		return fmt.Errorf("%w: first region %q starts at %08X", ErrRegionBounds, rs.list[0].Name, rs.list[0].Begin)
	}
	if last := &rs.list[len(rs.list)-1]; last.End != math.MaxUint32 {
		return fmt.Errorf("%w: last region %q ends at %08X", ErrRegionBounds, last.Name, last.End)
	}

	for i := range rs.list {
		r := &rs.list[i]
		if r.Begin&0xFF != 0 || r.End&0xFF != 0xFF || r.End < r.Begin {
			return fmt.Errorf("%w: %s", ErrRegionAlign, r)
		}
		if (r.Read == nil && r.ReadFn == nil) || (r.Write == nil && r.WriteFn == nil) {
			return fmt.Errorf("%w: %s", ErrRegionAccessor, r)
		}
		if (r.Read != nil && uint64(len(r.Read)) < r.Size()) || (r.Write != nil && uint64(len(r.Write)) < r.Size()) {
			return fmt.Errorf("%w: %s storage is smaller than the region", ErrRegionStorage, r)
		}
		if i == 0 {
			continue
		}
		prev := &rs.list[i-1]
		switch {
		case r.Begin <= prev.End:
			return fmt.Errorf("%w: %s and %s", ErrRegionOverlap, prev, r)
		case r.Begin != prev.End+1:
			return fmt.Errorf("%w: %s and %s", ErrRegionGap, prev, r)
		}
	}
	return nil
}

// Lookup returns the region containing addr and its index. Lookups scan from
// the previously matched region since consecutive accesses are usually close
// to each other.
func (rs *Regions) Lookup(addr uint32) (int, *Region) {
	i := rs.last
	for addr < rs.list[i].Begin {
		i--
	}
	for addr > rs.list[i].End {
		i++
	}
	rs.last = i
	return i, &rs.list[i]
}

func (rs *Regions) Len() int { return len(rs.list) }

func (rs *Regions) At(i int) *Region { return &rs.list[i] }
