package hwio

import "m65/emu/log"

// Device is a range of addresses served by callbacks, for chips whose
// registers are too irregular for Reg8 and Mem. Missing callbacks read as 0
// and ignore writes.
type Device struct {
	Name  string
	Size  int
	Flags RWFlags

	ReadCb  func(addr uint16) uint8
	PeekCb  func(addr uint16) uint8
	WriteCb func(addr uint16, val uint8)
}

func (d *Device) Read8(addr uint16, peek bool) uint8 {
	cb := d.ReadCb
	switch {
	case peek:
		cb = d.PeekCb
	case d.Flags&WriteOnlyFlag != 0:
		d.invalid("Read8", addr)
		return 0
	}
	if cb == nil {
		return 0
	}
	return cb(addr)
}

func (d *Device) Write8(addr uint16, val uint8) {
	if d.Flags&ReadOnlyFlag != 0 {
		d.invalid("Write8", addr)
		return
	}
	if d.WriteCb != nil {
		d.WriteCb(addr, val)
	}
}

func (d *Device) invalid(op string, addr uint16) {
	log.ModHwIo.ErrorZ("invalid device access").
		String("op", op).
		String("name", d.Name).
		Hex16("addr", addr).
		End()
}
