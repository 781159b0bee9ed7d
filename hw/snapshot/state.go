package snapshot

import (
	"fmt"

	"github.com/go-faster/jx"
)

// Memory is the saved state of the memory controller. ROM and attic RAM are
// not part of it: the former comes from the ROM file, the latter survives
// resets on the real machine and is too big to be worth saving.
type Memory struct {
	Version int
	Bank    Bank

	RAM        []byte
	Colour     []byte
	CharWOM    []byte
	Hypervisor []byte
	I2C        []byte
}

type Bank struct {
	Port            [2]uint8
	BankReg         uint8
	MapOffsetLow    uint32
	MapOffsetHigh   uint32
	MapMask         uint8
	MapMegabyteLow  uint32
	MapMegabyteHigh uint32
	Hypervisor      bool
	ROMWriteProtect bool
	IRQInhibit      bool
}

func (s *Memory) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("version")
	e.Int(s.Version)
	e.FieldStart("bank")
	s.Bank.Encode(e)
	e.FieldStart("ram")
	e.Base64(s.RAM)
	e.FieldStart("colour")
	e.Base64(s.Colour)
	e.FieldStart("charwom")
	e.Base64(s.CharWOM)
	e.FieldStart("hypervisor")
	e.Base64(s.Hypervisor)
	e.FieldStart("i2c")
	e.Base64(s.I2C)
	e.ObjEnd()
}

func (s *Memory) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "version":
			s.Version, err = d.Int()
		case "bank":
			err = s.Bank.Decode(d)
		case "ram":
			s.RAM, err = d.Base64()
		case "colour":
			s.Colour, err = d.Base64()
		case "charwom":
			s.CharWOM, err = d.Base64()
		case "hypervisor":
			s.Hypervisor, err = d.Base64()
		case "i2c":
			s.I2C, err = d.Base64()
		default:
			err = d.Skip()
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return nil
	})
}

func (s *Memory) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	s.Encode(&e)
	return e.Bytes(), nil
}

func (s *Memory) UnmarshalJSON(data []byte) error {
	return s.Decode(jx.DecodeBytes(data))
}

func (b *Bank) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("port")
	e.ArrStart()
	e.UInt8(b.Port[0])
	e.UInt8(b.Port[1])
	e.ArrEnd()
	e.FieldStart("bankreg")
	e.UInt8(b.BankReg)
	e.FieldStart("map_offset_low")
	e.UInt32(b.MapOffsetLow)
	e.FieldStart("map_offset_high")
	e.UInt32(b.MapOffsetHigh)
	e.FieldStart("map_mask")
	e.UInt8(b.MapMask)
	e.FieldStart("map_megabyte_low")
	e.UInt32(b.MapMegabyteLow)
	e.FieldStart("map_megabyte_high")
	e.UInt32(b.MapMegabyteHigh)
	e.FieldStart("hypervisor")
	e.Bool(b.Hypervisor)
	e.FieldStart("rom_write_protect")
	e.Bool(b.ROMWriteProtect)
	e.FieldStart("irq_inhibit")
	e.Bool(b.IRQInhibit)
	e.ObjEnd()
}

func (b *Bank) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "port":
			i := 0
			err = d.Arr(func(d *jx.Decoder) error {
				if i >= len(b.Port) {
					return fmt.Errorf("too many port registers")
				}
				v, err := d.UInt8()
				b.Port[i] = v
				i++
				return err
			})
		case "bankreg":
			b.BankReg, err = d.UInt8()
		case "map_offset_low":
			b.MapOffsetLow, err = d.UInt32()
		case "map_offset_high":
			b.MapOffsetHigh, err = d.UInt32()
		case "map_mask":
			b.MapMask, err = d.UInt8()
		case "map_megabyte_low":
			b.MapMegabyteLow, err = d.UInt32()
		case "map_megabyte_high":
			b.MapMegabyteHigh, err = d.UInt32()
		case "hypervisor":
			b.Hypervisor, err = d.Bool()
		case "rom_write_protect":
			b.ROMWriteProtect, err = d.Bool()
		case "irq_inhibit":
			b.IRQInhibit, err = d.Bool()
		default:
			err = d.Skip()
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return nil
	})
}
