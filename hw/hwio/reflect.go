package hwio

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// InitRegs initializes all the Reg8, Device and Mem fields of the structure
// pointed by data, according to their "hwio" struct tag. Recognized options:
//
//	offset=0x12     byte offset of the register within its bank (see MapBank).
//	bank=N          bank number (default 0).
//	reset=0x12      Reg8 initial value.
//	rwmask=0xF0     Reg8 writable bits (default 0xFF).
//	size=0x100      Device size, or Mem buffer size (allocated if Data is nil).
//	vsize=0x400     Mem mapped size (default size).
//	readonly        Reg8/Device rejects writes.
//	writeonly       Reg8/Device rejects reads.
//	rcb[=Method]    read callback, defaults to Read<NAME> (NAME is the upper-cased field name).
//	wcb[=Method]    write callback, defaults to Write<NAME> (also valid on Mem).
//	pcb[=Method]    peek callback, defaults to Peek<NAME>.
func InitRegs(data any) error {
	sv, err := structOf(data)
	if err != nil {
		return err
	}
	st := sv.Type()
	owner := reflect.ValueOf(data)

	for i := range st.NumField() {
		f := st.Field(i)
		tag, ok := f.Tag.Lookup("hwio")
		if !ok || !f.IsExported() {
			continue
		}
		opts, err := parseTag(tag)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", st.Name(), f.Name, err)
		}

		switch ptr := sv.Field(i).Addr().Interface().(type) {
		case *Reg8:
			err = initReg8(owner, f.Name, ptr, opts)
		case *Device:
			err = initDevice(owner, f.Name, ptr, opts)
		case *Mem:
			err = initMem(owner, f.Name, ptr, opts)
		default:
			err = fmt.Errorf("unsupported hwio type %s", f.Type)
		}
		if err != nil {
			return fmt.Errorf("%s.%s: %w", st.Name(), f.Name, err)
		}
	}
	return nil
}

type bankReg struct {
	offset uint16
	regPtr any
}

// bankGetRegs returns the registers of the given bank number.
func bankGetRegs(data any, bankNum int) ([]bankReg, error) {
	sv, err := structOf(data)
	if err != nil {
		return nil, err
	}
	st := sv.Type()

	var regs []bankReg
	for i := range st.NumField() {
		f := st.Field(i)
		tag, ok := f.Tag.Lookup("hwio")
		if !ok || !f.IsExported() {
			continue
		}
		opts, err := parseTag(tag)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", st.Name(), f.Name, err)
		}
		if _, ok := opts["offset"]; !ok {
			continue
		}
		bank, err := opts.num("bank", 0, 0xFF)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", st.Name(), f.Name, err)
		}
		if int(bank) != bankNum {
			continue
		}
		off, err := opts.num("offset", 0, 0xFFFF)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", st.Name(), f.Name, err)
		}
		regs = append(regs, bankReg{
			offset: uint16(off),
			regPtr: sv.Field(i).Addr().Interface(),
		})
	}
	return regs, nil
}

func structOf(data any) (reflect.Value, error) {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("hwio: expected pointer to struct, got %T", data)
	}
	return v.Elem(), nil
}

type tagOpts map[string]string

func parseTag(tag string) (tagOpts, error) {
	opts := make(tagOpts)
	for _, opt := range strings.Split(tag, ",") {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		key, val, _ := strings.Cut(opt, "=")
		switch key {
		case "offset", "bank", "reset", "rwmask", "size", "vsize",
			"readonly", "writeonly", "rcb", "wcb", "pcb":
		default:
			return nil, fmt.Errorf("unknown hwio option %q", key)
		}
		opts[key] = val
	}
	return opts, nil
}

func (o tagOpts) num(key string, def, limit uint64) (uint64, error) {
	s, ok := o[key]
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v > limit {
		return 0, fmt.Errorf("%s value %#x too big (max %#x)", key, v, limit)
	}
	return v, nil
}

func (o tagOpts) has(key string) bool {
	_, ok := o[key]
	return ok
}

func (o tagOpts) flags() RWFlags {
	var f RWFlags
	if o.has("readonly") {
		f |= ReadOnlyFlag
	}
	if o.has("writeonly") {
		f |= WriteOnlyFlag
	}
	return f
}

// callback returns the method of owner implementing the callback cb (one of
// rcb/wcb/pcb) for field name, or an invalid value if cb is not requested.
func (o tagOpts) callback(owner reflect.Value, cb, prefix, name string) (reflect.Value, error) {
	mname, ok := o[cb]
	if !ok {
		return reflect.Value{}, nil
	}
	if mname == "" {
		mname = prefix + strings.ToUpper(name)
	}
	m := owner.MethodByName(mname)
	if !m.IsValid() {
		return reflect.Value{}, fmt.Errorf("%s: method %s not found on %s", cb, mname, owner.Type())
	}
	return m, nil
}

func initReg8(owner reflect.Value, name string, reg *Reg8, opts tagOpts) error {
	reset, err := opts.num("reset", 0, 0xFF)
	if err != nil {
		return err
	}
	rwmask, err := opts.num("rwmask", 0xFF, 0xFF)
	if err != nil {
		return err
	}
	reg.Name = name
	reg.Value = uint8(reset)
	reg.RoMask = ^uint8(rwmask)
	reg.Flags = opts.flags()

	if m, err := opts.callback(owner, "rcb", "Read", name); err != nil {
		return err
	} else if m.IsValid() {
		fn, ok := m.Interface().(func(uint8) uint8)
		if !ok {
			return fmt.Errorf("rcb: invalid signature %s", m.Type())
		}
		reg.ReadCb = fn
	}
	if m, err := opts.callback(owner, "pcb", "Peek", name); err != nil {
		return err
	} else if m.IsValid() {
		fn, ok := m.Interface().(func(uint8) uint8)
		if !ok {
			return fmt.Errorf("pcb: invalid signature %s", m.Type())
		}
		reg.PeekCb = fn
	}
	if m, err := opts.callback(owner, "wcb", "Write", name); err != nil {
		return err
	} else if m.IsValid() {
		fn, ok := m.Interface().(func(uint8, uint8))
		if !ok {
			return fmt.Errorf("wcb: invalid signature %s", m.Type())
		}
		reg.WriteCb = fn
	}
	return nil
}

func initDevice(owner reflect.Value, name string, dev *Device, opts tagOpts) error {
	size, err := opts.num("size", 1, 0x10000)
	if err != nil {
		return err
	}
	dev.Name = name
	dev.Size = int(size)
	dev.Flags = opts.flags()

	if m, err := opts.callback(owner, "rcb", "Read", name); err != nil {
		return err
	} else if m.IsValid() {
		fn, ok := m.Interface().(func(uint16) uint8)
		if !ok {
			return fmt.Errorf("rcb: invalid signature %s", m.Type())
		}
		dev.ReadCb = fn
	}
	if m, err := opts.callback(owner, "pcb", "Peek", name); err != nil {
		return err
	} else if m.IsValid() {
		fn, ok := m.Interface().(func(uint16) uint8)
		if !ok {
			return fmt.Errorf("pcb: invalid signature %s", m.Type())
		}
		dev.PeekCb = fn
	}
	if m, err := opts.callback(owner, "wcb", "Write", name); err != nil {
		return err
	} else if m.IsValid() {
		fn, ok := m.Interface().(func(uint16, uint8))
		if !ok {
			return fmt.Errorf("wcb: invalid signature %s", m.Type())
		}
		dev.WriteCb = fn
	}
	return nil
}

func initMem(owner reflect.Value, name string, mem *Mem, opts tagOpts) error {
	size, err := opts.num("size", uint64(len(mem.Data)), 0x10000)
	if err != nil {
		return err
	}
	if size == 0 {
		return fmt.Errorf("mem %s has no size", name)
	}
	vsize, err := opts.num("vsize", size, 0x10000)
	if err != nil {
		return err
	}
	mem.Name = name
	if mem.Data == nil {
		mem.Data = make([]byte, size)
	}
	mem.VSize = int(vsize)

	if m, err := opts.callback(owner, "wcb", "Write", name); err != nil {
		return err
	} else if m.IsValid() {
		fn, ok := m.Interface().(func(uint16, uint8))
		if !ok {
			return fmt.Errorf("wcb: invalid signature %s", m.Type())
		}
		mem.WriteCb = fn
	}
	return nil
}
