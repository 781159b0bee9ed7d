package hwio

// Linear memory area that can be mapped into a Table. The mapped range may be
// bigger than Data (VSize), in which case Data is mirrored.
//
// NOTE: Mem does not implement BankIO8 directly; BankIO8 returns an adaptor
// with the mask precomputed so that the access path stays branch-free.
type Mem struct {
	Name    string              // name of the memory area (for debugging)
	Data    []byte              // actual memory buffer
	VSize   int                 // virtual size of the memory (can be bigger than physical size)
	WriteCb func(uint16, uint8) // optional write callback (if set, the callback is called instead of writing)
}

func (m *Mem) BankIO8() BankIO8 {
	return newMem(m.Data, m.WriteCb)
}

type mem struct {
	buf  []byte
	mask uint16
	wcb  func(uint16, uint8)
}

func newMem(buf []byte, wcb func(uint16, uint8)) *mem {
	if len(buf) == 0 || len(buf)&(len(buf)-1) != 0 {
		panic("memory buffer size is not pow2")
	}
	return &mem{
		buf:  buf,
		mask: uint16(len(buf) - 1),
		wcb:  wcb,
	}
}

func (m *mem) Read8(addr uint16, _ bool) uint8 {
	return m.buf[addr&m.mask]
}

func (m *mem) Write8(addr uint16, val uint8) {
	if m.wcb != nil {
		m.wcb(addr, val)
		return
	}
	m.buf[addr&m.mask] = val
}
