package hw

import (
	"m65/emu/log"
	"m65/hw/hwdefs"
	"m65/hw/hwio"
)

const (
	// invalidTag is never page aligned, so it can't match a real page.
	invalidTag = 0xFFFFFFFF

	slotLinearRead  = hwdefs.NumPages
	slotLinearWrite = hwdefs.NumPages + 1
	numCacheSlots   = hwdefs.NumPages + 2
)

// pageEntry caches the decoding of a 256-byte page. Reads and writes are
// decoded separately since a ROM page is read from ROM but written to the RAM
// below it.
type pageEntry struct {
	rdTag, wrTag uint32 // physical page base, or invalidTag

	// 256-byte window of the backing storage, nil when the region accessor
	// must be used.
	rd, wr []byte

	rdRegion, wrRegion *hwio.Region
	rdIdx, wrIdx       int // index in the region table

	policy Policy
}

func (e *pageEntry) stale() {
	*e = pageEntry{
		rdTag:  invalidTag,
		wrTag:  invalidTag,
		rdIdx:  -1,
		wrIdx:  -1,
		policy: policyNone,
	}
}

func (m *Memory) fill(e *pageEntry, rdPhys, wrPhys uint32) {
	rdPhys &^= 0xFF
	wrPhys &^= 0xFF

	e.rdIdx, e.rdRegion = m.resolve(rdPhys)
	e.rd = e.rdRegion.ReadPage(rdPhys)
	e.rdTag = rdPhys

	e.wrIdx, e.wrRegion = m.resolve(wrPhys)
	e.wr = e.wrRegion.WritePage(wrPhys)
	e.wrTag = wrPhys
}

// resolvePage decodes CPU page pg according to the policy of its slot.
func (m *Memory) resolvePage(pg int) {
	addr := uint16(pg << 8)
	p := m.policies[pg>>4]
	rd, wr := p.phys(addr)

	e := &m.cache[pg]
	m.fill(e, rd, wr)
	e.policy = p
}

// resolveLinear points one of the linear slots at the page containing phys.
func (m *Memory) resolveLinear(slot int, phys uint32) {
	e := &m.cache[slot]
	m.fill(e, phys, phys)
	e.policy = policyNone
}

// invalidate re-decodes count cache slots starting at start. CPU pages are
// decoded right away, linear slots are decoded on next use.
func (m *Memory) invalidate(start, count int) {
	for i := start; i < start+count; i++ {
		if i < hwdefs.NumPages {
			m.resolvePage(i)
			continue
		}
		m.cache[i].stale()
	}
}

// invalidateByPolicy invalidates every CPU page currently decoded with policy
// p.
func (m *Memory) invalidateByPolicy(p Policy) {
	for i := range hwdefs.NumPages {
		if m.cache[i].policy == p {
			m.invalidate(i, 1)
		}
	}
}

// invalidateRegion invalidates every slot reading from or writing to the
// region at index idx.
func (m *Memory) invalidateRegion(idx int) {
	n := 0
	for i := range m.cache {
		if e := &m.cache[i]; e.rdIdx == idx || e.wrIdx == idx {
			m.invalidate(i, 1)
			n++
		}
	}
	log.ModMem.DebugZ("invalidated region").
		Stringer("region", m.regions.At(idx)).
		Int("slots", n).
		End()
}

// Flush forgets all cached decodings. Pages are decoded again on their next
// access.
func (m *Memory) Flush() {
	for i := range m.cache {
		m.cache[i].stale()
	}
}

func (m *Memory) checkEntry(slot int, e *pageEntry) {
	if e.rdTag&0xFF != 0 || e.wrTag&0xFF != 0 {
		m.fault("stale page entry", uint32(slot))
	}
	if (e.rd != nil && len(e.rd) != hwdefs.PageSize) || (e.wr != nil && len(e.wr) != hwdefs.PageSize) {
		m.fault("bad page window", e.rdTag)
	}
}
