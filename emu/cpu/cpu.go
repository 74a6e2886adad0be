// Package cpu defines the contracts shared by the CPU interpreters and the
// system buses they run on.
package cpu

import "github.com/user-none/em8bit/emu/savestate"

// Core is a CPU interpreter driven in cycle bursts.
//
// Execute runs whole instructions until at least cycles have been spent
// and returns the number actually consumed, which may exceed the request
// by part of one instruction. Interrupts are only recognised between
// instructions. NMI is edge triggered and serviced once per pulse. IRQ is
// level triggered and serviced at every eligible boundary while asserted.
type Core interface {
	Reset()
	Execute(cycles int) int
	AssertIRQ()
	ClearIRQ()
	PulseNMI()
	ProgramCounter() uint16
	SaveState(w *savestate.Writer)
	LoadState(d *savestate.Decoder) error
}

// Bus is the memory side of a system bus.
type Bus interface {
	Read(addr uint16) byte
	Write(addr uint16, v byte)
}

// IOBus adds the separate port space used by the Z80.
type IOBus interface {
	Bus
	In(port uint16) byte
	Out(port uint16, v byte)
}

// Pager is implemented by buses whose memory is backed by page tables. A
// CPU may cache the view returned by FetchPage for opcode fetches until
// Generation changes. FetchPage returns nil for pages with side effects.
type Pager interface {
	FetchPage(page byte) []byte
	Generation() uint32
}

// FetchCache memoizes the page view used for instruction fetches.
type FetchCache struct {
	pager Pager
	page  byte
	gen   uint32
	view  []byte
}

// Attach enables caching through bus if it implements Pager.
func (f *FetchCache) Attach(bus Bus) {
	f.pager, _ = bus.(Pager)
	f.view = nil
}

// Invalidate drops the cached view.
func (f *FetchCache) Invalidate() { f.view = nil }

// Lookup returns the byte at addr from the cached page and true, or false if
// the caller must go through the bus.
func (f *FetchCache) Lookup(addr uint16) (byte, bool) {
	if f.pager == nil {
		return 0, false
	}
	page := byte(addr >> 8)
	if f.view == nil || f.page != page || f.gen != f.pager.Generation() {
		f.view = f.pager.FetchPage(page)
		f.page = page
		f.gen = f.pager.Generation()
		if f.view == nil {
			return 0, false
		}
	}
	return f.view[addr&0xFF], true
}
