package memory

// PageSize is the granularity of the page tables.
const PageSize = 0x100

// PageCount is the number of entries in each page table.
const PageCount = 0x100

// Region is a named block of host memory owned by a session. Page tables
// hold non-owning views into regions; the region itself is never replaced
// while the session is alive.
type Region struct {
	name string
	data []byte
}

// NewRegion allocates a zeroed region. The size is rounded up to a whole
// number of pages so every page view is full length.
func NewRegion(name string, size int) *Region {
	return &Region{name: name, data: make([]byte, roundPages(size))}
}

// NewRegionFrom creates a region holding a copy of data, padded with 0xFF
// to a whole number of pages.
func NewRegionFrom(name string, data []byte) *Region {
	buf := make([]byte, roundPages(len(data)))
	n := copy(buf, data)
	for i := n; i < len(buf); i++ {
		buf[i] = 0xFF
	}
	return &Region{name: name, data: buf}
}

// Fill sets every byte of the region to v.
func (r *Region) Fill(v byte) {
	for i := range r.data {
		r.data[i] = v
	}
}

// Name returns the region name.
func (r *Region) Name() string { return r.name }

// Bytes returns the backing buffer. Writes through it are visible to every
// page mapped onto the region.
func (r *Region) Bytes() []byte { return r.data }

// Len returns the region size in bytes.
func (r *Region) Len() int { return len(r.data) }

// Pages returns the number of 256-byte pages in the region.
func (r *Region) Pages() int { return len(r.data) / PageSize }

func roundPages(n int) int {
	if n <= 0 {
		return PageSize
	}
	return (n + PageSize - 1) &^ (PageSize - 1)
}
