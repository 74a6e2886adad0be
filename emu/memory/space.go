package memory

// AddressSpace is a 64KB CPU view built from two 256-entry page tables.
//
// Every entry in both tables always references a full 256-byte window.
// Pages with nothing mapped read from a region filled with 0xFF and write
// into a private sink, so no address is ever invalid.
type AddressSpace struct {
	name  string
	read  [PageCount][]byte
	write [PageCount][]byte
	io    [PageCount]bool

	readOwner  [PageCount]*Region
	writeOwner [PageCount]*Region

	openBus *Region
	sink    *Region

	gen uint32
}

// New creates an address space with every page unmapped.
func New(name string) *AddressSpace {
	s := &AddressSpace{
		name:    name,
		openBus: NewRegion(name+".openbus", PageSize),
		sink:    NewRegion(name+".sink", PageSize),
	}
	s.openBus.Fill(0xFF)
	s.UnmapRead(0, PageCount)
	s.UnmapWrite(0, PageCount)
	return s
}

// Name returns the space name.
func (s *AddressSpace) Name() string { return s.name }

// Read returns the byte visible at addr.
func (s *AddressSpace) Read(addr uint16) byte {
	return s.read[addr>>8][addr&0xFF]
}

// Write stores v through the write table.
func (s *AddressSpace) Write(addr uint16, v byte) {
	s.write[addr>>8][addr&0xFF] = v
}

// Read16 returns the little-endian word at addr. The high byte wraps to
// 0x0000 when addr is 0xFFFF.
func (s *AddressSpace) Read16(addr uint16) uint16 {
	return uint16(s.Read(addr)) | uint16(s.Read(addr+1))<<8
}

// Write16 stores a little-endian word at addr.
func (s *AddressSpace) Write16(addr uint16, v uint16) {
	s.Write(addr, byte(v))
	s.Write(addr+1, byte(v>>8))
}

// MapRead points count read pages starting at page to region, beginning at
// byte offset off. Offsets past the end of the region mirror back to its
// start.
func (s *AddressSpace) MapRead(page, count int, r *Region, off int) {
	for i := 0; i < count; i++ {
		p := (page + i) & (PageCount - 1)
		s.read[p] = view(r, off+i*PageSize)
		s.readOwner[p] = r
	}
	s.gen++
}

// MapWrite points count write pages starting at page to region.
func (s *AddressSpace) MapWrite(page, count int, r *Region, off int) {
	for i := 0; i < count; i++ {
		p := (page + i) & (PageCount - 1)
		s.write[p] = view(r, off+i*PageSize)
		s.writeOwner[p] = r
	}
	s.gen++
}

// Map maps both tables onto the same region window.
func (s *AddressSpace) Map(page, count int, r *Region, off int) {
	s.MapRead(page, count, r, off)
	s.MapWrite(page, count, r, off)
}

// UnmapRead points count read pages at the open-bus region.
func (s *AddressSpace) UnmapRead(page, count int) {
	s.MapRead(page, count, s.openBus, 0)
}

// UnmapWrite points count write pages at the discard sink. Used for ROM.
func (s *AddressSpace) UnmapWrite(page, count int) {
	s.MapWrite(page, count, s.sink, 0)
}

// MarkIO flags pages whose accesses are routed through bus handlers rather
// than the tables. Flagged pages are never handed out for fetch caching.
func (s *AddressSpace) MarkIO(page, count int, io bool) {
	for i := 0; i < count; i++ {
		s.io[(page+i)&(PageCount-1)] = io
	}
	s.gen++
}

// IsIO reports whether addr falls in a page flagged with MarkIO.
func (s *AddressSpace) IsIO(addr uint16) bool {
	return s.io[addr>>8]
}

// FetchPage returns the read view for page, or nil if the page is IO.
func (s *AddressSpace) FetchPage(page byte) []byte {
	if s.io[page] {
		return nil
	}
	return s.read[page]
}

// Generation changes on every table rebuild. A CPU holding a FetchPage
// view must refetch it when the generation differs from the one it cached.
func (s *AddressSpace) Generation() uint32 { return s.gen }

// ReadOwner returns the region behind a read page.
func (s *AddressSpace) ReadOwner(page byte) *Region { return s.readOwner[page] }

// WriteOwner returns the region behind a write page.
func (s *AddressSpace) WriteOwner(page byte) *Region { return s.writeOwner[page] }

// Unmapped reports whether a read page is on the open-bus region.
func (s *AddressSpace) Unmapped(page byte) bool { return s.readOwner[page] == s.openBus }

func view(r *Region, off int) []byte {
	n := r.Len()
	off %= n
	if off < 0 {
		off += n
	}
	off &^= PageSize - 1
	return r.data[off : off+PageSize : off+PageSize]
}
