package pe

import "encoding/binary"

// resolver translates RVAs and file offsets into borrowed sub-slices of
// the image buffer, using the section table built during Parse. Lookups
// are a linear scan: images carry at most maxNumberOfSections entries, so
// this stays fast without an auxiliary index, and matches the "first
// section wins" policy for the (rare, malformed) case of overlapping
// section spans.
type resolver struct {
	buf      []byte
	sections []Section
}

// sectionForRVA returns the first section whose RVA span contains rva.
func (r *resolver) sectionForRVA(rva uint32) (Section, bool) {
	for _, s := range r.sections {
		if s.containsRVA(rva) {
			return s, true
		}
	}
	return Section{}, false
}

// resolve locates the section owning rva, its file offset within r.buf,
// and the exclusive end of that section's raw-data span. Every
// subsequent read derived from rva must stay within [off, end): running
// past a section's own raw bounds and into whatever bytes happen to
// follow it in the file is a BadRva, not a successful read, even when
// those bytes are still inside r.buf. Header-region RVAs (below the
// first section) are not treated specially: an RVA that does not fall
// inside any section is BadRva, matching how a real Windows loader
// would refuse to resolve it via the section table either.
func (r *resolver) resolve(rva uint32) (off, end int, err error) {
	sec, ok := r.sectionForRVA(rva)
	if !ok {
		return 0, 0, newErr(BadRva, "", nil)
	}
	delta := rva - sec.VirtualAddress
	o := uint64(sec.PointerToRawData) + uint64(delta)
	e := uint64(sec.PointerToRawData) + uint64(sec.SizeOfRawData)
	// A section table entry is trusted at parse time only when
	// SizeOfRawData > 0 (parseSectionTable's own file-span check); a
	// section with SizeOfRawData == 0 carries an unchecked
	// PointerToRawData that can point anywhere, including past the end
	// of the buffer. Bound both o and e against len(r.buf) here so such
	// a section resolves to BadRva instead of a slice expression that
	// panics once a caller does r.buf[:end] or r.buf[off:off+n].
	if o > e || e > uint64(len(r.buf)) {
		return 0, 0, newErr(BadRva, "", nil)
	}
	return int(o), int(e), nil
}

// rvaToOffset converts an RVA to a file offset within r.buf, using the
// owning section's raw-data placement.
func (r *resolver) rvaToOffset(rva uint32) (int, error) {
	off, _, err := r.resolve(rva)
	return off, err
}

// slice returns a borrowed sub-slice of length n starting at rva. The
// read must stay within the owning section's raw-data span: a length
// that would run past it is BadRva, even though the underlying file
// buffer may have more bytes there belonging to whatever follows the
// section (padding, the next section, and so on).
func (r *resolver) slice(rva uint32, n int) ([]byte, error) {
	off, end, err := r.resolve(rva)
	if err != nil {
		return nil, err
	}
	if n < 0 || off+n > end {
		return nil, newErr(BadRva, "", nil)
	}
	return r.buf[off : off+n], nil
}

// slice4 reads a little-endian uint32 located at rva, a convenience for
// parallel-array directories (the export tables) that are addressed
// element-by-element.
func (r *resolver) slice4(rva uint32) (uint32, error) {
	b, err := r.slice(rva, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// cursorAt returns a cursor positioned at the file offset for rva,
// scoped so that it cannot read past the owning section's raw-data end:
// every read through the returned cursor is bounded by the section, not
// by the rest of the image buffer.
func (r *resolver) cursorAt(rva uint32) (*cursor, error) {
	off, end, err := r.resolve(rva)
	if err != nil {
		return nil, err
	}
	c := newCursor(r.buf[:end])
	if err := c.seek(off); err != nil {
		return nil, newErr(BadRva, "", err)
	}
	return c, nil
}

// cString returns the borrowed NUL-terminated string located at rva,
// scoped to the owning section's raw-data end: a chain with no
// terminator before the section boundary is BadRva rather than a read
// that spills into the next section.
func (r *resolver) cString(rva uint32) ([]byte, error) {
	off, end, err := r.resolve(rva)
	if err != nil {
		return nil, err
	}
	s, err := peekCString(r.buf[:end], off)
	if err != nil {
		return nil, newErr(BadRva, "cstring", err)
	}
	return s, nil
}

// offsetSlice returns a borrowed sub-slice of length n at an absolute
// file offset, for data addressed directly by file position rather than
// by RVA. There is no owning section to bound this against, so the whole
// buffer is the applicable limit. No accessor in this package calls it:
// Certificates walks the attribute certificate table with its own cursor.
func (r *resolver) offsetSlice(off, n uint32) ([]byte, error) {
	end := uint64(off) + uint64(n)
	if end > uint64(len(r.buf)) {
		return nil, newErr(Truncated, "", nil)
	}
	return r.buf[off : off+n], nil
}
