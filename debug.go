package pe

// DebugRecord is one fixed-size IMAGE_DEBUG_DIRECTORY entry. The
// interpretation of RawData (CodeView PDB records, POGO data, and so
// on) is a payload concern this reader deliberately does not decode; it
// exposes the record's fields and the borrowed raw bytes for callers
// that want to.
type DebugRecord struct {
	Characteristics  uint32
	TimeDateStamp    uint32
	MajorVersion     uint16
	MinorVersion     uint16
	Type             uint32
	SizeOfData       uint32
	AddressOfRawData uint32
	PointerToRawData uint32
	RawData          []byte // borrowed, nil if PointerToRawData is unreachable
}

const debugDirectoryEntrySize = 28

// DebugIter walks the debug directory's fixed-size entry array.
type DebugIter struct {
	buf    []byte
	pos    int
	end    int
	failed error
}

// Debug returns an iterator over the debug directory (DirDebug). If the
// directory is absent, the iterator yields nothing.
func (v *View) Debug() (*DebugIter, error) {
	dd := v.DataDirectory(DirDebug)
	if dd.absent() {
		return &DebugIter{}, nil
	}
	off, err := v.r.rvaToOffset(dd.VirtualAddress)
	if err != nil {
		return nil, err
	}
	return &DebugIter{buf: v.buf, pos: off, end: off + int(dd.Size)}, nil
}

// Err reports the error, if any, that terminated iteration early.
func (it *DebugIter) Err() error { return it.failed }

// Next returns the next debug directory entry, or false at the end of
// the table or on error.
func (it *DebugIter) Next() (DebugRecord, bool) {
	if it.failed != nil || it.pos+debugDirectoryEntrySize > it.end {
		return DebugRecord{}, false
	}

	c := newCursor(it.buf)
	if err := c.seek(it.pos); err != nil {
		it.failed = newErr(Truncated, "IMAGE_DEBUG_DIRECTORY", err)
		return DebugRecord{}, false
	}
	it.pos += debugDirectoryEntrySize

	var d DebugRecord
	var err error
	d.Characteristics, err = c.readU32()
	if err == nil {
		d.TimeDateStamp, err = c.readU32()
	}
	if err == nil {
		d.MajorVersion, err = c.readU16()
	}
	if err == nil {
		d.MinorVersion, err = c.readU16()
	}
	if err == nil {
		d.Type, err = c.readU32()
	}
	if err == nil {
		d.SizeOfData, err = c.readU32()
	}
	if err == nil {
		d.AddressOfRawData, err = c.readU32()
	}
	if err == nil {
		d.PointerToRawData, err = c.readU32()
	}
	if err != nil {
		it.failed = newErr(Truncated, "IMAGE_DEBUG_DIRECTORY", err)
		return DebugRecord{}, false
	}

	if d.SizeOfData > 0 {
		start := int(d.PointerToRawData)
		end := start + int(d.SizeOfData)
		if start >= 0 && end <= len(it.buf) && start <= end {
			d.RawData = it.buf[start:end]
		}
	}

	return d, true
}
