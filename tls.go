package pe

// TLSDirectory is the fixed portion of the PE32+ thread-local storage
// directory: the raw-data template range plus the address of the
// zero-terminated array of TLS callback pointers.
type TLSDirectory struct {
	StartAddressOfRawData uint64
	EndAddressOfRawData   uint64
	AddressOfIndex        uint64
	AddressOfCallBacks    uint64
	SizeOfZeroFill        uint32
	Characteristics       uint32

	v *View
}

// TLS returns the thread-local storage directory (DirTLS), if present.
func (v *View) TLS() (TLSDirectory, bool, error) {
	dd := v.DataDirectory(DirTLS)
	if dd.absent() {
		return TLSDirectory{}, false, nil
	}

	c, err := v.r.cursorAt(dd.VirtualAddress)
	if err != nil {
		return TLSDirectory{}, false, err
	}

	var t TLSDirectory
	var e error
	rd64 := func(dst *uint64) {
		if e == nil {
			*dst, e = c.readU64()
		}
	}
	rd32 := func(dst *uint32) {
		if e == nil {
			*dst, e = c.readU32()
		}
	}
	rd64(&t.StartAddressOfRawData)
	rd64(&t.EndAddressOfRawData)
	rd64(&t.AddressOfIndex)
	rd64(&t.AddressOfCallBacks)
	rd32(&t.SizeOfZeroFill)
	rd32(&t.Characteristics)
	if e != nil {
		return TLSDirectory{}, false, newErr(Truncated, "IMAGE_TLS_DIRECTORY64", e)
	}

	t.v = v
	return t, true, nil
}

// CallbackIter walks the zero-terminated array of TLS callback virtual
// addresses.
type CallbackIter struct {
	v      *View
	pos    int
	end    int
	failed error
}

// Callbacks returns an iterator over this directory's callback pointer
// array. The array is addressed by virtual address (image base plus
// RVA), not RVA directly, matching how the loader reads it at runtime;
// it is translated back to an RVA via ImageBase before resolution.
func (t TLSDirectory) Callbacks() (*CallbackIter, error) {
	if t.AddressOfCallBacks == 0 {
		return &CallbackIter{}, nil
	}
	base := t.v.OptionalHeader().ImageBase
	if t.AddressOfCallBacks < base {
		return nil, newErr(BadRva, "TLSDirectory.AddressOfCallBacks", nil)
	}
	rva := uint32(t.AddressOfCallBacks - base)
	off, end, err := t.v.r.resolve(rva)
	if err != nil {
		return nil, err
	}
	return &CallbackIter{v: t.v, pos: off, end: end}, nil
}

// Err reports the error, if any, that terminated iteration early.
func (it *CallbackIter) Err() error { return it.failed }

// Next returns the next callback virtual address, or false at the
// zero-terminator or on error.
func (it *CallbackIter) Next() (uint64, bool) {
	if it.failed != nil || it.v == nil {
		return 0, false
	}

	c := newCursor(it.v.buf[:it.end])
	if err := c.seek(it.pos); err != nil {
		it.failed = newErr(BadRva, "TLS callback array", err)
		return 0, false
	}
	addr, err := c.readU64()
	if err != nil {
		it.failed = newErr(BadRva, "TLS callback array", err)
		return 0, false
	}
	it.pos += 8

	if addr == 0 {
		it.v = nil
		return 0, false
	}
	return addr, true
}
