package pe

// Export is one entry of the export table, correlated by ordinal across
// the export address table (EAT), the export name pointer table (ENPT)
// and the export ordinal table. An export's address is either a function
// RVA within the image, or a forwarder string ("OTHERDLL.Func") when the
// RVA falls inside the export directory itself.
type Export struct {
	Ordinal   uint16
	Name      []byte // nil if the export is unnamed
	rva       uint32
	forwarder []byte
}

// IsForwarder reports whether this export forwards to another module.
func (e Export) IsForwarder() bool { return e.forwarder != nil }

// RVA returns the exported function's address. Meaningless if
// IsForwarder is true.
func (e Export) RVA() uint32 { return e.rva }

// Forwarder returns the borrowed "DLL.Symbol" forwarder string. Valid
// only when IsForwarder is true.
func (e Export) Forwarder() []byte { return e.forwarder }

type exportDirectory struct {
	base                  uint32
	numberOfFunctions     uint32
	numberOfNames         uint32
	addressOfFunctionsRVA uint32
	addressOfNamesRVA     uint32
	addressOfOrdinalsRVA  uint32
}

// ExportIter walks the export name pointer table (ENPT) in its own
// on-disk order (conventionally sorted alphabetically by name),
// yielding one Export per named entry. Exports present in the address
// table but referenced by no name entry are not visited here: fetch
// those through View.ExportByOrdinal.
type ExportIter struct {
	v      *View
	dd     DataDirectory
	dir    exportDirectory
	i      uint32
	failed error
}

// parseExportDirectory reads the fixed-size export directory header, if
// DirExport is present. present is false (with a nil error) when the
// directory is absent per the (0,0) sentinel.
func (v *View) parseExportDirectory() (dd DataDirectory, dir exportDirectory, present bool, err error) {
	dd = v.DataDirectory(DirExport)
	if dd.absent() {
		return dd, exportDirectory{}, false, nil
	}

	c, err := v.r.cursorAt(dd.VirtualAddress)
	if err != nil {
		return dd, exportDirectory{}, false, err
	}
	if err := c.skip(4 + 4 + 2 + 2); err != nil { // Characteristics, TimeDateStamp, Major/MinorVersion
		return dd, exportDirectory{}, false, newErr(Truncated, "ExportDirectory", err)
	}
	if err := c.skip(4); err != nil { // NameRVA
		return dd, exportDirectory{}, false, newErr(Truncated, "ExportDirectory", err)
	}

	var e error
	rd32 := func(dst *uint32) {
		if e == nil {
			*dst, e = c.readU32()
		}
	}
	rd32(&dir.base)
	rd32(&dir.numberOfFunctions)
	rd32(&dir.numberOfNames)
	rd32(&dir.addressOfFunctionsRVA)
	rd32(&dir.addressOfNamesRVA)
	rd32(&dir.addressOfOrdinalsRVA)
	if e != nil {
		return dd, exportDirectory{}, false, newErr(Truncated, "ExportDirectory", e)
	}

	return dd, dir, true, nil
}

// Exports returns an iterator over the export directory's names array
// (DirExport). If the directory is absent, the returned iterator yields
// nothing.
func (v *View) Exports() (*ExportIter, error) {
	dd, dir, present, err := v.parseExportDirectory()
	if err != nil {
		return nil, err
	}
	if !present {
		return &ExportIter{}, nil
	}
	return &ExportIter{v: v, dd: dd, dir: dir}, nil
}

// ExportByOrdinal looks up a single export directly in the export
// address table by ordinal, independent of whether it has a name. This
// is the only way to reach an export that carries no entry in the names
// array. ok is false when the directory is absent, ordinal falls
// outside [base, base+number_of_functions), or the address table slot
// is a zero-filled hole (a reserved, unused ordinal).
func (v *View) ExportByOrdinal(ordinal uint16) (Export, bool, error) {
	dd, dir, present, err := v.parseExportDirectory()
	if err != nil {
		return Export{}, false, err
	}
	if !present || uint32(ordinal) < dir.base {
		return Export{}, false, nil
	}
	idx := uint32(ordinal) - dir.base
	if idx >= dir.numberOfFunctions {
		return Export{}, false, nil
	}

	rva, err := v.r.slice4(dir.addressOfFunctionsRVA + idx*4)
	if err != nil {
		return Export{}, false, err
	}
	if rva == 0 {
		return Export{}, false, nil
	}

	e := Export{Ordinal: ordinal}
	if rva >= dd.VirtualAddress && rva < dd.VirtualAddress+dd.Size {
		fwd, err := v.r.cString(rva)
		if err != nil {
			return Export{}, false, err
		}
		e.forwarder = fwd
	} else {
		e.rva = rva
	}
	return e, true, nil
}

// Err reports the error, if any, that terminated iteration early.
func (it *ExportIter) Err() error { return it.failed }

// Next returns the next named export in names-array order, or false at
// the end of the table or on error.
func (it *ExportIter) Next() (Export, bool) {
	if it.failed != nil || it.i >= it.dir.numberOfNames {
		return Export{}, false
	}
	idx := it.i
	it.i++

	oc, err := it.v.r.cursorAt(it.dir.addressOfOrdinalsRVA + idx*2)
	if err != nil {
		it.failed = err
		return Export{}, false
	}
	ord, err := oc.readU16()
	if err != nil {
		it.failed = newErr(Truncated, "ExportOrdinalTable", err)
		return Export{}, false
	}
	if uint32(ord) >= it.dir.numberOfFunctions {
		it.failed = newErr(Malformed, "ExportOrdinalTable", nil)
		return Export{}, false
	}

	nameRVA, err := it.v.r.slice4(it.dir.addressOfNamesRVA + idx*4)
	if err != nil {
		it.failed = err
		return Export{}, false
	}
	name, err := it.v.r.cString(nameRVA)
	if err != nil {
		it.failed = err
		return Export{}, false
	}

	rva, err := it.v.r.slice4(it.dir.addressOfFunctionsRVA + uint32(ord)*4)
	if err != nil {
		it.failed = err
		return Export{}, false
	}

	e := Export{Ordinal: ord + uint16(it.dir.base), Name: name}
	if rva >= it.dd.VirtualAddress && rva < it.dd.VirtualAddress+it.dd.Size {
		fwd, err := it.v.r.cString(rva)
		if err != nil {
			it.failed = err
			return Export{}, false
		}
		e.forwarder = fwd
	} else {
		e.rva = rva
	}

	return e, true
}
