package pe

// COFFStringTable is the variable-length string table that immediately
// follows the COFF symbol table, used to hold symbol names longer than
// the 8 bytes a COFFSymbol record can inline.
type COFFStringTable struct {
	buf []byte // excludes the leading 4-byte length field
}

// COFFStringTable locates and borrows the string table trailing the
// symbol table, if the file carries one (object files and some older
// linked images; most modern executables have neither).
func (v *View) COFFStringTable() (COFFStringTable, bool, error) {
	fh := v.nt.FileHeader
	if fh.PointerToSymbolTable == 0 || fh.NumberOfSymbols == 0 {
		return COFFStringTable{}, false, nil
	}

	off := int(fh.PointerToSymbolTable) + coffSymbolSize*int(fh.NumberOfSymbols)
	c := newCursor(v.buf)
	if err := c.seek(off); err != nil {
		return COFFStringTable{}, false, newErr(Truncated, "COFFStringTable", err)
	}
	length, err := c.readU32()
	if err != nil {
		return COFFStringTable{}, false, newErr(Truncated, "COFFStringTable.Length", err)
	}
	if length <= 4 {
		return COFFStringTable{}, false, nil
	}

	body, err := c.readSlice(int(length) - 4)
	if err != nil {
		return COFFStringTable{}, false, newErr(Truncated, "COFFStringTable", err)
	}
	return COFFStringTable{buf: body}, true, nil
}

// String returns the NUL-terminated name stored at the given offset
// into the table, where offset is relative to the table's own 4-byte
// length prefix (matching how COFFSymbol.Name encodes long-name
// offsets).
func (st COFFStringTable) String(offset uint32) ([]byte, error) {
	if offset < 4 {
		return nil, newErr(Malformed, "COFFStringTable offset", nil)
	}
	return peekCString(st.buf, int(offset-4))
}
