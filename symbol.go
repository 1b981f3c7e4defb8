package pe

import "encoding/binary"

const coffSymbolSize = 18

// COFFSymbol is a single raw COFF symbol table record, before auxiliary
// records are stripped and long names resolved.
type COFFSymbol struct {
	Name               [8]byte
	Value              uint32
	SectionNumber      int16
	Type               uint16
	StorageClass       uint8
	NumberOfAuxSymbols uint8
}

// Symbol is a resolved COFF symbol: a COFFSymbol with its name expanded
// through the string table when necessary, and its auxiliary records
// (which carry no independent name) already skipped.
type Symbol struct {
	Name          []byte
	Value         uint32
	SectionNumber int16
	Type          uint16
	StorageClass  uint8
}

// SymbolIter walks the COFF symbol table, transparently skipping
// auxiliary records the way a linker does: a primary record announces
// how many auxiliary records follow it, and those carry no name of
// their own.
type SymbolIter struct {
	buf    []byte
	pos    int
	remain uint32
	strtab COFFStringTable
	failed error
}

// Symbols returns an iterator over the COFF symbol table. If the file
// carries no symbol table, the iterator yields nothing.
func (v *View) Symbols() (*SymbolIter, error) {
	fh := v.nt.FileHeader
	if fh.PointerToSymbolTable == 0 || fh.NumberOfSymbols == 0 {
		return &SymbolIter{}, nil
	}
	// A string table that cannot be read does not fail the accessor:
	// symbols with inline names still iterate, and a symbol whose long
	// name needs the table fails that step with Truncated.
	strtab, _, _ := v.COFFStringTable()
	return &SymbolIter{
		buf:    v.buf,
		pos:    int(fh.PointerToSymbolTable),
		remain: fh.NumberOfSymbols,
		strtab: strtab,
	}, nil
}

// Err reports the error, if any, that terminated iteration early.
func (it *SymbolIter) Err() error { return it.failed }

// Next returns the next primary symbol, or false once the table is
// exhausted or on error.
func (it *SymbolIter) Next() (Symbol, bool) {
	for {
		if it.failed != nil || it.remain == 0 {
			return Symbol{}, false
		}

		raw, err := it.readRaw()
		if err != nil {
			it.failed = err
			return Symbol{}, false
		}

		aux := raw.NumberOfAuxSymbols
		for i := uint8(0); i < aux && it.remain > 0; i++ {
			if _, err := it.readRaw(); err != nil {
				it.failed = err
				return Symbol{}, false
			}
		}

		name, isOffset := symNameOffset(raw.Name)
		var nameBytes []byte
		if isOffset {
			nameBytes, err = it.strtab.String(name)
			if err != nil {
				it.failed = err
				return Symbol{}, false
			}
		} else {
			nameBytes = trimNulName(raw.Name[:])
		}

		return Symbol{
			Name:          nameBytes,
			Value:         raw.Value,
			SectionNumber: raw.SectionNumber,
			Type:          raw.Type,
			StorageClass:  raw.StorageClass,
		}, true
	}
}

func (it *SymbolIter) readRaw() (COFFSymbol, error) {
	if it.remain == 0 {
		return COFFSymbol{}, newErr(Truncated, "COFFSymbol", nil)
	}
	c := newCursor(it.buf)
	if err := c.seek(it.pos); err != nil {
		return COFFSymbol{}, newErr(Truncated, "COFFSymbol", err)
	}
	raw, err := c.readSlice(coffSymbolSize)
	if err != nil {
		return COFFSymbol{}, newErr(Truncated, "COFFSymbol", err)
	}
	it.pos += coffSymbolSize
	it.remain--

	var sym COFFSymbol
	copy(sym.Name[:], raw[0:8])
	sym.Value = binary.LittleEndian.Uint32(raw[8:12])
	sym.SectionNumber = int16(binary.LittleEndian.Uint16(raw[12:14]))
	sym.Type = binary.LittleEndian.Uint16(raw[14:16])
	sym.StorageClass = raw[16]
	sym.NumberOfAuxSymbols = raw[17]
	return sym, nil
}

// symNameOffset reports whether name encodes a string-table offset
// (first 4 bytes zero) and, if so, returns that offset.
func symNameOffset(name [8]byte) (uint32, bool) {
	if name[0] == 0 && name[1] == 0 && name[2] == 0 && name[3] == 0 {
		return binary.LittleEndian.Uint32(name[4:]), true
	}
	return 0, false
}

func trimNulName(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}
