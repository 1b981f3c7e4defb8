package pe

// View is a parsed, zero-copy view over a PE32+ image buffer. Every
// accessor returns data borrowed from the buffer passed to Parse; the
// caller must keep that buffer alive for as long as the View, or any
// value derived from it, is in use.
type View struct {
	buf []byte

	dos DOSHeader
	nt  ntHeaders
	r   resolver
}

// Parse validates and indexes buf as a PE32+ image. It performs the
// header and section-table parse eagerly; every directory beyond that
// (imports, exports, relocations, ...) is resolved lazily by the
// corresponding accessor, since most callers only need a subset of them.
func Parse(buf []byte) (*View, error) {
	dos, err := parseDOSHeader(buf)
	if err != nil {
		return nil, err
	}

	nt, err := parseNTHeaders(buf, dos.AddressOfNewEXEHeader)
	if err != nil {
		return nil, err
	}

	sections, err := parseSectionTable(buf, nt.sectionTableOff, nt.FileHeader.NumberOfSections)
	if err != nil {
		return nil, err
	}

	v := &View{
		buf: buf,
		dos: dos,
		nt:  nt,
		r:   resolver{buf: buf, sections: sections},
	}
	return v, nil
}

// DOSHeader returns the parsed MS-DOS stub header.
func (v *View) DOSHeader() DOSHeader { return v.dos }

// FileHeader returns the parsed COFF file header.
func (v *View) FileHeader() FileHeader { return v.nt.FileHeader }

// OptionalHeader returns the parsed PE32+ optional header.
func (v *View) OptionalHeader() OptionalHeader { return v.nt.OptionalHeader }

// Sections returns every parsed section, in file order.
func (v *View) Sections() []Section { return v.r.sections }

// SectionByRVA returns the section whose RVA span contains rva, if any.
func (v *View) SectionByRVA(rva uint32) (Section, bool) { return v.r.sectionForRVA(rva) }

// SectionByName returns the first section with the given name, if any.
func (v *View) SectionByName(name string) (Section, bool) {
	for _, s := range v.r.sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// DataDirectory returns the (RVA, size) pair for the given directory
// type. Callers should check Absent before resolving it further.
func (v *View) DataDirectory(t DataDirectoryType) DataDirectory {
	if int(t) < 0 || int(t) >= numDataDirectories {
		return DataDirectory{}
	}
	return v.nt.OptionalHeader.DataDirectory[t]
}

// Absent reports whether the given directory entry is the (0,0) sentinel.
func (v *View) Absent(t DataDirectoryType) bool {
	return v.DataDirectory(t).absent()
}

// RVAToOffset converts an RVA into a file offset within the original
// buffer, resolving it through the section table.
func (v *View) RVAToOffset(rva uint32) (int, error) {
	return v.r.rvaToOffset(rva)
}

// Buffer returns the original buffer this View was parsed from.
func (v *View) Buffer() []byte { return v.buf }
