package pe

// ResourceEntry is one leaf or interior node of the resource directory
// tree. Interior nodes (Directory != nil) group by name or numeric ID;
// leaves carry the location of the raw resource payload but this reader
// does not interpret its contents, since resource data spans dozens of
// unrelated formats (icons, manifests, version info, raw blobs).
type ResourceEntry struct {
	Name      string // set when the entry is named
	ID        uint32 // set when the entry is identified by numeric ID
	Directory *ResourceDirectory
	DataRVA   uint32
	DataSize  uint32
}

// ResourceDirectory is one level of the resource tree.
type ResourceDirectory struct {
	Entries []ResourceEntry
}

const resourceDirectoryHeaderSize = 16
const resourceDirectoryEntrySize = 8

// Resources parses the resource directory tree (DirResource) into an
// in-memory ResourceDirectory. Unlike the other directories this one is
// eagerly materialized rather than iterated, since callers of a
// resource tree overwhelmingly want to walk it more than once (to find
// a specific type/name/language triple).
func (v *View) Resources() (*ResourceDirectory, error) {
	dd := v.DataDirectory(DirResource)
	if dd.absent() {
		return nil, nil
	}
	return v.parseResourceDirectory(dd.VirtualAddress, dd.VirtualAddress, map[uint32]bool{})
}

func (v *View) parseResourceDirectory(rva, baseRVA uint32, visited map[uint32]bool) (*ResourceDirectory, error) {
	if visited[rva] {
		return nil, newErr(Malformed, "ResourceDirectory", nil)
	}
	visited[rva] = true

	c, err := v.r.cursorAt(rva)
	if err != nil {
		return nil, err
	}
	if err := c.skip(4 + 4 + 2 + 2); err != nil { // Characteristics, TimeDateStamp, Major/MinorVersion
		return nil, newErr(Truncated, "IMAGE_RESOURCE_DIRECTORY", err)
	}
	numNamed, err := c.readU16()
	if err != nil {
		return nil, newErr(Truncated, "IMAGE_RESOURCE_DIRECTORY.NumberOfNamedEntries", err)
	}
	numID, err := c.readU16()
	if err != nil {
		return nil, newErr(Truncated, "IMAGE_RESOURCE_DIRECTORY.NumberOfIdEntries", err)
	}

	total := int(numNamed) + int(numID)
	if total > maxAllowedResourceEntries {
		return nil, newErr(Malformed, "IMAGE_RESOURCE_DIRECTORY", nil)
	}

	dir := &ResourceDirectory{}
	entryRVA := rva + resourceDirectoryHeaderSize

	for i := 0; i < total; i++ {
		ec, err := v.r.cursorAt(entryRVA)
		if err != nil {
			return nil, err
		}
		nameField, err := ec.readU32()
		if err != nil {
			return nil, newErr(Truncated, "IMAGE_RESOURCE_DIRECTORY_ENTRY.Name", err)
		}
		offsetField, err := ec.readU32()
		if err != nil {
			return nil, newErr(Truncated, "IMAGE_RESOURCE_DIRECTORY_ENTRY.OffsetToData", err)
		}
		entryRVA += resourceDirectoryEntrySize

		var e ResourceEntry
		if nameField&0x80000000 != 0 {
			nameOff := baseRVA + (nameField &^ 0x80000000)
			nc, err := v.r.cursorAt(nameOff)
			if err != nil {
				return nil, err
			}
			length, err := nc.readU16()
			if err != nil {
				return nil, newErr(Truncated, "resource name", err)
			}
			raw, err := nc.readSlice(int(length) * 2)
			if err != nil {
				return nil, newErr(Truncated, "resource name", err)
			}
			e.Name = utf16LEToString(raw)
		} else {
			e.ID = nameField
		}

		if offsetField&0x80000000 != 0 {
			subRVA := baseRVA + (offsetField &^ 0x80000000)
			child, err := v.parseResourceDirectory(subRVA, baseRVA, visited)
			if err != nil {
				return nil, err
			}
			e.Directory = child
		} else {
			dataRVA := baseRVA + offsetField
			dc, err := v.r.cursorAt(dataRVA)
			if err != nil {
				return nil, err
			}
			payloadRVA, err := dc.readU32()
			if err != nil {
				return nil, newErr(Truncated, "IMAGE_RESOURCE_DATA_ENTRY", err)
			}
			size, err := dc.readU32()
			if err != nil {
				return nil, newErr(Truncated, "IMAGE_RESOURCE_DATA_ENTRY", err)
			}
			e.DataRVA = payloadRVA
			e.DataSize = size
		}

		dir.Entries = append(dir.Entries, e)
	}

	return dir, nil
}

// utf16LEToString decodes a UTF-16LE resource name without importing
// unicode/utf16 for what is, in practice, almost always plain ASCII
// text: surrogate pairs are passed through as their raw code units
// rather than combined, since resource names never legitimately need
// characters outside the BMP.
func utf16LEToString(b []byte) string {
	runes := make([]rune, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u := uint16(b[i]) | uint16(b[i+1])<<8
		runes = append(runes, rune(u))
	}
	return string(runes)
}
