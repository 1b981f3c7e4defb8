package pe

// Overlay returns the borrowed bytes appended past the end of the last
// structure the image format defines (headers, sections, and
// directories entirely outside the section table like the certificate
// table), if any. Installers and self-extracting archives commonly
// stash payload data here. Returns false if the image has no overlay.
func (v *View) Overlay() ([]byte, bool) {
	end := v.overlayStart()
	if end == 0 || end >= uint32(len(v.buf)) {
		return nil, false
	}
	return v.buf[end:], true
}

func (v *View) overlayStart() uint32 {
	furthest := extentOf(uint32(v.dos.AddressOfNewEXEHeader)+24, uint32(v.nt.FileHeader.SizeOfOptionalHeader), uint32(len(v.buf)), 0)

	for _, s := range v.r.sections {
		furthest = extentOf(s.PointerToRawData, s.SizeOfRawData, uint32(len(v.buf)), furthest)
	}

	for idx, dd := range v.nt.OptionalHeader.DataDirectory {
		if DataDirectoryType(idx) == DirCertificate {
			// addressed by file offset directly, not RVA
			furthest = extentOf(dd.VirtualAddress, dd.Size, uint32(len(v.buf)), furthest)
			continue
		}
		if dd.absent() {
			continue
		}
		off, err := v.r.rvaToOffset(dd.VirtualAddress)
		if err != nil {
			continue
		}
		furthest = extentOf(uint32(off), dd.Size, uint32(len(v.buf)), furthest)
	}

	return furthest
}

// extentOf returns whichever of offset+size or prevFurthest is larger,
// discarding any candidate whose extent would fall outside the buffer.
func extentOf(offset, size, bufLen, prevFurthest uint32) uint32 {
	sum := uint64(offset) + uint64(size)
	if sum > uint64(bufLen) {
		return prevFurthest
	}
	if uint32(sum) > prevFurthest {
		return uint32(sum)
	}
	return prevFurthest
}
