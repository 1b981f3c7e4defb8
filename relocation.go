package pe

// RelocationType identifies how a base relocation entry's target field
// should be patched when an image is loaded away from its preferred
// base. Only the commonly-seen subset of IMAGE_REL_BASED_* types have
// names here; the remainder pass through as their raw numeric value.
type RelocationType uint16

const (
	RelocAbsolute     RelocationType = 0
	RelocHigh         RelocationType = 1
	RelocLow          RelocationType = 2
	RelocHighLow      RelocationType = 3
	RelocHighAdj      RelocationType = 4
	RelocMipsJmpAddr  RelocationType = 5
	RelocThumbMov32   RelocationType = 7
	RelocRiscvHigh20  RelocationType = 5 // aliases MipsJmpAddr per IMAGE_REL_BASED_*, arch-dependent
	RelocMipsJmpAddr16 RelocationType = 9
	RelocDir64        RelocationType = 10
)

// Block is one page-granularity block of the base relocation table: a
// page RVA shared by every entry it contains.
type Block struct {
	PageRVA   uint32
	blockSize uint32
	r         *resolver
	entriesAt int
}

// Entry is a single relocation within a Block: a type and a byte offset
// from the block's PageRVA. EffectiveRVA folds the two together.
type Entry struct {
	Type   RelocationType
	Offset uint16
}

// BlockIter walks the base relocation directory's block chain.
type BlockIter struct {
	r      *resolver
	pos    int
	end    int
	failed error
}

const relocBlockHeaderSize = 8

// Relocations returns an iterator over the base relocation directory
// (DirBaseReloc). If the directory is absent, the iterator yields no
// blocks.
func (v *View) Relocations() (*BlockIter, error) {
	dd := v.DataDirectory(DirBaseReloc)
	if dd.absent() {
		return &BlockIter{}, nil
	}
	off, err := v.r.rvaToOffset(dd.VirtualAddress)
	if err != nil {
		return nil, err
	}
	return &BlockIter{r: &v.r, pos: off, end: off + int(dd.Size)}, nil
}

// Err reports the error, if any, that terminated iteration early.
func (it *BlockIter) Err() error { return it.failed }

// Next returns the next relocation block, or false at the end of the
// table or on error. A block with a zero PageRVA and zero size at the
// very end of the table (used as file-size padding by some linkers) is
// treated as end-of-table rather than an error.
func (it *BlockIter) Next() (Block, bool) {
	if it.failed != nil || it.pos >= it.end {
		return Block{}, false
	}

	c := newCursor(it.r.buf)
	if err := c.seek(it.pos); err != nil {
		it.failed = newErr(Truncated, "RelocationBlock", err)
		return Block{}, false
	}
	pageRVA, err := c.readU32()
	if err != nil {
		it.failed = newErr(Truncated, "RelocationBlock.PageRVA", err)
		return Block{}, false
	}
	blockSize, err := c.readU32()
	if err != nil {
		it.failed = newErr(Truncated, "RelocationBlock.BlockSize", err)
		return Block{}, false
	}

	if pageRVA == 0 && blockSize == 0 {
		it.pos = it.end
		return Block{}, false
	}
	if blockSize < relocBlockHeaderSize || it.pos+int(blockSize) > it.end {
		it.failed = newErr(Malformed, "RelocationBlock.BlockSize", nil)
		return Block{}, false
	}

	b := Block{
		PageRVA:   pageRVA,
		blockSize: blockSize,
		r:         it.r,
		entriesAt: it.pos + relocBlockHeaderSize,
	}
	it.pos += int(blockSize)
	return b, true
}

// EntryIter walks a block's fixed-width entries.
type EntryIter struct {
	r      *resolver
	pos    int
	end    int
	failed error
}

// Entries returns an iterator over this block's 16-bit typed entries.
func (b Block) Entries() *EntryIter {
	return &EntryIter{r: b.r, pos: b.entriesAt, end: b.entriesAt + int(b.blockSize) - relocBlockHeaderSize}
}

// Err reports the error, if any, that terminated iteration early.
func (it *EntryIter) Err() error { return it.failed }

// Next returns the next entry in the block, or false at the end of the
// block or on error.
func (it *EntryIter) Next() (Entry, bool) {
	if it.failed != nil || it.pos+2 > it.end {
		return Entry{}, false
	}
	c := newCursor(it.r.buf)
	if err := c.seek(it.pos); err != nil {
		it.failed = newErr(Truncated, "RelocationEntry", err)
		return Entry{}, false
	}
	raw, err := c.readU16()
	if err != nil {
		it.failed = newErr(Truncated, "RelocationEntry", err)
		return Entry{}, false
	}
	it.pos += 2

	return Entry{
		Type:   RelocationType(raw >> 12),
		Offset: raw & 0x0FFF,
	}, true
}

// EffectiveRVA returns the absolute RVA this entry patches, given the
// PageRVA of the block it belongs to.
func (e Entry) EffectiveRVA(pageRVA uint32) uint32 {
	return pageRVA + uint32(e.Offset)
}
