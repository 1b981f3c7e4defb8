package pe

// Import is a single entry of a module's import address table, either
// bound by name (with an import-table hint) or by ordinal. Exactly one
// of the two accessors is meaningful; callers distinguish them with
// IsOrdinal.
type Import struct {
	ordinal bool
	ord     uint16
	hint    uint16
	name    []byte
}

// IsOrdinal reports whether this import was bound by ordinal rather than
// by name.
func (i Import) IsOrdinal() bool { return i.ordinal }

// Ordinal returns the bound ordinal. Valid only when IsOrdinal is true.
func (i Import) Ordinal() uint16 { return i.ord }

// Name returns the borrowed import name. Valid only when IsOrdinal is
// false.
func (i Import) Name() []byte { return i.name }

// Hint returns the import name table hint. Valid only when IsOrdinal is
// false.
func (i Import) Hint() uint16 { return i.hint }

// Module is one entry of the import directory: a DLL name paired with
// its bound-function thunk chain.
type Module struct {
	Name          []byte
	TimeDateStamp uint32
	firstThunkRVA uint32
	lookupRVA     uint32
	r             *resolver
}

const importDescriptorSize = 20      // 5 x uint32
const delayImportDescriptorSize = 32 // 8 x uint32

// ModuleIter walks the import directory's module descriptor chain,
// terminated by an all-zero descriptor. It never panics: a malformed
// chain that runs off the end of the buffer surfaces as an error from
// Next rather than as a partial or incorrect module list.
type ModuleIter struct {
	r      *resolver
	pos    int
	end    int
	delay  bool
	done   bool
	failed error
}

// Imports returns an iterator over the ordinary import directory
// (DirImport). If the directory is absent, the returned iterator yields
// no modules and no error.
func (v *View) Imports() (*ModuleIter, error) {
	return v.moduleIter(DirImport, false)
}

// DelayImports returns an iterator over the delay-load import directory
// (DirDelayImport). The delay-load descriptor (IMAGE_DELAYLOAD_DESCRIPTOR)
// is a different, larger layout than the ordinary import descriptor, but
// its name table and address table RVAs point at the same IMAGE_THUNK_DATA
// chain shape, so Module/ImportIter are shared between the two.
func (v *View) DelayImports() (*ModuleIter, error) {
	return v.moduleIter(DirDelayImport, true)
}

func (v *View) moduleIter(t DataDirectoryType, delay bool) (*ModuleIter, error) {
	dd := v.DataDirectory(t)
	if dd.absent() {
		return &ModuleIter{done: true}, nil
	}
	off, end, err := v.r.resolve(dd.VirtualAddress)
	if err != nil {
		return nil, err
	}
	return &ModuleIter{r: &v.r, pos: off, end: end, delay: delay}, nil
}

// Next returns the next module in the chain, or false once the
// terminating all-zero descriptor is reached or an error occurs. Once
// Next returns false, Err reports whether it was due to an error.
func (it *ModuleIter) Next() (Module, bool) {
	if it.done {
		return Module{}, false
	}
	if it.delay {
		return it.nextDelay()
	}

	c := newCursor(it.r.buf[:it.end])
	if err := c.seek(it.pos); err != nil {
		it.fail(newErr(BadRva, "ImportDescriptor", err))
		return Module{}, false
	}

	raw, err := c.readSlice(importDescriptorSize)
	if err != nil {
		it.fail(newErr(BadRva, "ImportDescriptor", err))
		return Module{}, false
	}
	it.pos += importDescriptorSize

	rc := newCursor(raw)
	lookupRVA, _ := rc.readU32()
	timeDateStamp, _ := rc.readU32()
	_, _ = rc.readU32() // ForwarderChain, unused
	nameRVA, _ := rc.readU32()
	firstThunkRVA, _ := rc.readU32()

	if lookupRVA == 0 && timeDateStamp == 0 && nameRVA == 0 && firstThunkRVA == 0 {
		it.done = true
		return Module{}, false
	}

	name, err := it.r.cString(nameRVA)
	if err != nil {
		it.fail(err)
		return Module{}, false
	}

	// A zero lookup-table RVA falls back to the import address table for
	// the (pre-bound) thunk chain, matching how the Windows loader
	// resolves it.
	thunkRVA := lookupRVA
	if thunkRVA == 0 {
		thunkRVA = firstThunkRVA
	}

	m := Module{
		Name:          name,
		TimeDateStamp: timeDateStamp,
		firstThunkRVA: firstThunkRVA,
		lookupRVA:     thunkRVA,
		r:             it.r,
	}
	return m, true
}

// nextDelay reads one IMAGE_DELAYLOAD_DESCRIPTOR: Attributes, DllNameRVA,
// ModuleHandleRVA, ImportAddressTableRVA, ImportNameTableRVA,
// BoundImportAddressTableRVA, UnloadInformationTableRVA, TimeDateStamp.
// Only the fields needed to walk the name/address thunk chain are kept.
func (it *ModuleIter) nextDelay() (Module, bool) {
	c := newCursor(it.r.buf[:it.end])
	if err := c.seek(it.pos); err != nil {
		it.fail(newErr(BadRva, "DelayImportDescriptor", err))
		return Module{}, false
	}

	raw, err := c.readSlice(delayImportDescriptorSize)
	if err != nil {
		it.fail(newErr(BadRva, "DelayImportDescriptor", err))
		return Module{}, false
	}
	it.pos += delayImportDescriptorSize

	rc := newCursor(raw)
	attributes, _ := rc.readU32()
	nameRVA, _ := rc.readU32()
	_, _ = rc.readU32() // ModuleHandleRVA, unused
	iatRVA, _ := rc.readU32()
	intRVA, _ := rc.readU32()
	_, _ = rc.readU32() // BoundImportAddressTableRVA, unused
	_, _ = rc.readU32() // UnloadInformationTableRVA, unused
	timeDateStamp, _ := rc.readU32()

	if attributes == 0 && nameRVA == 0 && iatRVA == 0 && intRVA == 0 {
		it.done = true
		return Module{}, false
	}

	name, err := it.r.cString(nameRVA)
	if err != nil {
		it.fail(err)
		return Module{}, false
	}

	thunkRVA := intRVA
	if thunkRVA == 0 {
		thunkRVA = iatRVA
	}

	m := Module{
		Name:          name,
		TimeDateStamp: timeDateStamp,
		firstThunkRVA: iatRVA,
		lookupRVA:     thunkRVA,
		r:             it.r,
	}
	return m, true
}

// Err reports the error, if any, that terminated iteration early.
func (it *ModuleIter) Err() error { return it.failed }

func (it *ModuleIter) fail(err error) {
	it.done = true
	it.failed = err
}

// ImportIter walks a module's thunk chain, terminated by a zero thunk.
type ImportIter struct {
	r      *resolver
	pos    int
	end    int
	done   bool
	failed error
}

// Imports returns an iterator over this module's bound functions.
func (m Module) Imports() *ImportIter {
	off, end, err := m.r.resolve(m.lookupRVA)
	if err != nil {
		return &ImportIter{failed: err, done: true}
	}
	return &ImportIter{r: m.r, pos: off, end: end}
}

// Err reports the error, if any, that terminated iteration early.
func (it *ImportIter) Err() error { return it.failed }

// Next returns the next bound import, or false at the end of the chain
// or on error.
func (it *ImportIter) Next() (Import, bool) {
	if it.done {
		return Import{}, false
	}

	c := newCursor(it.r.buf[:it.end])
	if err := c.seek(it.pos); err != nil {
		it.fail(newErr(BadRva, "ThunkData", err))
		return Import{}, false
	}
	thunk, err := c.readU64()
	if err != nil {
		it.fail(newErr(BadRva, "ThunkData", err))
		return Import{}, false
	}
	it.pos += 8

	if thunk == 0 {
		it.done = true
		return Import{}, false
	}

	if thunk&imageOrdinalFlag64 != 0 {
		return Import{ordinal: true, ord: uint16(thunk & 0xFFFF)}, true
	}

	rva := uint32(thunk & 0x7FFFFFFF)
	hc, err := it.r.cursorAt(rva)
	if err != nil {
		it.fail(err)
		return Import{}, false
	}
	hint, err := hc.readU16()
	if err != nil {
		it.fail(newErr(BadRva, "IMAGE_IMPORT_BY_NAME.Hint", err))
		return Import{}, false
	}
	name, err := hc.readCString()
	if err != nil {
		it.fail(newErr(BadRva, "IMAGE_IMPORT_BY_NAME.Name", err))
		return Import{}, false
	}

	return Import{ordinal: false, hint: hint, name: name}, true
}

func (it *ImportIter) fail(err error) {
	it.done = true
	it.failed = err
}
