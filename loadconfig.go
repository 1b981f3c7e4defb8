package pe

// LoadConfigDirectory exposes the load configuration directory's
// leading, version-stable fields. The structure has grown many
// optional tail fields across Windows SDK revisions gated by Size; this
// reader stops at the prefix common to every version rather than
// attempting to track each revision's exact tail layout.
type LoadConfigDirectory struct {
	Size                          uint32
	TimeDateStamp                 uint32
	MajorVersion                  uint16
	MinorVersion                  uint16
	GlobalFlagsClear              uint32
	GlobalFlagsSet                uint32
	CriticalSectionDefaultTimeout uint32
	SecurityCookie                uint64
	SEHandlerTable                uint64
	SEHandlerCount                uint64
}

// LoadConfig returns the load configuration directory (DirLoadConfig),
// if present. Absent per the (0,0) sentinel like every other directory.
// A read that runs past the owning section's raw bounds anywhere before
// SecurityCookie (the decoded prefix through CriticalSectionDefaultTimeout
// and the skipped fields after it) is Truncated;
// SecurityCookie and the fields after it are best-effort and a short
// read there yields a partial record rather than an error, since older
// linkers emit a directory too small to carry them.
func (v *View) LoadConfig() (LoadConfigDirectory, bool, error) {
	dd := v.DataDirectory(DirLoadConfig)
	if dd.absent() {
		return LoadConfigDirectory{}, false, nil
	}

	c, err := v.r.cursorAt(dd.VirtualAddress)
	if err != nil {
		return LoadConfigDirectory{}, false, err
	}

	var l LoadConfigDirectory
	var e error
	rd32 := func(dst *uint32) {
		if e == nil {
			*dst, e = c.readU32()
		}
	}
	rd16 := func(dst *uint16) {
		if e == nil {
			*dst, e = c.readU16()
		}
	}

	rd32(&l.Size)
	rd32(&l.TimeDateStamp)
	rd16(&l.MajorVersion)
	rd16(&l.MinorVersion)
	rd32(&l.GlobalFlagsClear)
	rd32(&l.GlobalFlagsSet)
	rd32(&l.CriticalSectionDefaultTimeout)
	if e != nil {
		return LoadConfigDirectory{}, false, newErr(Truncated, "IMAGE_LOAD_CONFIG_DIRECTORY64", e)
	}

	// SecurityCookie and the fields following it sit at a fixed offset
	// once the two DeCommit fields (u64 each, on x64) and the fields
	// below are skipped; those fields are legacy/unused on modern images
	// and are not exposed here.
	if err := c.skip(8 + 8); err != nil {
		return LoadConfigDirectory{}, false, newErr(Truncated, "IMAGE_LOAD_CONFIG_DIRECTORY64", err)
	}
	if err := c.skip(8); err != nil { // LockPrefixTable
		return LoadConfigDirectory{}, false, newErr(Truncated, "IMAGE_LOAD_CONFIG_DIRECTORY64", err)
	}
	if err := c.skip(8); err != nil { // MaximumAllocationSize
		return LoadConfigDirectory{}, false, newErr(Truncated, "IMAGE_LOAD_CONFIG_DIRECTORY64", err)
	}
	if err := c.skip(8); err != nil { // VirtualMemoryThreshold
		return LoadConfigDirectory{}, false, newErr(Truncated, "IMAGE_LOAD_CONFIG_DIRECTORY64", err)
	}
	if err := c.skip(8); err != nil { // ProcessAffinityMask
		return LoadConfigDirectory{}, false, newErr(Truncated, "IMAGE_LOAD_CONFIG_DIRECTORY64", err)
	}
	if err := c.skip(4 + 2 + 2); err != nil { // ProcessHeapFlags, CSDVersion, DependentLoadFlags
		return LoadConfigDirectory{}, false, newErr(Truncated, "IMAGE_LOAD_CONFIG_DIRECTORY64", err)
	}
	if err := c.skip(8); err != nil { // EditList
		return LoadConfigDirectory{}, false, newErr(Truncated, "IMAGE_LOAD_CONFIG_DIRECTORY64", err)
	}

	l.SecurityCookie, e = c.readU64()
	if e == nil {
		l.SEHandlerTable, e = c.readU64()
	}
	if e == nil {
		l.SEHandlerCount, e = c.readU64()
	}
	if e != nil {
		// SecurityCookie and beyond are only guaranteed present when
		// Size covers them; a short but otherwise valid directory (an
		// older linker) is not an error, just a partial record.
		return l, true, nil
	}

	return l, true, nil
}
