package pe

import "testing"

func minimalImage() []byte {
	b := newImageBuilder()
	b.addSection(".text", 0x1000, make([]byte, 16))
	return b.build()
}

func TestParseValidImage(t *testing.T) {
	buf := minimalImage()
	v, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v.FileHeader().Machine != 0x8664 {
		t.Errorf("Machine = %#x, want 0x8664", v.FileHeader().Machine)
	}
	if got := len(v.Sections()); got != 1 {
		t.Fatalf("len(Sections()) = %d, want 1", got)
	}
	if v.OptionalHeader().Magic != imageOptHdr64Magic {
		t.Errorf("Magic = %#x, want %#x", v.OptionalHeader().Magic, imageOptHdr64Magic)
	}
}

func TestParseRejectsBadDosMagic(t *testing.T) {
	buf := minimalImage()
	buf[0] = 'X'
	_, err := Parse(buf)
	if !IsKind(err, BadDosMagic) {
		t.Fatalf("err = %v, want BadDosMagic", err)
	}
}

func TestParseRejectsBadPeMagic(t *testing.T) {
	buf := minimalImage()
	put32(buf, 0x40, 0xDEADBEEF)
	_, err := Parse(buf)
	if !IsKind(err, BadPeMagic) {
		t.Fatalf("err = %v, want BadPeMagic", err)
	}
}

func TestParseRejectsPE32Magic(t *testing.T) {
	buf := minimalImage()
	put16(buf, 0x40+4+fileHeaderSize, imageOptHdr32Magic)
	_, err := Parse(buf)
	if !IsKind(err, UnsupportedMagic) {
		t.Fatalf("err = %v, want UnsupportedMagic", err)
	}
}

func TestParseRejectsTruncatedBuffer(t *testing.T) {
	buf := minimalImage()
	_, err := Parse(buf[:100])
	if !IsKind(err, Truncated) {
		t.Fatalf("err = %v, want Truncated", err)
	}
}

func TestParseRejectsTooManySections(t *testing.T) {
	buf := minimalImage()
	put16(buf, 0x40+4+2, maxNumberOfSections+1)
	_, err := Parse(buf)
	if !IsKind(err, Malformed) {
		t.Fatalf("err = %v, want Malformed", err)
	}
}

func TestSectionByName(t *testing.T) {
	v, err := Parse(minimalImage())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := v.SectionByName(".text"); !ok {
		t.Fatal("expected .text section")
	}
	if _, ok := v.SectionByName(".bogus"); ok {
		t.Fatal("did not expect .bogus section")
	}
}

func TestAbsentDirectoryIsZeroSentinel(t *testing.T) {
	v, err := Parse(minimalImage())
	if err != nil {
		t.Fatal(err)
	}
	for i := DataDirectoryType(0); i < numDataDirectories; i++ {
		if !v.Absent(i) {
			t.Errorf("directory %d expected absent on minimal image", i)
		}
	}
}

func TestRVAToOffsetOutsideAnySectionIsBadRva(t *testing.T) {
	v, err := Parse(minimalImage())
	if err != nil {
		t.Fatal(err)
	}
	_, err = v.RVAToOffset(0xFFFFFF)
	if !IsKind(err, BadRva) {
		t.Fatalf("err = %v, want BadRva", err)
	}
}
