package pe

import "testing"

func TestTLSDirectoryAndCallbacks(t *testing.T) {
	b := newImageBuilder()
	b.addSection(".text", 0x1000, make([]byte, 16))

	const callbacksVA = 0x2100
	data := make([]byte, 0x200)
	put64(data, 0, testImageBase+0x1000)  // StartAddressOfRawData
	put64(data, 8, testImageBase+0x1100)  // EndAddressOfRawData
	put64(data, 16, testImageBase+0x3000) // AddressOfIndex
	put64(data, 24, testImageBase+uint64(callbacksVA-0x2000)) // AddressOfCallBacks, patched below
	put32(data, 32, 0) // SizeOfZeroFill
	put32(data, 36, 0) // Characteristics

	cbOff := callbacksVA - 0x2000
	put64(data, cbOff, testImageBase+0x1200)
	put64(data, cbOff+8, testImageBase+0x1210)
	put64(data, cbOff+16, 0)
	put64(data, 24, testImageBase+uint64(callbacksVA))

	b.addSection(".tls", 0x2000, data)
	b.setDir(DirTLS, 0x2000, 40)

	v, err := Parse(b.build())
	if err != nil {
		t.Fatal(err)
	}

	tls, ok, err := v.TLS()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected TLS directory present")
	}
	if tls.SizeOfZeroFill != 0 {
		t.Errorf("SizeOfZeroFill = %d", tls.SizeOfZeroFill)
	}

	ci, err := tls.Callbacks()
	if err != nil {
		t.Fatal(err)
	}
	cb1, ok := ci.Next()
	if !ok || cb1 != testImageBase+0x1200 {
		t.Errorf("cb1 = %#x, ok=%v", cb1, ok)
	}
	cb2, ok := ci.Next()
	if !ok || cb2 != testImageBase+0x1210 {
		t.Errorf("cb2 = %#x, ok=%v", cb2, ok)
	}
	if _, ok := ci.Next(); ok {
		t.Error("expected end of callback array")
	}
}

// TestTLSCallbacksRunPastSectionBounds shrinks the .tls section's
// declared raw span to end right after a single callback entry, so
// reading the next (would-be) slot runs past the section rather than
// into its zero padding.
func TestTLSCallbacksRunPastSectionBounds(t *testing.T) {
	b := newImageBuilder()
	b.addSection(".text", 0x1000, make([]byte, 16))

	const callbacksVA = 0x2040
	data := make([]byte, 0x200)
	put64(data, 0, testImageBase+0x1000)  // StartAddressOfRawData
	put64(data, 8, testImageBase+0x1100)  // EndAddressOfRawData
	put64(data, 16, testImageBase+0x3000) // AddressOfIndex
	put64(data, 24, testImageBase+uint64(callbacksVA))
	put32(data, 32, 0) // SizeOfZeroFill
	put32(data, 36, 0) // Characteristics

	cbOff := callbacksVA - 0x2000
	put64(data, cbOff, testImageBase+0x1200) // one valid callback, no room for a terminator

	b.addSection(".tls", 0x2000, data)
	b.setDir(DirTLS, 0x2000, 40)
	buf := b.build()

	hdrOff := b.sectionHeaderOffset(1)
	put32(buf, hdrOff+16, uint32(cbOff+8)) // SizeOfRawData: ends right after the one callback

	v, err := Parse(buf)
	if err != nil {
		t.Fatal(err)
	}
	tls, ok, err := v.TLS()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected TLS directory present")
	}

	ci, err := tls.Callbacks()
	if err != nil {
		t.Fatal(err)
	}
	cb1, ok := ci.Next()
	if !ok || cb1 != testImageBase+0x1200 {
		t.Fatalf("cb1 = %#x, ok=%v", cb1, ok)
	}
	if _, ok := ci.Next(); ok {
		t.Fatal("expected second callback read to fail")
	}
	if !IsKind(ci.Err(), BadRva) {
		t.Fatalf("err = %v, want BadRva", ci.Err())
	}
}

func TestTLSAbsentDirectory(t *testing.T) {
	v, err := Parse(minimalImage())
	if err != nil {
		t.Fatal(err)
	}
	_, ok, err := v.TLS()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected no TLS directory")
	}
}
