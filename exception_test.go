package pe

import "testing"

func TestExceptionIteration(t *testing.T) {
	b := newImageBuilder()
	b.addSection(".text", 0x1000, make([]byte, 0x100))

	data := make([]byte, runtimeFunctionSize*2)
	put32(data, 0, 0x1000)
	put32(data, 4, 0x1050)
	put32(data, 8, 0x3000)
	put32(data, 12, 0x1050)
	put32(data, 16, 0x1080)
	put32(data, 20, 0x3010)

	b.addSection(".pdata", 0x2000, data)
	b.setDir(DirException, 0x2000, uint32(len(data)))

	v, err := Parse(b.build())
	if err != nil {
		t.Fatal(err)
	}

	it, err := v.Exceptions()
	if err != nil {
		t.Fatal(err)
	}

	rf1, ok := it.Next()
	if !ok || rf1.BeginAddress != 0x1000 || rf1.EndAddress != 0x1050 {
		t.Errorf("rf1 = %+v, ok=%v", rf1, ok)
	}
	rf2, ok := it.Next()
	if !ok || rf2.BeginAddress != 0x1050 || rf2.UnwindInfoRVA != 0x3010 {
		t.Errorf("rf2 = %+v, ok=%v", rf2, ok)
	}
	if _, ok := it.Next(); ok {
		t.Error("expected exactly two entries")
	}
}

// TestExceptionTruncatedEntry declares an exception directory Size
// covering one full RUNTIME_FUNCTION entry while the section physically
// backing it is smaller, exercising the mid-chain Truncated path.
func TestExceptionTruncatedEntry(t *testing.T) {
	b := newImageBuilder()
	b.addSection(".text", 0x1000, make([]byte, 0x100))
	b.addSection(".pdata", 0x2000, make([]byte, 4))
	b.setDir(DirException, 0x2000, runtimeFunctionSize)
	buf := b.build()

	hdrOff := b.sectionHeaderOffset(1)
	pdataOff := int(get32(buf, hdrOff+20))
	buf = buf[:pdataOff+4] // far short of one full RUNTIME_FUNCTION entry
	put32(buf, hdrOff+16, 4) // SizeOfRawData: shrunk to match the truncated file

	v, err := Parse(buf)
	if err != nil {
		t.Fatal(err)
	}
	it, err := v.Exceptions()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := it.Next(); ok {
		t.Fatal("expected exception iteration to fail")
	}
	if !IsKind(it.Err(), Truncated) {
		t.Fatalf("err = %v, want Truncated", it.Err())
	}
}

func TestExceptionAbsentDirectory(t *testing.T) {
	v, err := Parse(minimalImage())
	if err != nil {
		t.Fatal(err)
	}
	it, err := v.Exceptions()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := it.Next(); ok {
		t.Error("expected no entries")
	}
}
