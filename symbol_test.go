package pe

import "testing"

func imageWithSymbols() []byte {
	b := newImageBuilder()
	b.addSection(".text", 0x1000, make([]byte, 16))
	buf := b.build()

	symOff := len(buf)

	sym1 := make([]byte, coffSymbolSize)
	copy(sym1[0:8], "_main")
	put32(sym1, 8, 0x1000)
	put16(sym1, 12, 1)
	put16(sym1, 14, 0x20)
	sym1[16] = 2 // StorageClass
	sym1[17] = 0 // NumberOfAuxSymbols

	sym2 := make([]byte, coffSymbolSize)
	// First 4 bytes zero marks a string-table-offset name.
	put32(sym2, 4, 4) // offset 4 = body position 0
	put32(sym2, 8, 0x2000)
	put16(sym2, 12, 1)
	put16(sym2, 14, 0x20)
	sym2[16] = 2
	sym2[17] = 0

	buf = append(buf, sym1...)
	buf = append(buf, sym2...)

	body := []byte("VeryLongSymbolName\x00")
	strTab := make([]byte, 4+len(body))
	put32(strTab, 0, uint32(len(strTab)))
	copy(strTab[4:], body)
	buf = append(buf, strTab...)

	const fileHdrOff = 0x40 + 4
	put32(buf, fileHdrOff+8, uint32(symOff))
	put32(buf, fileHdrOff+12, 2)

	return buf
}

func TestSymbolsIteration(t *testing.T) {
	v, err := Parse(imageWithSymbols())
	if err != nil {
		t.Fatal(err)
	}

	it, err := v.Symbols()
	if err != nil {
		t.Fatal(err)
	}

	s1, ok := it.Next()
	if !ok {
		t.Fatalf("expected symbol 1, err: %v", it.Err())
	}
	if string(s1.Name) != "_main" || s1.Value != 0x1000 {
		t.Errorf("s1 = %+v", s1)
	}

	s2, ok := it.Next()
	if !ok {
		t.Fatalf("expected symbol 2, err: %v", it.Err())
	}
	if string(s2.Name) != "VeryLongSymbolName" || s2.Value != 0x2000 {
		t.Errorf("s2 = %+v", s2)
	}

	if _, ok := it.Next(); ok {
		t.Error("expected exactly two symbols")
	}
}

// TestSymbolsTruncatedTable declares one more symbol than the file
// actually backs, so the second read runs off the end of the buffer.
func TestSymbolsTruncatedTable(t *testing.T) {
	b := newImageBuilder()
	b.addSection(".text", 0x1000, make([]byte, 16))
	buf := b.build()

	symOff := len(buf)
	sym1 := make([]byte, coffSymbolSize)
	copy(sym1[0:8], "_main")
	put32(sym1, 8, 0x1000)
	sym1[16] = 2 // StorageClass
	sym1[17] = 0 // NumberOfAuxSymbols
	buf = append(buf, sym1...)
	buf = append(buf, 0, 0, 0, 0) // empty string table: length prefix only, no body

	const fileHdrOff = 0x40 + 4
	put32(buf, fileHdrOff+8, uint32(symOff))
	put32(buf, fileHdrOff+12, 2) // NumberOfSymbols: one more than physically present

	v, err := Parse(buf)
	if err != nil {
		t.Fatal(err)
	}
	it, err := v.Symbols()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := it.Next(); !ok {
		t.Fatalf("expected symbol 1, err: %v", it.Err())
	}
	if _, ok := it.Next(); ok {
		t.Fatal("expected second symbol read to fail")
	}
	if !IsKind(it.Err(), Truncated) {
		t.Fatalf("err = %v, want Truncated", it.Err())
	}
}

func TestSymbolsAbsentTable(t *testing.T) {
	v, err := Parse(minimalImage())
	if err != nil {
		t.Fatal(err)
	}
	it, err := v.Symbols()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := it.Next(); ok {
		t.Error("expected no symbols")
	}
}
