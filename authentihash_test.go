package pe

import (
	"bytes"
	"testing"
)

func TestAuthentihashExcludesChecksumField(t *testing.T) {
	b := newImageBuilder()
	b.addSection(".text", 0x1000, make([]byte, 16))
	buf1 := b.build()
	buf2 := append([]byte(nil), buf1...)

	v1, err := Parse(buf1)
	if err != nil {
		t.Fatal(err)
	}
	h1, err := v1.AuthentihashSHA256()
	if err != nil {
		t.Fatal(err)
	}

	// Flip the checksum field; the digest must not change.
	optHdrOff := 0x40 + 4 + fileHeaderSize
	put32(buf2, optHdrOff+64, 0xFFFFFFFF)

	v2, err := Parse(buf2)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := v2.AuthentihashSHA256()
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(h1, h2) {
		t.Error("authentihash changed when only the checksum field changed")
	}
}

func TestAuthentihashChangesWithSectionData(t *testing.T) {
	b1 := newImageBuilder()
	b1.addSection(".text", 0x1000, []byte{0x01, 0x02, 0x03, 0x04})
	v1, err := Parse(b1.build())
	if err != nil {
		t.Fatal(err)
	}
	h1, err := v1.AuthentihashSHA256()
	if err != nil {
		t.Fatal(err)
	}

	b2 := newImageBuilder()
	b2.addSection(".text", 0x1000, []byte{0xAA, 0xBB, 0xCC, 0xDD})
	v2, err := Parse(b2.build())
	if err != nil {
		t.Fatal(err)
	}
	h2, err := v2.AuthentihashSHA256()
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Equal(h1, h2) {
		t.Error("authentihash did not change when section data changed")
	}
}
