package pe

import "testing"

func TestSectionFlags(t *testing.T) {
	s := SectionHeader{Characteristics: sectionMemRead | sectionMemExecute}
	if got := s.Flags(); got != "rx" {
		t.Errorf("Flags() = %q, want %q", got, "rx")
	}
}

func TestSectionEntropyOfZeroedDataIsZero(t *testing.T) {
	sec := Section{data: make([]byte, 256)}
	if e := sec.Entropy(); e != 0 {
		t.Errorf("Entropy() = %v, want 0", e)
	}
}

func TestSectionEntropyOfUniformBytesIsMaximal(t *testing.T) {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}
	sec := Section{data: data}
	e := sec.Entropy()
	if e < 7.99 || e > 8.0 {
		t.Errorf("Entropy() = %v, want ~8.0", e)
	}
}

func TestSectionMD5(t *testing.T) {
	sec := Section{data: []byte("abc")}
	if got := sec.MD5(); got != "900150983cd24fb0d6963f7d28e17f72" {
		t.Errorf("MD5() = %q", got)
	}
}

func TestContainsRVA(t *testing.T) {
	sh := SectionHeader{VirtualAddress: 0x1000, VirtualSize: 0x50, SizeOfRawData: 0x200}
	if !sh.containsRVA(0x1000) {
		t.Error("expected 0x1000 to be contained (span start)")
	}
	if !sh.containsRVA(0x11FF) {
		t.Error("expected 0x11FF to be contained (uses max(vsize, rawsize))")
	}
	if sh.containsRVA(0x1200) {
		t.Error("did not expect 0x1200 to be contained")
	}
}
