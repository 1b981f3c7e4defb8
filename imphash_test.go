package pe

import "testing"

func TestImpHash(t *testing.T) {
	v, err := Parse(imageWithImports())
	if err != nil {
		t.Fatal(err)
	}
	h, err := v.ImpHash()
	if err != nil {
		t.Fatal(err)
	}
	if len(h) != 32 {
		t.Errorf("ImpHash() = %q, want 32 hex chars", h)
	}
}

func TestImpHashNoImportsIsAbsent(t *testing.T) {
	v, err := Parse(minimalImage())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := v.ImpHash(); !IsKind(err, Absent) {
		t.Errorf("err = %v, want Absent", err)
	}
}
