package pe

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"math"
)

// SectionHeader is one entry of the section table.
type SectionHeader struct {
	Name                 string
	VirtualSize          uint32
	VirtualAddress       uint32
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLineNumbers uint32
	NumberOfRelocations  uint16
	NumberOfLineNumbers  uint16
	Characteristics      uint32
}

const sectionHeaderSize = 40

// rvaSpan returns [start, end) of this section's RVA range, using
// max(virtual_size, size_of_raw_data): some linkers under-report
// VirtualSize relative to the raw data actually mapped for the section.
func (s SectionHeader) rvaSpan() (start, end uint32) {
	sz := s.VirtualSize
	if s.SizeOfRawData > sz {
		sz = s.SizeOfRawData
	}
	return s.VirtualAddress, s.VirtualAddress + sz
}

func (s SectionHeader) fileSpan() (start, end uint32) {
	return s.PointerToRawData, s.PointerToRawData + s.SizeOfRawData
}

func (s SectionHeader) containsRVA(rva uint32) bool {
	start, end := s.rvaSpan()
	return rva >= start && rva < end
}

// Flags renders the read/write/execute characteristics as a short string,
// e.g. "rx" or "rw".
func (s SectionHeader) Flags() (flags string) {
	if s.Characteristics&sectionMemRead != 0 {
		flags += "r"
	}
	if s.Characteristics&sectionMemWrite != 0 {
		flags += "w"
	}
	if s.Characteristics&sectionMemExecute != 0 {
		flags += "x"
	}
	return flags
}

// Section pairs a SectionHeader with a borrowed view of its raw file data.
type Section struct {
	SectionHeader
	data []byte // borrowed sub-slice of the image buffer; may be empty
}

// Data returns the section's raw file data as a borrowed slice.
func (s Section) Data() []byte { return s.data }

// MD5 hashes the section's raw data without copying it.
func (s Section) MD5() string {
	h := md5.New()
	h.Write(s.data)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Entropy computes the Shannon entropy (bits per byte) of the section's
// raw data.
func (s Section) Entropy() float64 {
	var e entropyCalculator
	e.Write(s.data)
	return e.Sum()
}

// entropyCalculator implements io.Writer, accumulating a byte-frequency
// histogram without retaining the written bytes themselves.
type entropyCalculator struct {
	size        int
	frequencies [256]uint64
}

var _ interface {
	Write([]byte) (int, error)
} = (*entropyCalculator)(nil)

func (e *entropyCalculator) Write(p []byte) (int, error) {
	e.size += len(p)
	for _, b := range p {
		e.frequencies[b]++
	}
	return len(p), nil
}

func (e *entropyCalculator) Sum() float64 {
	if e.size == 0 {
		return 0
	}
	var entropy float64
	for _, n := range e.frequencies {
		if n == 0 {
			continue
		}
		freq := float64(n) / float64(e.size)
		entropy -= freq * math.Log2(freq)
	}
	return entropy
}

func parseSectionTable(buf []byte, off int, count uint16) ([]Section, error) {
	sections := make([]Section, 0, count)
	c := newCursor(buf)
	if err := c.seek(off); err != nil {
		return nil, newErr(Truncated, "section table", err)
	}

	for i := uint16(0); i < count; i++ {
		raw, err := c.readSlice(sectionHeaderSize)
		if err != nil {
			return nil, newErr(Truncated, "SectionHeader", err)
		}

		nameRaw := raw[0:8]
		name := string(bytes.TrimRight(nameRaw, "\x00"))

		sc := newCursor(raw[8:])
		var sh SectionHeader
		sh.Name = name
		sh.VirtualSize, _ = sc.readU32()
		sh.VirtualAddress, _ = sc.readU32()
		sh.SizeOfRawData, _ = sc.readU32()
		sh.PointerToRawData, _ = sc.readU32()
		sh.PointerToRelocations, _ = sc.readU32()
		sh.PointerToLineNumbers, _ = sc.readU32()
		sh.NumberOfRelocations, _ = sc.readU16()
		sh.NumberOfLineNumbers, _ = sc.readU16()
		sh.Characteristics, _ = sc.readU32()

		var data []byte
		if sh.SizeOfRawData > 0 {
			start, end := sh.fileSpan()
			if int(end) > len(buf) || start > end {
				return nil, newErr(BadRva, "SectionHeader.PointerToRawData", nil)
			}
			data = buf[start:end]
		}

		sections = append(sections, Section{SectionHeader: sh, data: data})
	}

	return sections, nil
}
