package pe

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"fmt"
)

// RichHeader is the undocumented "Rich" stub the Microsoft linker
// embeds in the DOS stub region, recording the toolset (compiler,
// linker, ...) that produced each object file linked into the image.
// It has no bearing on loading and is present only as forensic
// metadata; a well-formed image without one (e.g. not built by MSVC)
// simply has no RichHeader.
type RichHeader struct {
	XorKey     uint32
	CompIDs    []CompID
	dansOffset int
	raw        []byte
}

// CompID is one decoded @comp.id entry: the tool that contributed
// object code, and how many times it did so.
type CompID struct {
	MinorCV  uint16
	ProdID   uint16
	Count    uint32
	unmasked uint32
}

// RichHeader locates and decodes the Rich header from the DOS stub
// region, if present. The XOR key and "DanS" sentinel search follow the
// documented reverse-engineering of the format: scan backward from
// "Rich" for a 4-byte window that XORs to "DanS".
func (v *View) RichHeader() (RichHeader, bool, error) {
	var rh RichHeader

	lfanew := int(v.dos.AddressOfNewEXEHeader)
	if lfanew > len(v.buf) {
		return rh, false, newErr(BadRva, "RichHeader", nil)
	}
	stub := v.buf[:lfanew]

	richOff := bytes.Index(stub, []byte(richSignature))
	if richOff < 0 {
		return rh, false, nil
	}

	c := newCursor(stub)
	if err := c.seek(richOff + 4); err != nil {
		return rh, false, newErr(Truncated, "RichHeader.XorKey", err)
	}
	xorKey, err := c.readU32()
	if err != nil {
		return rh, false, newErr(Truncated, "RichHeader.XorKey", err)
	}
	rh.XorKey = xorKey

	var decoded []uint32
	dansOffset := -1
	for pos := richOff - 4; pos >= 0; pos -= 4 {
		dc := newCursor(stub)
		if err := dc.seek(pos); err != nil {
			break
		}
		word, err := dc.readU32()
		if err != nil {
			break
		}
		clear := word ^ xorKey
		if clear == dansSignature {
			dansOffset = pos
			break
		}
		decoded = append(decoded, clear)
	}
	if dansOffset == -1 {
		return rh, false, nil
	}
	rh.dansOffset = dansOffset
	rh.raw = stub[dansOffset : richOff+8]

	for i, j := 0, len(decoded)-1; i < j; i, j = i+1, j-1 {
		decoded[i], decoded[j] = decoded[j], decoded[i]
	}

	n := len(decoded)
	if (n-3)%2 != 0 {
		n--
	}
	for i := 3; i+1 < n; i += 2 {
		lo, hi := decoded[i], decoded[i+1]
		rh.CompIDs = append(rh.CompIDs, CompID{
			MinorCV:  uint16(lo),
			ProdID:   uint16(lo >> 16),
			Count:    hi,
			unmasked: lo,
		})
	}

	return rh, true, nil
}

// Checksum recomputes the linker's own Rich header checksum, which
// should equal the value stored immediately after "DanS" for a well
// formed header.
func (rh RichHeader) Checksum(v *View) uint32 {
	checksum := uint32(rh.dansOffset)

	for i := 0; i < rh.dansOffset; i++ {
		if i >= 0x3C && i < 0x40 { // skip e_lfanew
			continue
		}
		if i >= len(v.buf) {
			return 0
		}
		b := uint32(v.buf[i])
		checksum += (b << (uint(i) % 32)) | (b >> (32 - (uint(i) % 32)))
		checksum &= 0xFFFFFFFF
	}

	for _, cid := range rh.CompIDs {
		checksum += cid.unmasked<<(cid.Count%32) | cid.unmasked>>(32-(cid.Count%32))
		checksum &= 0xFFFFFFFF
	}

	return checksum
}

// Hash returns an MD5 digest of the decoded (XOR-cleared) Rich header
// bytes, a stable fingerprint of the toolchain fingerprint independent
// of the per-file XOR key.
func (rh RichHeader) Hash() string {
	richIdx := bytes.Index(rh.raw, []byte(richSignature))
	if richIdx == -1 {
		return ""
	}
	key := make([]byte, 4)
	binary.LittleEndian.PutUint32(key, rh.XorKey)

	raw := rh.raw[:richIdx]
	clear := make([]byte, len(raw))
	for i, b := range raw {
		clear[i] = b ^ key[i%len(key)]
	}
	return fmt.Sprintf("%x", md5.Sum(clear))
}
