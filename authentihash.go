package pe

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"sort"
)

// authHashRange is a half-open byte range of the image buffer to
// exclude from (or include in) an Authenticode-style digest.
type authHashRange struct {
	start, end uint32
}

// AuthentihashSHA256 computes the Authenticode digest using SHA-256,
// the algorithm modern signing tools default to.
func (v *View) AuthentihashSHA256() ([]byte, error) { return v.authentihash(sha256.New()) }

// AuthentihashSHA1 computes the Authenticode digest using SHA-1, kept
// for compatibility with older signatures.
func (v *View) AuthentihashSHA1() ([]byte, error) { return v.authentihash(sha1.New()) }

// AuthentihashSHA512 computes the Authenticode digest using SHA-512.
func (v *View) AuthentihashSHA512() ([]byte, error) { return v.authentihash(sha512.New()) }

// AuthentihashMD5 computes the Authenticode digest using MD5.
func (v *View) AuthentihashMD5() ([]byte, error) { return v.authentihash(md5.New()) }

// authentihash implements the Authenticode digest algorithm: hash the
// entire image except the checksum field, the certificate-table data
// directory entry, and the attribute certificate table's bytes
// themselves (the signature cannot cover its own storage location).
func (v *View) authentihash(hasher hash.Hash) ([]byte, error) {
	excl, err := v.authHashExclusions()
	if err != nil {
		return nil, err
	}
	sort.Slice(excl, func(i, j int) bool { return excl[i].start < excl[j].start })

	pos := uint32(0)
	for _, r := range excl {
		if r.start > pos {
			hasher.Write(v.buf[pos:r.start])
		}
		if r.end > pos {
			pos = r.end
		}
	}
	if int(pos) < len(v.buf) {
		hasher.Write(v.buf[pos:])
	}
	return hasher.Sum(nil), nil
}

func (v *View) authHashExclusions() ([]authHashRange, error) {
	optHdrOff := uint32(v.dos.AddressOfNewEXEHeader) + 4 + fileHeaderSize
	optHdrSize := uint32(v.nt.FileHeader.SizeOfOptionalHeader)
	if optHdrOff+optHdrSize > uint32(len(v.buf)) {
		return nil, newErr(Malformed, "OptionalHeader", nil)
	}
	if optHdrSize < optionalHeader64MinSz {
		return nil, newErr(Malformed, "OptionalHeader.SizeOfHeaders", nil)
	}

	excl := []authHashRange{
		{optHdrOff + 64, optHdrOff + 64 + 4}, // CheckSum
	}

	certDirOff := optHdrOff + optionalHeader64MinSz + uint32(DirCertificate)*8
	if certDirOff+8 <= optHdrOff+optHdrSize {
		excl = append(excl, authHashRange{certDirOff, certDirOff + 8})

		dd := v.DataDirectory(DirCertificate)
		if dd.Size > 0 {
			end := uint64(dd.VirtualAddress) + uint64(dd.Size)
			if end <= uint64(len(v.buf)) {
				excl = append(excl, authHashRange{dd.VirtualAddress, uint32(end)})
			}
		}
	}

	return excl, nil
}
