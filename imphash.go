package pe

import (
	"crypto/md5"
	"fmt"
	"strings"
)

var impHashLibExtensions = map[string]bool{"ocx": true, "sys": true, "dll": true}

// ImpHash computes the import hash: an MD5 digest of the module's
// normalized "library.function" pairs, joined by commas, in import
// table order. It is a fuzzy fingerprint used to cluster binaries that
// share a build toolchain or code lineage even when other bytes differ.
//
// This reader carries no ordinal-to-name lookup table for any DLL; an
// ordinal-only import therefore normalizes to "ord<N>" rather than a
// resolved API name, which changes the resulting hash relative to tools
// that ship such a table.
func (v *View) ImpHash() (string, error) {
	it, err := v.Imports()
	if err != nil {
		return "", err
	}

	var terms []string
	for mod, ok := it.Next(); ok; mod, ok = it.Next() {
		if it.Err() != nil {
			return "", it.Err()
		}

		lib := strings.ToLower(string(mod.Name))
		if parts := strings.Split(lib, "."); len(parts) == 2 && impHashLibExtensions[parts[1]] {
			lib = parts[0]
		}

		fnIter := mod.Imports()
		for imp, ok := fnIter.Next(); ok; imp, ok = fnIter.Next() {
			var fn string
			if imp.IsOrdinal() {
				fn = fmt.Sprintf("ord%d", imp.Ordinal())
			} else {
				fn = strings.ToLower(string(imp.Name()))
			}
			terms = append(terms, lib+"."+fn)
		}
		if fnIter.Err() != nil {
			return "", fnIter.Err()
		}
	}
	if it.Err() != nil {
		return "", it.Err()
	}
	if len(terms) == 0 {
		return "", newErr(Absent, "Imports", nil)
	}

	h := md5.Sum([]byte(strings.Join(terms, ",")))
	return fmt.Sprintf("%x", h), nil
}
