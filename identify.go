package pe

import "github.com/h2non/filetype"

// IdentifyOverlay sniffs the content type of the image's overlay bytes,
// if any. Installers frequently embed a nested archive or a secondary
// executable in the overlay; this gives a caller a cheap first signal
// of what that payload is without hand-rolling magic-byte checks.
func (v *View) IdentifyOverlay() (string, bool) {
	overlay, ok := v.Overlay()
	if !ok {
		return "", false
	}
	return identify(overlay)
}

// IdentifyResource sniffs the content type of a resource data entry's
// payload.
func (v *View) IdentifyResource(e ResourceEntry) (string, bool) {
	if e.Directory != nil {
		return "", false
	}
	data, err := v.r.slice(e.DataRVA, int(e.DataSize))
	if err != nil {
		return "", false
	}
	return identify(data)
}

func identify(data []byte) (string, bool) {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "", false
	}
	return kind.MIME.Value, true
}
