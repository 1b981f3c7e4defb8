// Command peview reports a summary of a PE32+ image's structure as JSON.
package main

import (
	"crypto/md5"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/PurpleSec/logx"
	"github.com/edsrzf/mmap-go"

	pe "github.com/wanglei-coder/peview"
)

func md5Hex(b []byte) string {
	sum := md5.Sum(b)
	return fmt.Sprintf("%x", sum)
}

const defaultHashSet = "imphash,richheader,authentihash"

var (
	filename string
	useMmap  bool
	hashFlag string
)

func init() {
	flag.StringVar(&filename, "filename", "", "path to the PE32+ image to inspect")
	flag.BoolVar(&useMmap, "mmap", false, "read the file via a memory-mapped view instead of loading it into memory")
	flag.StringVar(&hashFlag, "hash", defaultHashSet, "comma-separated digest names to compute over the image (imphash, richheader, authentihash); empty disables all")
	flag.Parse()
}

// parseHashSet turns a comma-separated -hash value into a membership
// set, ignoring blank entries so a trailing comma or extra whitespace
// doesn't produce a phantom digest name.
func parseHashSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			set[name] = true
		}
	}
	return set
}

// report mirrors the JSON shape a caller of the library would most
// commonly want: identity, sections, imports/exports summaries and, if
// requested, the fingerprinting hashes.
type report struct {
	Machine      uint16          `json:"machine"`
	EntryPoint   uint32          `json:"entryPoint"`
	Timestamp    uint32          `json:"timestamp"`
	ImpHash      string          `json:"impHash,omitempty"`
	RichHash     string          `json:"richHeaderHash,omitempty"`
	Authentihash string          `json:"authentihash,omitempty"`
	Sections     []sectionReport `json:"sections"`
	Modules      []string        `json:"importedModules"`
	ExportCount  int             `json:"exportCount"`
	Overlay      *overlayReport  `json:"overlay,omitempty"`
}

type sectionReport struct {
	Name    string  `json:"name"`
	Flags   string  `json:"flags"`
	RawSize uint32  `json:"rawSize"`
	VSize   uint32  `json:"virtualSize"`
	Entropy float64 `json:"entropy"`
	MD5     string  `json:"md5"`
}

type overlayReport struct {
	Size     int    `json:"size"`
	MD5      string `json:"md5"`
	FileType string `json:"fileType,omitempty"`
}

func main() {
	log := logx.Writer(os.Stderr, logx.Info)
	log.SetPrefix("peview")

	if filename == "" {
		log.Error("missing required -filename flag")
		os.Exit(2)
	}

	buf, closeFn, err := readInput(filename, useMmap)
	if err != nil {
		log.Error("reading %q: %s", filename, err)
		os.Exit(1)
	}
	defer closeFn()

	v, err := pe.Parse(buf)
	if err != nil {
		log.Error("parsing %q: %s", filename, err)
		os.Exit(1)
	}
	log.Info("parsed %q: %d sections", filename, len(v.Sections()))

	rep, err := buildReport(v, parseHashSet(hashFlag))
	if err != nil {
		log.Error("building report: %s", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		log.Error("encoding report: %s", err)
		os.Exit(1)
	}
}

func readInput(path string, useMmap bool) ([]byte, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	if !useMmap {
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return nil, nil, err
		}
		buf := make([]byte, info.Size())
		if _, err := f.ReadAt(buf, 0); err != nil {
			return nil, nil, err
		}
		return buf, func() {}, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return []byte(m), func() { m.Unmap(); f.Close() }, nil
}

func buildReport(v *pe.View, hashes map[string]bool) (*report, error) {
	oh := v.OptionalHeader()
	rep := &report{
		Machine:    v.FileHeader().Machine,
		EntryPoint: oh.AddressOfEntryPoint,
		Timestamp:  v.FileHeader().TimeDateStamp,
	}

	for _, s := range v.Sections() {
		rep.Sections = append(rep.Sections, sectionReport{
			Name:    s.Name,
			Flags:   s.Flags(),
			RawSize: s.SizeOfRawData,
			VSize:   s.VirtualSize,
			Entropy: s.Entropy(),
			MD5:     s.MD5(),
		})
	}

	if it, err := v.Imports(); err == nil {
		for mod, ok := it.Next(); ok; mod, ok = it.Next() {
			rep.Modules = append(rep.Modules, string(mod.Name))
		}
	}

	if it, err := v.Exports(); err == nil {
		for _, ok := it.Next(); ok; _, ok = it.Next() {
			rep.ExportCount++
		}
	}

	if overlay, ok := v.Overlay(); ok {
		or := &overlayReport{Size: len(overlay), MD5: md5Hex(overlay)}
		if kind, ok := v.IdentifyOverlay(); ok {
			or.FileType = kind
		}
		rep.Overlay = or
	}

	if hashes["imphash"] {
		if h, err := v.ImpHash(); err == nil {
			rep.ImpHash = h
		}
	}
	if hashes["richheader"] {
		if rh, ok, err := v.RichHeader(); err == nil && ok {
			rep.RichHash = rh.Hash()
		}
	}
	if hashes["authentihash"] {
		if sum, err := v.AuthentihashSHA256(); err == nil {
			rep.Authentihash = fmt.Sprintf("%x", sum)
		}
	}

	return rep, nil
}
