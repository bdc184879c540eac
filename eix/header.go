package eix

import (
	"bytes"
	"fmt"
	"math"
)

// Overlay identifies a repository that contributed packages.
type Overlay struct {
	Path  string `json:"path" yaml:"path"`
	Label string `json:"label" yaml:"label"`
	// Priority is the position in the header overlay list. It is not
	// stored in the file.
	Priority int `json:"priority" yaml:"priority"`
}

// Header is the decoded eix file header. It is read once per stream and
// is read-only afterwards.
type Header struct {
	Version    uint32    // format version
	Categories uint64    // number of categories that follow the header
	Overlays   []Overlay // in file order, Priority is the index

	EAPI     *StringTable
	License  *StringTable
	Keywords *StringTable
	IUse     *StringTable
	Slot     *StringTable
	Depend   *StringTable // empty unless UseDepend

	UseDepend      bool
	UseRequiredUse bool
	UseSrcURI      bool

	WorldSets []string

	caps Capabilities
}

// Capabilities returns the optional field layout of the version records.
func (h *Header) Capabilities() Capabilities {
	return h.caps
}

// Overlay returns the overlay with the given key.
func (h *Header) Overlay(key uint64) (Overlay, bool) {
	if key >= uint64(len(h.Overlays)) {
		return Overlay{}, false
	}
	return h.Overlays[key], true
}

// ReadHeader reads the file header. It fails with ErrBadMagic if the magic
// does not match, and with ErrUnsupportedVersion if the format version is
// below minVersion.
//
// The order of the fields is fixed, each field can only be located after
// the previous one was consumed.
func ReadHeader(r *Reader, minVersion uint32) (*Header, error) {
	start := r.Offset()
	magic, err := r.readBytes(len(Magic))
	if err != nil {
		return nil, withField(err, "magic")
	}
	if !bytes.Equal(magic, Magic) {
		return nil, &Error{
			Kind:   KindBadMagic,
			Offset: start,
			Field:  "magic",
			Detail: fmt.Sprintf("expected %q, got %q", Magic, magic),
		}
	}

	start = r.Offset()
	version, err := r.ReadNum()
	if err != nil {
		return nil, withField(err, "version")
	}
	if version > math.MaxUint32 {
		return nil, &Error{
			Kind:   KindInvalidEncoding,
			Offset: start,
			Field:  "version",
			Detail: fmt.Sprintf("version %d out of range", version),
		}
	}
	if uint32(version) < minVersion {
		return nil, &Error{
			Kind:   KindUnsupportedVersion,
			Offset: start,
			Field:  "version",
			Detail: fmt.Sprintf("database version %d too old (minimum: %d)",
				version, minVersion),
		}
	}

	h := &Header{Version: uint32(version)}

	h.Categories, err = r.ReadNum()
	if err != nil {
		return nil, withField(err, "categories")
	}

	nOverlays, err := r.readCount()
	if err != nil {
		return nil, withField(err, "overlay count")
	}
	h.Overlays = make([]Overlay, 0, min(nOverlays, maxPrealloc))
	for i := 0; i < nOverlays; i++ {
		path, err := r.ReadString()
		if err != nil {
			return nil, withField(err, "overlay path")
		}
		label, err := r.ReadString()
		if err != nil {
			return nil, withField(err, "overlay label")
		}
		h.Overlays = append(h.Overlays, Overlay{
			Path:     path,
			Label:    label,
			Priority: i,
		})
	}

	tables := []struct {
		name  string
		table **StringTable
	}{
		{"eapi table", &h.EAPI},
		{"license table", &h.License},
		{"keywords table", &h.Keywords},
		{"iuse table", &h.IUse},
		{"slot table", &h.Slot},
	}
	for _, t := range tables {
		*t.table, err = r.ReadStringTable()
		if err != nil {
			return nil, withField(err, t.name)
		}
	}

	// The world sets come before the feature bitmask
	h.WorldSets, err = r.ReadStrings()
	if err != nil {
		return nil, withField(err, "world sets")
	}

	mask, err := r.ReadNum()
	if err != nil {
		return nil, withField(err, "save bitmask")
	}
	h.caps = NewCapabilities(h.Version, SaveBitmask(mask))
	h.UseDepend = h.caps.Depend
	h.UseRequiredUse = h.caps.RequiredUse
	h.UseSrcURI = h.caps.SrcURI

	if h.UseDepend {
		// Length of the dependency table in bytes, only useful for seeking
		if _, err := r.ReadNum(); err != nil {
			return nil, withField(err, "depend table length")
		}
		h.Depend, err = r.ReadStringTable()
		if err != nil {
			return nil, withField(err, "depend table")
		}
	} else {
		h.Depend = NewStringTable()
	}

	return h, nil
}
