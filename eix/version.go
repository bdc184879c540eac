package eix

import (
	"fmt"
)

// Version is a single version of a package.
type Version struct {
	// VersionString is rendered from Parts by the cursor
	VersionString string `json:"version" yaml:"version"`
	Parts         []Part `json:"-" yaml:"-"`

	EAPI            string `json:"eapi" yaml:"eapi"`
	MaskFlags       uint8  `json:"mask_flags" yaml:"mask_flags"`
	PropertiesFlags uint8  `json:"properties_flags" yaml:"properties_flags"`
	RestrictFlags   uint64 `json:"restrict_flags" yaml:"restrict_flags"`

	Keywords []string `json:"keywords" yaml:"keywords"`
	Slot     string   `json:"slot" yaml:"slot"`

	OverlayKey uint64 `json:"overlay_key" yaml:"overlay_key"`
	RepoName   string `json:"reponame" yaml:"reponame"`
	Priority   int    `json:"priority" yaml:"priority"`

	IUse        []string `json:"iuse" yaml:"iuse"`
	RequiredUse []string `json:"required_use" yaml:"required_use"`
	Depend      *Depend  `json:"depend" yaml:"depend"`
	SrcURI      *string  `json:"src_uri" yaml:"src_uri"`
}

// Depend holds the dependency lists of a version.
// BDepend is only stored from format version 32 on, IDepend from 39 on.
type Depend struct {
	Depend  []string `json:"depend" yaml:"depend"`
	RDepend []string `json:"rdepend" yaml:"rdepend"`
	PDepend []string `json:"pdepend" yaml:"pdepend"`
	BDepend []string `json:"bdepend" yaml:"bdepend"`
	IDepend []string `json:"idepend" yaml:"idepend"`
}

// IsInstalled reports whether eix marked this version as in the profile
// or marked by the user.
func (v *Version) IsInstalled() bool {
	return MaskFlags(v.MaskFlags)&maskInstalled != 0
}

// Mask returns the mask flags as MaskFlags.
func (v *Version) Mask() MaskFlags {
	return MaskFlags(v.MaskFlags)
}

// FullVersion renders the version string from the parts.
func (v *Version) FullVersion() string {
	return FullVersion(v.Parts)
}

// ReadVersion reads a single version record. The layout depends on the
// header Capabilities, and string indexes are resolved against the header
// string tables.
func (r *Reader) ReadVersion(h *Header) (*Version, error) {
	caps := h.Capabilities()
	v := &Version{}
	var err error

	if caps.HasEAPI() {
		v.EAPI, err = r.ReadHashString(h.EAPI)
		if err != nil {
			return nil, withField(err, "eapi")
		}
	}

	v.MaskFlags, err = r.ReadByte()
	if err != nil {
		return nil, withField(err, "mask flags")
	}
	v.PropertiesFlags, err = r.ReadByte()
	if err != nil {
		return nil, withField(err, "properties flags")
	}
	v.RestrictFlags, err = r.ReadNum()
	if err != nil {
		return nil, withField(err, "restrict flags")
	}

	v.Keywords, err = r.ReadHashWords(h.Keywords)
	if err != nil {
		return nil, withField(err, "keywords")
	}

	nParts, err := r.readCount()
	if err != nil {
		return nil, withField(err, "version part count")
	}
	v.Parts = make([]Part, 0, min(nParts, maxPrealloc))
	for i := 0; i < nParts; i++ {
		p, err := r.readPart()
		if err != nil {
			return nil, withField(err, "version part")
		}
		v.Parts = append(v.Parts, p)
	}

	// Slot "0" may be stored as "", we return whatever is in the table
	v.Slot, err = r.ReadHashString(h.Slot)
	if err != nil {
		return nil, withField(err, "slot")
	}

	start := r.Offset()
	v.OverlayKey, err = r.ReadNum()
	if err != nil {
		return nil, withField(err, "overlay key")
	}
	overlay, ok := h.Overlay(v.OverlayKey)
	if !ok {
		return nil, &Error{
			Kind:   KindBadReference,
			Offset: start,
			Field:  "overlay key",
			Detail: fmt.Sprintf("overlay %d out of range (%d overlays)",
				v.OverlayKey, len(h.Overlays)),
		}
	}
	v.RepoName = overlay.Label
	v.Priority = overlay.Priority

	v.IUse, err = r.ReadHashWords(h.IUse)
	if err != nil {
		return nil, withField(err, "iuse")
	}

	v.RequiredUse = []string{}
	if caps.RequiredUse {
		// REQUIRED_USE shares the IUSE table
		v.RequiredUse, err = r.ReadHashWords(h.IUse)
		if err != nil {
			return nil, withField(err, "required use")
		}
	}

	if caps.Depend {
		v.Depend, err = r.readDepend(h, caps)
		if err != nil {
			return nil, err
		}
	}

	if caps.SrcURI {
		s, err := r.ReadString()
		if err != nil {
			return nil, withField(err, "src uri")
		}
		v.SrcURI = &s
	}

	return v, nil
}

func (r *Reader) readDepend(h *Header, caps Capabilities) (*Depend, error) {
	// Length of the dependency block in bytes, only useful for seeking
	if _, err := r.ReadNum(); err != nil {
		return nil, withField(err, "depend length")
	}

	// Lists not present in this format version stay empty
	d := &Depend{BDepend: []string{}, IDepend: []string{}}
	lists := []struct {
		name    string
		list    *[]string
		present bool
	}{
		{"depend", &d.Depend, true},
		{"rdepend", &d.RDepend, true},
		{"pdepend", &d.PDepend, true},
		{"bdepend", &d.BDepend, caps.HasBDepend()},
		{"idepend", &d.IDepend, caps.HasIDepend()},
	}
	for _, l := range lists {
		if !l.present {
			continue
		}
		words, err := r.ReadHashWords(h.Depend)
		if err != nil {
			return nil, withField(err, l.name)
		}
		*l.list = words
	}
	return d, nil
}
