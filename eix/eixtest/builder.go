// Package eixtest builds eix files for tests.
//
// It does not import the eix package, so that the decoder tests can use it.
package eixtest

// Features selects the optional parts of the format.
type Features struct {
	Version     uint32
	Depend      bool
	RequiredUse bool
	SrcURI      bool
}

// Bitmask returns the save bitmask for the header.
func (f Features) Bitmask() uint64 {
	var m uint64
	if f.Depend {
		m |= 1
	}
	if f.RequiredUse {
		m |= 2
	}
	if f.SrcURI {
		m |= 4
	}
	return m
}

// AppendNum appends v in the eix number encoding.
func AppendNum(b []byte, v uint64) []byte {
	if v < 0xFF {
		return append(b, byte(v))
	}
	var be []byte
	for x := v; x > 0; x >>= 8 {
		be = append([]byte{byte(x)}, be...)
	}
	n := len(be)
	b = append(b, 0xFF)
	if be[0] != 0xFF {
		for i := 0; i < n-2; i++ {
			b = append(b, 0xFF)
		}
		return append(b, be...)
	}
	// A leading 0xFF byte is written as 0 after the escapes
	for i := 0; i < n-1; i++ {
		b = append(b, 0xFF)
	}
	b = append(b, 0)
	return append(b, be[1:]...)
}

// AppendString appends a length prefixed string.
func AppendString(b []byte, s string) []byte {
	b = AppendNum(b, uint64(len(s)))
	return append(b, s...)
}

// AppendStrings appends a count prefixed list of strings.
func AppendStrings(b []byte, list []string) []byte {
	b = AppendNum(b, uint64(len(list)))
	for _, s := range list {
		b = AppendString(b, s)
	}
	return b
}

// AppendIndexes appends a count prefixed list of string table indexes.
func AppendIndexes(b []byte, idx []uint64) []byte {
	b = AppendNum(b, uint64(len(idx)))
	for _, i := range idx {
		b = AppendNum(b, i)
	}
	return b
}

// Overlay is an overlay header entry.
type Overlay struct {
	Path  string
	Label string
}

// HeaderSpec describes a header to encode.
type HeaderSpec struct {
	Features
	Magic      string // defaults to "eix\n"
	Categories uint64
	Overlays   []Overlay
	EAPI       []string
	License    []string
	Keywords   []string
	IUse       []string
	Slot       []string
	WorldSets  []string
	Depend     []string // only written with Features.Depend
}

// AppendHeader appends an encoded header.
func AppendHeader(b []byte, h HeaderSpec) []byte {
	magic := h.Magic
	if magic == "" {
		magic = "eix\n"
	}
	b = append(b, magic...)
	b = AppendNum(b, uint64(h.Version))
	b = AppendNum(b, h.Categories)
	b = AppendNum(b, uint64(len(h.Overlays)))
	for _, o := range h.Overlays {
		b = AppendString(b, o.Path)
		b = AppendString(b, o.Label)
	}
	b = AppendStrings(b, h.EAPI)
	b = AppendStrings(b, h.License)
	b = AppendStrings(b, h.Keywords)
	b = AppendStrings(b, h.IUse)
	b = AppendStrings(b, h.Slot)
	b = AppendStrings(b, h.WorldSets)
	b = AppendNum(b, h.Bitmask())
	if h.Features.Depend {
		table := AppendStrings(nil, h.Depend)
		b = AppendNum(b, uint64(len(table)))
		b = append(b, table...)
	}
	return b
}

// Part is a version part as stored: a type tag and text.
type Part struct {
	Tag  uint64
	Text string
}

// Part tags
const (
	TagGarbage uint64 = iota
	TagAlpha
	TagBeta
	TagPre
	TagRC
	TagRevision
	TagInterRev
	TagPatch
	TagCharacter
	TagPrimary
	TagFirst
)

// VersionSpec describes a version record. All string values are
// indexes into the header tables.
type VersionSpec struct {
	EAPI        uint64
	Mask        byte
	Properties  byte
	Restrict    uint64
	Keywords    []uint64
	Parts       []Part
	Slot        uint64
	Overlay     uint64
	IUse        []uint64
	RequiredUse []uint64
	Depend      [5][]uint64 // DEPEND, RDEPEND, PDEPEND, BDEPEND, IDEPEND
	SrcURI      string
}

// AppendVersion appends a version record with the layout selected by f.
func AppendVersion(b []byte, f Features, v VersionSpec) []byte {
	if f.Version >= 36 {
		b = AppendNum(b, v.EAPI)
	}
	b = append(b, v.Mask, v.Properties)
	b = AppendNum(b, v.Restrict)
	b = AppendIndexes(b, v.Keywords)
	b = AppendNum(b, uint64(len(v.Parts)))
	for _, p := range v.Parts {
		b = AppendNum(b, uint64(len(p.Text))*32+p.Tag)
		b = append(b, p.Text...)
	}
	b = AppendNum(b, v.Slot)
	b = AppendNum(b, v.Overlay)
	b = AppendIndexes(b, v.IUse)
	if f.RequiredUse {
		b = AppendIndexes(b, v.RequiredUse)
	}
	if f.Depend {
		lists := 3
		if f.Version > 31 {
			lists = 4
		}
		if f.Version > 38 {
			lists = 5
		}
		var block []byte
		for i := 0; i < lists; i++ {
			block = AppendIndexes(block, v.Depend[i])
		}
		b = AppendNum(b, uint64(len(block)))
		b = append(b, block...)
	}
	if f.SrcURI {
		b = AppendString(b, v.SrcURI)
	}
	return b
}

// PackageSpec describes a package record.
type PackageSpec struct {
	Name        string
	Description string
	Homepage    string
	License     uint64
	Versions    []VersionSpec
	// HintDelta is added to the correct length hint
	HintDelta int
}

// AppendPackage appends a package record with a correct length hint,
// unless HintDelta is set.
func AppendPackage(b []byte, f Features, p PackageSpec) []byte {
	frame := AppendString(nil, p.Name)
	frame = AppendString(frame, p.Description)
	frame = AppendString(frame, p.Homepage)
	frame = AppendNum(frame, p.License)
	frame = AppendNum(frame, uint64(len(p.Versions)))
	for _, v := range p.Versions {
		frame = AppendVersion(frame, f, v)
	}
	b = AppendNum(b, uint64(len(frame)+p.HintDelta))
	return append(b, frame...)
}

// AppendCategory appends a category with its packages.
func AppendCategory(b []byte, f Features, name string, packages ...PackageSpec) []byte {
	b = AppendString(b, name)
	b = AppendNum(b, uint64(len(packages)))
	for _, p := range packages {
		b = AppendPackage(b, f, p)
	}
	return b
}

// Category is a category with its packages, for Build.
type Category struct {
	Name     string
	Packages []PackageSpec
}

// Build encodes a complete file. The category count in the header is set
// from the given categories.
func Build(h HeaderSpec, categories ...Category) []byte {
	h.Categories = uint64(len(categories))
	b := AppendHeader(nil, h)
	for _, c := range categories {
		b = AppendCategory(b, h.Features, c.Name, c.Packages...)
	}
	return b
}

// Sample returns a small but complete file at the current format version
// with all optional parts enabled. It has two categories and three
// packages.
func Sample() []byte {
	f := Features{Version: 39, Depend: true, RequiredUse: true, SrcURI: true}
	h := HeaderSpec{
		Features: f,
		Overlays: []Overlay{
			{Path: "/var/db/repos/gentoo", Label: "gentoo"},
			{Path: "/var/db/repos/local", Label: "local"},
		},
		EAPI:      []string{"7", "8"},
		License:   []string{"GPL-2", "MIT"},
		Keywords:  []string{"amd64", "~arm64"},
		IUse:      []string{"ssl", "+ipv6", "ipv6? ( ssl )"},
		Slot:      []string{"0", "3"},
		WorldSets: []string{"@system"},
		Depend:    []string{"dev-libs/openssl", "virtual/pkgconfig", "sys-libs/zlib"},
	}
	curl := PackageSpec{
		Name:        "curl",
		Description: "A client-side URL transfer utility",
		Homepage:    "https://curl.se/",
		License:     1,
		Versions: []VersionSpec{
			{
				EAPI:     1,
				Keywords: []uint64{0, 1},
				Parts: []Part{
					{TagFirst, "8"}, {TagPrimary, "5"}, {TagPrimary, "0"},
				},
				Slot:        0,
				Overlay:     0,
				IUse:        []uint64{0, 1},
				RequiredUse: []uint64{2},
				Depend: [5][]uint64{
					{0}, {0, 2}, nil, {1}, nil,
				},
				SrcURI: "https://curl.se/download/curl-8.5.0.tar.xz",
			},
			{
				EAPI:     1,
				Mask:     0x20,
				Keywords: []uint64{1},
				Parts: []Part{
					{TagFirst, "8"}, {TagPrimary, "6"}, {TagPrimary, "0"},
					{TagRevision, "1"},
				},
				Overlay: 1,
				SrcURI:  "https://curl.se/download/curl-8.6.0.tar.xz",
			},
		},
	}
	zlib := PackageSpec{
		Name:        "zlib",
		Description: "Standard (de)compression library",
		Homepage:    "https://zlib.net/",
		Versions: []VersionSpec{
			{
				EAPI:     0,
				Keywords: []uint64{0},
				Parts:    []Part{{TagFirst, "1"}, {TagPrimary, "3"}, {TagPrimary, "1"}},
				Slot:     0,
			},
		},
	}
	ncurses := PackageSpec{
		Name:        "ncurses",
		Description: "Console display library",
		Homepage:    "https://invisible-island.net/ncurses/",
		License:     1,
		Versions: []VersionSpec{
			{
				EAPI: 1,
				Mask: 0x40,
				Parts: []Part{
					{TagFirst, "6"}, {TagPrimary, "4"}, {TagPatch, "20230401"},
				},
				Slot: 0,
			},
		},
	}
	return Build(h,
		Category{Name: "net-misc", Packages: []PackageSpec{curl}},
		Category{Name: "sys-libs", Packages: []PackageSpec{zlib, ncurses}},
	)
}
