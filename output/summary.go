package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/c2h5oh/datasize"
	"github.com/samber/lo"
	"gopkg.in/yaml.v2"

	"github.com/PowerDNS/eixdb/eix"
)

// HeaderInfo summarizes a file header.
type HeaderInfo struct {
	FormatVersion uint32         `json:"format_version" yaml:"format_version"`
	Categories    uint64         `json:"categories" yaml:"categories"`
	Features      []string       `json:"features" yaml:"features"`
	Overlays      []eix.Overlay  `json:"overlays" yaml:"overlays"`
	WorldSets     []string       `json:"world_sets" yaml:"world_sets"`
	StringTables  map[string]int `json:"string_tables" yaml:"string_tables"`
}

// NewHeaderInfo returns the summary of h.
func NewHeaderInfo(h *eix.Header) HeaderInfo {
	features := []string{}
	if h.UseDepend {
		features = append(features, "depend")
	}
	if h.UseRequiredUse {
		features = append(features, "required_use")
	}
	if h.UseSrcURI {
		features = append(features, "src_uri")
	}
	return HeaderInfo{
		FormatVersion: h.Version,
		Categories:    h.Categories,
		Features:      features,
		Overlays:      h.Overlays,
		WorldSets:     h.WorldSets,
		StringTables: map[string]int{
			"eapi":     h.EAPI.Len(),
			"license":  h.License.Len(),
			"keywords": h.Keywords.Len(),
			"iuse":     h.IUse.Len(),
			"slot":     h.Slot.Len(),
			"depend":   h.Depend.Len(),
		},
	}
}

// Stats holds the totals of a full pass over a file.
type Stats struct {
	Source        string            `json:"source" yaml:"source"`
	Compression   string            `json:"compression" yaml:"compression"`
	FormatVersion uint32            `json:"format_version" yaml:"format_version"`
	FileSize      datasize.ByteSize `json:"file_size" yaml:"file_size"`
	DecodedSize   datasize.ByteSize `json:"decoded_size" yaml:"decoded_size"`
	Categories    uint64            `json:"categories" yaml:"categories"`
	Packages      uint64            `json:"packages" yaml:"packages"`
	Versions      uint64            `json:"versions" yaml:"versions"`
	Installed     uint64            `json:"installed" yaml:"installed"`
	Masked        uint64            `json:"masked" yaml:"masked"`
	PerRepo       map[string]uint64 `json:"versions_per_repo" yaml:"versions_per_repo"`
}

// Add counts a package and its versions.
func (s *Stats) Add(p *eix.Package) {
	if s.PerRepo == nil {
		s.PerRepo = make(map[string]uint64)
	}
	s.Packages++
	s.Versions += uint64(len(p.Versions))
	s.Installed += uint64(lo.CountBy(p.Versions, (*eix.Version).IsInstalled))
	s.Masked += uint64(lo.CountBy(p.Versions, func(v *eix.Version) bool {
		return v.Mask()&eix.MaskHard != 0
	}))
	for _, v := range p.Versions {
		s.PerRepo[v.RepoName]++
	}
}

// SetCursorStats copies the totals that only the cursor knows.
func (s *Stats) SetCursorStats(cs eix.CursorStats) {
	s.Categories = cs.Categories
	s.DecodedSize = datasize.ByteSize(cs.Bytes)
}

// WriteValue writes v as a single JSON or YAML document.
func WriteValue(w io.Writer, f Format, v any) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("output format not supported: %s", f)
	}
}
