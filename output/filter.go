package output

import (
	"strings"

	"github.com/samber/lo"

	"github.com/PowerDNS/eixdb/eix"
)

// Filter selects packages and versions for output. The zero value selects
// everything.
type Filter struct {
	Categories []string // exact category names
	Prefix     string   // prefix of "category/name"
	Installed  bool     // only keep installed versions
	Masked     bool     // only keep hard masked versions
}

// Apply returns the package with only the selected versions, or false if
// nothing is left. The original package is not modified.
func (f Filter) Apply(p *eix.Package) (*eix.Package, bool) {
	if len(f.Categories) > 0 && !lo.Contains(f.Categories, p.Category) {
		return nil, false
	}
	if f.Prefix != "" && !strings.HasPrefix(p.FullName(), f.Prefix) {
		return nil, false
	}
	if !f.Installed && !f.Masked {
		return p, true
	}
	versions := lo.Filter(p.Versions, func(v *eix.Version, _ int) bool {
		if f.Installed && !v.IsInstalled() {
			return false
		}
		if f.Masked && v.Mask()&eix.MaskHard == 0 {
			return false
		}
		return true
	})
	if len(versions) == 0 {
		return nil, false
	}
	p2 := *p
	p2.Versions = versions
	return &p2, true
}
