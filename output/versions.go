package output

import (
	"fmt"
	"io"

	"github.com/PowerDNS/eixdb/eix"
)

// VersionsHeader is the first line written by the versions table
const VersionsHeader = "name version mask_flags properties_flags restrict_flags priority slot overlay repo"

// VersionsTable writes one space separated line per package version.
// Flags are written as decimal numbers, like eix stores them.
type VersionsTable struct {
	w      io.Writer
	header bool
}

// NewVersionsTable returns a VersionsTable that writes to w.
func NewVersionsTable(w io.Writer) *VersionsTable {
	return &VersionsTable{w: w}
}

// Write writes the lines for all versions of p. The header line is written
// before the first package.
func (vt *VersionsTable) Write(p *eix.Package) error {
	if !vt.header {
		vt.header = true
		if _, err := fmt.Fprintln(vt.w, VersionsHeader); err != nil {
			return err
		}
	}
	name := p.FullName()
	for _, v := range p.Versions {
		_, err := fmt.Fprintf(vt.w, "%s %s %d %d %d %d %s %d %s\n",
			name,
			v.VersionString,
			v.MaskFlags,
			v.PropertiesFlags,
			v.RestrictFlags,
			v.Priority,
			v.Slot,
			v.OverlayKey,
			v.RepoName,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Close writes the header if nothing was written yet.
func (vt *VersionsTable) Close() error {
	if vt.header {
		return nil
	}
	vt.header = true
	_, err := fmt.Fprintln(vt.w, VersionsHeader)
	return err
}
