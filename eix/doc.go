/*
Package eix decodes the binary package cache written by the eix tool for
Gentoo systems.

## File layout

An eix file is a single forward-only stream. It starts with a header:

	"eix\n" magic
	format version
	number of categories
	overlays (path, label)
	string tables: EAPI, LICENSE, KEYWORDS, IUSE, SLOT
	world sets
	save bitmask
	dependency table, if the bitmask says dependencies were saved

The header is followed by the categories. Every category holds a number of
packages, and every package holds a number of versions. Versions refer to
the header string tables by index, and to the overlays by key.

All numbers use the eix variable length encoding, see Reader.ReadNum.
Strings are stored as a length followed by UTF-8 bytes.

## Format versions

Some fields only exist in newer format versions:

  - EAPI per version since 36
  - BDEPEND since 32
  - IDEPEND since 39

REQUIRED_USE, dependencies and SRC_URI are optional and controlled by the
save bitmask in the header. Capabilities combines both.

## Usage

	db, err := eix.Open("/var/cache/eix/portage.eix", eix.CurrentFormatVersion)
	if err != nil {
		return err
	}
	defer db.Close()
	err = db.Cursor().Walk(func(p *eix.Package) error {
		fmt.Println(p.FullName())
		return nil
	})

The length hints stored before every package and dependency block are not
used for decoding. They can be checked with Options.StrictHints.
*/
package eix
