package eix

const (
	// CurrentFormatVersion is the newest eix cache format we know how to read.
	// Version 32 added BDEPEND to the dependency block.
	// Version 36 started storing the EAPI per version.
	// Version 39 added IDEPEND to the dependency block.
	CurrentFormatVersion uint32 = 39

	// DefaultMinFormatVersion is the oldest version accepted when the caller
	// does not specify one. eix itself refuses to read caches written by
	// other versions, so we default to the same strictness.
	DefaultMinFormatVersion = CurrentFormatVersion
)

// Format version thresholds for version-gated fields.
const (
	minVersionBDepend uint32 = 32
	minVersionEAPI    uint32 = 36
	minVersionIDepend uint32 = 39
)

// Magic is the literal marker every eix cache file starts with.
var Magic = []byte("eix\n")
