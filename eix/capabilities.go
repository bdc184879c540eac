package eix

// SaveBitmask is the feature bitmask stored in the header. It tells which
// optional per-version fields were saved by the writer.
type SaveBitmask uint64

const (
	SaveBitmaskDep         SaveBitmask = 0x01
	SaveBitmaskRequiredUse SaveBitmask = 0x02
	SaveBitmaskSrcURI      SaveBitmask = 0x04
)

// Capabilities describes which optional fields are present in the version
// records of a stream. It is derived once from the header and consulted by
// every version record decode.
type Capabilities struct {
	Version     uint32 // format version
	Depend      bool   // dependency block present
	RequiredUse bool   // REQUIRED_USE list present
	SrcURI      bool   // SRC_URI string present
}

// NewCapabilities derives the Capabilities from a format version and the
// header feature bitmask. Unknown bits are ignored.
func NewCapabilities(version uint32, mask SaveBitmask) Capabilities {
	return Capabilities{
		Version:     version,
		Depend:      mask&SaveBitmaskDep != 0,
		RequiredUse: mask&SaveBitmaskRequiredUse != 0,
		SrcURI:      mask&SaveBitmaskSrcURI != 0,
	}
}

// Bitmask returns the feature bitmask these Capabilities were derived from,
// without any unknown bits.
func (c Capabilities) Bitmask() SaveBitmask {
	var m SaveBitmask
	if c.Depend {
		m |= SaveBitmaskDep
	}
	if c.RequiredUse {
		m |= SaveBitmaskRequiredUse
	}
	if c.SrcURI {
		m |= SaveBitmaskSrcURI
	}
	return m
}

// HasEAPI reports whether version records start with an EAPI index.
// Older formats stored the EAPI elsewhere and it is left empty.
func (c Capabilities) HasEAPI() bool {
	return c.Version >= minVersionEAPI
}

// HasBDepend reports whether the dependency block contains BDEPEND.
func (c Capabilities) HasBDepend() bool {
	return c.Version >= minVersionBDepend
}

// HasIDepend reports whether the dependency block contains IDEPEND.
func (c Capabilities) HasIDepend() bool {
	return c.Version >= minVersionIDepend
}
