// Package header implements the fixed size header in front of every value
// stored in the package index.
package header

import (
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
)

// Header flags
const (
	// FlagInstalled is set when at least one version of the package is
	// installed
	FlagInstalled uint8 = 1 << iota
	// FlagMasked is set when all versions are hard masked
	FlagMasked
)

// Header describes the header of a stored package value
type Header struct {
	Timestamp     time.Time // time of import
	FormatVersion uint32    // eix format version of the source file
	Version       int       // header version (currently always 0)
	Flags         uint8     // header flags
	NumVersions   uint16    // number of package versions, saturated
}

func (h Header) MarshalBinary() (data []byte, err error) {
	return h.Bytes(), nil
}

// Bytes returns the encoded header.
func (h Header) Bytes() []byte {
	// fixed allocation size allows stack allocation
	b := make([]byte, HeaderSize)
	return h.doBytes(b)
}

// AppendTo appends the encoded header and then the value to b.
func (h Header) AppendTo(b []byte, value []byte) []byte {
	off := len(b)
	b = append(b, make([]byte, HeaderSize)...)
	h.doBytes(b[off : off+HeaderSize])
	return append(b, value...)
}

func (h Header) doBytes(b []byte) []byte {
	binary.BigEndian.PutUint64(b[:8], uint64(h.Timestamp.UnixNano()))
	binary.BigEndian.PutUint32(b[8:12], h.FormatVersion)
	b[VersionOffset] = uint8(h.Version)
	b[FlagsOffset] = h.Flags
	binary.BigEndian.PutUint16(b[NumVersionsOffset:], h.NumVersions)
	return b
}

var (
	ErrTooShort = errors.New("value too short to contain a header")
	ErrVersion  = errors.New("unsupported header version or not a header")
)

const (
	// HeaderSize is the size of a header
	HeaderSize = 16
)

const (
	VersionOffset     = 12
	FlagsOffset       = 13
	NumVersionsOffset = 14
)

// Parse parses a value with header and returns the remaining application value.
func Parse(val []byte) (header Header, value []byte, err error) {
	if len(val) < HeaderSize {
		return header, nil, ErrTooShort
	}
	if val[VersionOffset] != 0 {
		return header, nil, ErrVersion
	}

	header = Header{
		Timestamp:     time.Unix(0, int64(binary.BigEndian.Uint64(val[:8]))),
		FormatVersion: binary.BigEndian.Uint32(val[8:12]),
		Version:       int(val[VersionOffset]),
		Flags:         val[FlagsOffset],
		NumVersions:   binary.BigEndian.Uint16(val[NumVersionsOffset:HeaderSize]),
	}
	return header, val[HeaderSize:], nil
}

// Skip skips over the header and returns the remaining application value.
func Skip(val []byte) (value []byte, err error) {
	if len(val) < HeaderSize {
		return nil, ErrTooShort
	}
	if val[VersionOffset] != 0 {
		return nil, ErrVersion
	}
	return val[HeaderSize:], nil
}
