package index

import (
	"time"

	"github.com/CrowdStrike/csproto"
)

// Protobuf field numbers of the Meta record
const (
	FieldMetaGenerationID  = 1
	FieldMetaSource        = 2
	FieldMetaFormatVersion = 3
	FieldMetaDigest        = 4
	FieldMetaTimestampNano = 5
	FieldMetaCategories    = 6
	FieldMetaPackages      = 7
	FieldMetaVersions      = 8
	FieldMetaInstalled     = 9
	FieldMetaSourceBytes   = 10
)

// Meta describes the last import into the index.
type Meta struct {
	GenerationID  string `json:"generation_id" yaml:"generation_id"` // random UUID per import
	Source        string `json:"source" yaml:"source"`
	FormatVersion uint32 `json:"format_version" yaml:"format_version"`
	Digest        uint64 `json:"digest" yaml:"digest"` // xxhash of the source file, if known
	TimestampNano uint64 `json:"timestamp_nano" yaml:"timestamp_nano"`
	Categories    uint64 `json:"categories" yaml:"categories"`
	Packages      uint64 `json:"packages" yaml:"packages"`
	Versions      uint64 `json:"versions" yaml:"versions"`
	Installed     uint64 `json:"installed" yaml:"installed"`
	SourceBytes   uint64 `json:"source_bytes" yaml:"source_bytes"` // uncompressed
}

// Time returns the import time.
func (m Meta) Time() time.Time {
	return time.Unix(0, int64(m.TimestampNano))
}

func (m *Meta) Marshal() []byte {
	e := &encoder{b: make([]byte, 0, 128+len(m.Source))}
	e.putString(FieldMetaGenerationID, m.GenerationID)
	e.putString(FieldMetaSource, m.Source)
	e.putUint(FieldMetaFormatVersion, uint64(m.FormatVersion))
	e.putFixed64(FieldMetaDigest, m.Digest)
	e.putFixed64(FieldMetaTimestampNano, m.TimestampNano)
	e.putUint(FieldMetaCategories, m.Categories)
	e.putUint(FieldMetaPackages, m.Packages)
	e.putUint(FieldMetaVersions, m.Versions)
	e.putUint(FieldMetaInstalled, m.Installed)
	e.putUint(FieldMetaSourceBytes, m.SourceBytes)
	return e.b
}

func (m *Meta) Unmarshal(data []byte) error {
	d := csproto.NewDecoder(data)
	for d.More() {
		tag, wireType, err := d.DecodeTag()
		if err != nil {
			return err
		}
		switch tag {
		case FieldMetaGenerationID:
			m.GenerationID, err = getString(d, tag, wireType)
		case FieldMetaSource:
			m.Source, err = getString(d, tag, wireType)
		case FieldMetaFormatVersion:
			var v uint64
			v, err = getUInt64(d, tag, wireType)
			m.FormatVersion = uint32(v)
		case FieldMetaDigest:
			m.Digest, err = getFixed64(d, tag, wireType)
		case FieldMetaTimestampNano:
			m.TimestampNano, err = getFixed64(d, tag, wireType)
		case FieldMetaCategories:
			m.Categories, err = getUInt64(d, tag, wireType)
		case FieldMetaPackages:
			m.Packages, err = getUInt64(d, tag, wireType)
		case FieldMetaVersions:
			m.Versions, err = getUInt64(d, tag, wireType)
		case FieldMetaInstalled:
			m.Installed, err = getUInt64(d, tag, wireType)
		case FieldMetaSourceBytes:
			m.SourceBytes, err = getUInt64(d, tag, wireType)
		default:
			_, err = d.Skip(tag, wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
