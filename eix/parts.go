package eix

import (
	"strings"
)

// PartType is the type of a version fragment. Unknown tags map to
// PartGarbage, which renders as literal text.
type PartType uint8

const (
	PartGarbage PartType = iota
	PartAlpha
	PartBeta
	PartPre
	PartRC
	PartRevision
	PartInterRev
	PartPatch
	PartCharacter
	PartPrimary
	PartFirst
)

// partTagModulus splits the stored part number into length and type tag
const partTagModulus = 32

var partTypeNames = [...]string{
	PartGarbage:   "garbage",
	PartAlpha:     "alpha",
	PartBeta:      "beta",
	PartPre:       "pre",
	PartRC:        "rc",
	PartRevision:  "revision",
	PartInterRev:  "inter_revision",
	PartPatch:     "patch",
	PartCharacter: "character",
	PartPrimary:   "primary",
	PartFirst:     "first",
}

// PartTypeFromTag maps a stored type tag to a PartType.
func PartTypeFromTag(tag uint64) PartType {
	if tag >= 1 && tag <= uint64(PartFirst) {
		return PartType(tag)
	}
	return PartGarbage
}

func (t PartType) String() string {
	if int(t) < len(partTypeNames) {
		return partTypeNames[t]
	}
	return partTypeNames[PartGarbage]
}

// Prefix returns the separator written before the text of a part of this
// type when rendering the version string.
func (t PartType) Prefix() string {
	switch t {
	case PartPrimary, PartInterRev:
		return "."
	case PartAlpha:
		return "_alpha"
	case PartBeta:
		return "_beta"
	case PartPre:
		return "_pre"
	case PartRC:
		return "_rc"
	case PartPatch:
		return "_p"
	case PartRevision:
		return "-r"
	default:
		// PartFirst, PartCharacter, PartGarbage
		return ""
	}
}

// Part is one typed fragment of a version, like the "3" in "1.2.3" or the
// "1" in "_rc1".
type Part struct {
	Type PartType `json:"type" yaml:"type"`
	Text string   `json:"text" yaml:"text"`
}

// FullVersion renders version parts into the canonical version string.
func FullVersion(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.Type.Prefix())
		b.WriteString(p.Text)
	}
	return b.String()
}

// readPart reads a single version part. The number gives both the text
// length (n / 32) and the type tag (n % 32).
func (r *Reader) readPart() (Part, error) {
	start := r.Offset()
	val, err := r.ReadNum()
	if err != nil {
		return Part{}, err
	}
	n := val / partTagModulus
	if n > uint64(maxInt) {
		return Part{}, &Error{
			Kind:   KindInvalidEncoding,
			Offset: start,
			Detail: "version part too long",
		}
	}
	text, err := r.readText(int(n))
	if err != nil {
		return Part{}, err
	}
	return Part{
		Type: PartTypeFromTag(val % partTagModulus),
		Text: text,
	}, nil
}
