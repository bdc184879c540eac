package eix

import (
	"fmt"
	"strings"
)

// MaskFlags is the per-version mask bitfield as stored by eix. The decoder
// never interprets it, these constants only name the bits eix uses.
type MaskFlags uint8

const (
	MaskNone      MaskFlags = 0x00
	MaskPackage   MaskFlags = 0x01 // masked by package.mask
	MaskProfile   MaskFlags = 0x02 // masked by the profile
	MaskHard      MaskFlags = MaskPackage | MaskProfile
	MaskSystem    MaskFlags = 0x04 // in the system set
	MaskWorld     MaskFlags = 0x08 // in the world file
	MaskWorldSets MaskFlags = 0x10 // in a world set
	MaskInProfile MaskFlags = 0x20 // listed in the profile packages
	MaskMarked    MaskFlags = 0x40 // marked by the user

	maskInstalled = MaskInProfile | MaskMarked
)

var maskNames = []struct {
	flag MaskFlags
	name string
}{
	{MaskPackage, "package"},
	{MaskProfile, "profile"},
	{MaskSystem, "system"},
	{MaskWorld, "world"},
	{MaskWorldSets, "world_sets"},
	{MaskInProfile, "in_profile"},
	{MaskMarked, "marked"},
}

// Has reports whether all bits of f2 are set.
func (f MaskFlags) Has(f2 MaskFlags) bool {
	return f&f2 == f2
}

// String returns the names of the set bits joined by '|'. Unknown bits are
// shown in hex.
func (f MaskFlags) String() string {
	if f == MaskNone {
		return "none"
	}
	var parts []string
	rest := f
	for _, mn := range maskNames {
		if f&mn.flag != 0 {
			parts = append(parts, mn.name)
			rest &^= mn.flag
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%02x", uint8(rest)))
	}
	return strings.Join(parts, "|")
}
