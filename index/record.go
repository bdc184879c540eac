package index

import (
	"github.com/CrowdStrike/csproto"

	"github.com/PowerDNS/eixdb/eix"
)

// Protobuf field numbers of the stored package records.
// Changing these breaks existing indexes.
const (
	FieldPackageCategory    = 1
	FieldPackageName        = 2
	FieldPackageDescription = 3
	FieldPackageHomepage    = 4
	FieldPackageLicenses    = 5
	FieldPackageVersions    = 6

	FieldVersionString      = 1
	FieldVersionEAPI        = 2
	FieldVersionMaskFlags   = 3
	FieldVersionProperties  = 4
	FieldVersionRestrict    = 5
	FieldVersionKeywords    = 6
	FieldVersionParts       = 7
	FieldVersionSlot        = 8
	FieldVersionOverlayKey  = 9
	FieldVersionRepoName    = 10
	FieldVersionPriority    = 11
	FieldVersionIUse        = 12
	FieldVersionRequiredUse = 13
	FieldVersionDepend      = 14
	FieldVersionSrcURI      = 15

	FieldPartType = 1
	FieldPartText = 2

	FieldDependDepend  = 1
	FieldDependRDepend = 2
	FieldDependPDepend = 3
	FieldDependBDepend = 4
	FieldDependIDepend = 5
)

// MarshalPackage encodes a package as a protobuf message.
func MarshalPackage(p *eix.Package) []byte {
	e := &encoder{b: make([]byte, 0, 256)}
	e.putString(FieldPackageCategory, p.Category)
	e.putString(FieldPackageName, p.Name)
	e.putString(FieldPackageDescription, p.Description)
	e.putString(FieldPackageHomepage, p.Homepage)
	e.putString(FieldPackageLicenses, p.Licenses)
	for _, v := range p.Versions {
		e.putBytes(FieldPackageVersions, marshalVersion(v))
	}
	return e.b
}

func marshalVersion(v *eix.Version) []byte {
	e := &encoder{b: make([]byte, 0, 128)}
	e.putString(FieldVersionString, v.VersionString)
	e.putString(FieldVersionEAPI, v.EAPI)
	e.putUint(FieldVersionMaskFlags, uint64(v.MaskFlags))
	e.putUint(FieldVersionProperties, uint64(v.PropertiesFlags))
	e.putUint(FieldVersionRestrict, v.RestrictFlags)
	e.putStrings(FieldVersionKeywords, v.Keywords)
	for _, p := range v.Parts {
		pe := &encoder{}
		pe.putUint(FieldPartType, uint64(p.Type))
		pe.putString(FieldPartText, p.Text)
		e.putBytes(FieldVersionParts, pe.b)
	}
	e.putString(FieldVersionSlot, v.Slot)
	e.putUint(FieldVersionOverlayKey, v.OverlayKey)
	e.putString(FieldVersionRepoName, v.RepoName)
	e.putUint(FieldVersionPriority, uint64(v.Priority))
	e.putStrings(FieldVersionIUse, v.IUse)
	e.putStrings(FieldVersionRequiredUse, v.RequiredUse)
	if v.Depend != nil {
		de := &encoder{}
		de.putStrings(FieldDependDepend, v.Depend.Depend)
		de.putStrings(FieldDependRDepend, v.Depend.RDepend)
		de.putStrings(FieldDependPDepend, v.Depend.PDepend)
		de.putStrings(FieldDependBDepend, v.Depend.BDepend)
		de.putStrings(FieldDependIDepend, v.Depend.IDepend)
		e.putBytes(FieldVersionDepend, de.b)
	}
	if v.SrcURI != nil {
		// Presence matters, an empty SRC_URI is still written
		e.putStringAlways(FieldVersionSrcURI, *v.SrcURI)
	}
	return e.b
}

// UnmarshalPackage decodes a package stored by MarshalPackage.
// Lists are never nil, like the ones returned by the eix decoder.
func UnmarshalPackage(data []byte) (*eix.Package, error) {
	p := &eix.Package{Versions: []*eix.Version{}}
	d := csproto.NewDecoder(data)
	for d.More() {
		tag, wireType, err := d.DecodeTag()
		if err != nil {
			return nil, err
		}
		switch tag {
		case FieldPackageCategory:
			p.Category, err = getString(d, tag, wireType)
		case FieldPackageName:
			p.Name, err = getString(d, tag, wireType)
		case FieldPackageDescription:
			p.Description, err = getString(d, tag, wireType)
		case FieldPackageHomepage:
			p.Homepage, err = getString(d, tag, wireType)
		case FieldPackageLicenses:
			p.Licenses, err = getString(d, tag, wireType)
		case FieldPackageVersions:
			var b []byte
			b, err = getBytes(d, tag, wireType)
			if err == nil {
				var v *eix.Version
				v, err = unmarshalVersion(b)
				p.Versions = append(p.Versions, v)
			}
		default:
			_, err = d.Skip(tag, wireType)
		}
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

func unmarshalVersion(data []byte) (*eix.Version, error) {
	v := &eix.Version{
		Keywords:    []string{},
		Parts:       []eix.Part{},
		IUse:        []string{},
		RequiredUse: []string{},
	}
	d := csproto.NewDecoder(data)
	for d.More() {
		tag, wireType, err := d.DecodeTag()
		if err != nil {
			return nil, err
		}
		var s string
		switch tag {
		case FieldVersionString:
			v.VersionString, err = getString(d, tag, wireType)
		case FieldVersionEAPI:
			v.EAPI, err = getString(d, tag, wireType)
		case FieldVersionMaskFlags:
			v.MaskFlags, err = getUInt8(d, tag, wireType)
		case FieldVersionProperties:
			v.PropertiesFlags, err = getUInt8(d, tag, wireType)
		case FieldVersionRestrict:
			v.RestrictFlags, err = getUInt64(d, tag, wireType)
		case FieldVersionKeywords:
			s, err = getString(d, tag, wireType)
			v.Keywords = append(v.Keywords, s)
		case FieldVersionParts:
			var b []byte
			b, err = getBytes(d, tag, wireType)
			if err == nil {
				var p eix.Part
				p, err = unmarshalPart(b)
				v.Parts = append(v.Parts, p)
			}
		case FieldVersionSlot:
			v.Slot, err = getString(d, tag, wireType)
		case FieldVersionOverlayKey:
			v.OverlayKey, err = getUInt64(d, tag, wireType)
		case FieldVersionRepoName:
			v.RepoName, err = getString(d, tag, wireType)
		case FieldVersionPriority:
			var prio int64
			prio, err = getInt64(d, tag, wireType)
			v.Priority = int(prio)
		case FieldVersionIUse:
			s, err = getString(d, tag, wireType)
			v.IUse = append(v.IUse, s)
		case FieldVersionRequiredUse:
			s, err = getString(d, tag, wireType)
			v.RequiredUse = append(v.RequiredUse, s)
		case FieldVersionDepend:
			var b []byte
			b, err = getBytes(d, tag, wireType)
			if err == nil {
				v.Depend, err = unmarshalDepend(b)
			}
		case FieldVersionSrcURI:
			s, err = getString(d, tag, wireType)
			v.SrcURI = &s
		default:
			_, err = d.Skip(tag, wireType)
		}
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

func unmarshalPart(data []byte) (eix.Part, error) {
	var p eix.Part
	d := csproto.NewDecoder(data)
	for d.More() {
		tag, wireType, err := d.DecodeTag()
		if err != nil {
			return p, err
		}
		switch tag {
		case FieldPartType:
			var t uint64
			t, err = getUInt64(d, tag, wireType)
			p.Type = eix.PartTypeFromTag(t)
		case FieldPartText:
			p.Text, err = getString(d, tag, wireType)
		default:
			_, err = d.Skip(tag, wireType)
		}
		if err != nil {
			return p, err
		}
	}
	return p, nil
}

func unmarshalDepend(data []byte) (*eix.Depend, error) {
	dep := &eix.Depend{
		Depend:  []string{},
		RDepend: []string{},
		PDepend: []string{},
		BDepend: []string{},
		IDepend: []string{},
	}
	lists := map[int]*[]string{
		FieldDependDepend:  &dep.Depend,
		FieldDependRDepend: &dep.RDepend,
		FieldDependPDepend: &dep.PDepend,
		FieldDependBDepend: &dep.BDepend,
		FieldDependIDepend: &dep.IDepend,
	}
	d := csproto.NewDecoder(data)
	for d.More() {
		tag, wireType, err := d.DecodeTag()
		if err != nil {
			return nil, err
		}
		list, ok := lists[tag]
		if !ok {
			if _, err := d.Skip(tag, wireType); err != nil {
				return nil, err
			}
			continue
		}
		s, err := getString(d, tag, wireType)
		if err != nil {
			return nil, err
		}
		*list = append(*list, s)
	}
	return dep, nil
}
