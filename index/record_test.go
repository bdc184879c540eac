package index

import (
	"testing"

	"github.com/CrowdStrike/csproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PowerDNS/eixdb/eix"
)

func TestPackageRecord(t *testing.T) {
	for _, p := range samplePackages(t) {
		data := MarshalPackage(p)
		p2, err := UnmarshalPackage(data)
		require.NoError(t, err, p.FullName())
		assert.Equal(t, p, p2, p.FullName())
	}
}

func TestPackageRecord_optionalFields(t *testing.T) {
	empty := ""
	p := &eix.Package{
		Category: "app-misc",
		Name:     "hello",
		Versions: []*eix.Version{
			{
				Keywords:    []string{},
				Parts:       []eix.Part{},
				IUse:        []string{},
				RequiredUse: []string{},
				SrcURI:      &empty,
			},
			{
				Keywords:    []string{""},
				Parts:       []eix.Part{{Type: eix.PartGarbage, Text: "x"}},
				IUse:        []string{},
				RequiredUse: []string{},
				Depend: &eix.Depend{
					Depend:  []string{},
					RDepend: []string{},
					PDepend: []string{},
					BDepend: []string{},
					IDepend: []string{},
				},
			},
		},
	}
	p2, err := UnmarshalPackage(MarshalPackage(p))
	require.NoError(t, err)
	assert.Equal(t, p, p2)
	require.NotNil(t, p2.Versions[0].SrcURI, "empty SRC_URI is kept")
	assert.Nil(t, p2.Versions[0].Depend)
	assert.Nil(t, p2.Versions[1].SrcURI)
	assert.NotNil(t, p2.Versions[1].Depend, "empty depend block is kept")
}

func TestPackageRecord_unknownFields(t *testing.T) {
	data := MarshalPackage(&eix.Package{Name: "hello"})
	// Append a field from a newer version
	e := &encoder{b: data}
	e.putUint(99, 42)
	e.putString(98, "future")

	p, err := UnmarshalPackage(e.b)
	require.NoError(t, err)
	assert.Equal(t, "hello", p.Name)
}

func TestPackageRecord_wrongWireType(t *testing.T) {
	e := &encoder{}
	e.putUint(FieldPackageName, 1)
	_, err := UnmarshalPackage(e.b)
	var wtErr ErrUnexpectedWireType
	require.ErrorAs(t, err, &wtErr)
	assert.Equal(t, FieldPackageName, wtErr.Tag)
	assert.Equal(t, csproto.WireTypeLengthDelimited, wtErr.ExpWireType)
}

func TestMeta(t *testing.T) {
	m := Meta{
		GenerationID:  "6a8e9d5c-bc1f-4c3e-9f0e-3c2a1b0d9e8f",
		Source:        "blob:portage.eix.zst",
		FormatVersion: 39,
		Digest:        0xdeadbeefcafe,
		TimestampNano: 1700000000123456789,
		Categories:    170,
		Packages:      19000,
		Versions:      31000,
		Installed:     900,
		SourceBytes:   40 << 20,
	}
	var m2 Meta
	require.NoError(t, m2.Unmarshal(m.Marshal()))
	assert.Equal(t, m, m2)
	assert.Equal(t, int64(1700000000), m2.Time().Unix())

	var m3 Meta
	require.NoError(t, m3.Unmarshal(nil))
	assert.Equal(t, Meta{}, m3)
}
