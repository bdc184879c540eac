package eix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PowerDNS/eixdb/eix/eixtest"
)

func testHeaderSpec(f eixtest.Features) eixtest.HeaderSpec {
	return eixtest.HeaderSpec{
		Features:   f,
		Categories: 2,
		Overlays: []eixtest.Overlay{
			{Path: "/var/db/repos/gentoo", Label: "gentoo"},
			{Path: "/var/db/repos/guru", Label: "guru"},
		},
		EAPI:      []string{"8"},
		License:   []string{"GPL-2"},
		Keywords:  []string{"amd64", "~amd64"},
		IUse:      []string{"ssl"},
		Slot:      []string{"0"},
		WorldSets: []string{"@system", "@world"},
		Depend:    []string{"dev-libs/openssl"},
	}
}

func TestReadHeader(t *testing.T) {
	f := eixtest.Features{Version: 39, Depend: true, RequiredUse: true}
	enc := eixtest.AppendHeader(nil, testHeaderSpec(f))

	r := newTestReader(enc)
	h, err := ReadHeader(r, DefaultMinFormatVersion)
	require.NoError(t, err)
	assert.Equal(t, int64(len(enc)), r.Offset(), "whole header consumed")

	assert.Equal(t, uint32(39), h.Version)
	assert.Equal(t, uint64(2), h.Categories)
	assert.Equal(t, []Overlay{
		{Path: "/var/db/repos/gentoo", Label: "gentoo", Priority: 0},
		{Path: "/var/db/repos/guru", Label: "guru", Priority: 1},
	}, h.Overlays)
	assert.Equal(t, []string{"amd64", "~amd64"}, h.Keywords.Strings())
	assert.Equal(t, []string{"@system", "@world"}, h.WorldSets)
	assert.True(t, h.UseDepend)
	assert.True(t, h.UseRequiredUse)
	assert.False(t, h.UseSrcURI)
	assert.Equal(t, []string{"dev-libs/openssl"}, h.Depend.Strings())

	caps := h.Capabilities()
	assert.Equal(t, SaveBitmaskDep|SaveBitmaskRequiredUse, caps.Bitmask())
	assert.True(t, caps.HasEAPI())
	assert.True(t, caps.HasIDepend())

	o, ok := h.Overlay(1)
	assert.True(t, ok)
	assert.Equal(t, "guru", o.Label)
	_, ok = h.Overlay(2)
	assert.False(t, ok)
}

func TestReadHeader_noDepend(t *testing.T) {
	spec := testHeaderSpec(eixtest.Features{Version: 39})
	enc := eixtest.AppendHeader(nil, spec)
	h, err := ReadHeader(newTestReader(enc), 0)
	require.NoError(t, err)
	assert.False(t, h.UseDepend)
	assert.Equal(t, 0, h.Depend.Len())
}

func TestReadHeader_badMagic(t *testing.T) {
	spec := testHeaderSpec(eixtest.Features{Version: 39})
	spec.Magic = "xie\n"
	enc := eixtest.AppendHeader(nil, spec)
	_, err := ReadHeader(newTestReader(enc), 0)
	assert.ErrorIs(t, err, ErrBadMagic)

	_, err = ReadHeader(newTestReader([]byte("ei")), 0)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestReadHeader_unsupportedVersion(t *testing.T) {
	enc := eixtest.AppendHeader(nil, testHeaderSpec(eixtest.Features{Version: 38}))
	_, err := ReadHeader(newTestReader(enc), 39)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
	assert.Contains(t, err.Error(), "38")

	_, err = ReadHeader(newTestReader(enc), 38)
	assert.NoError(t, err)
}

func TestReadHeader_truncated(t *testing.T) {
	f := eixtest.Features{Version: 39, Depend: true, RequiredUse: true, SrcURI: true}
	enc := eixtest.AppendHeader(nil, testHeaderSpec(f))
	for i := 0; i < len(enc); i++ {
		_, err := ReadHeader(newTestReader(enc[:i]), 0)
		require.ErrorIs(t, err, ErrTruncated, "prefix length %d", i)
	}
}

func TestReadHeader_errorField(t *testing.T) {
	enc := []byte("eix\n")
	enc = eixtest.AppendNum(enc, 39)
	_, err := ReadHeader(newTestReader(enc), 0)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindTruncated, e.Kind)
	assert.Equal(t, "categories", e.Field)
	assert.Equal(t, int64(len(enc)), e.Offset)
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		version                uint32
		eapi, bdepend, idepend bool
	}{
		{31, false, false, false},
		{32, false, true, false},
		{35, false, true, false},
		{36, true, true, false},
		{38, true, true, false},
		{39, true, true, true},
	}
	for _, tt := range tests {
		c := NewCapabilities(tt.version, 0)
		assert.Equal(t, tt.eapi, c.HasEAPI(), "eapi %d", tt.version)
		assert.Equal(t, tt.bdepend, c.HasBDepend(), "bdepend %d", tt.version)
		assert.Equal(t, tt.idepend, c.HasIDepend(), "idepend %d", tt.version)
	}

	c := NewCapabilities(39, SaveBitmaskSrcURI|0x80)
	assert.False(t, c.Depend)
	assert.False(t, c.RequiredUse)
	assert.True(t, c.SrcURI)
	assert.Equal(t, SaveBitmaskSrcURI, c.Bitmask())
}

func TestStringTable(t *testing.T) {
	st := NewStringTable()
	assert.Equal(t, 0, st.Add("a"))
	assert.Equal(t, 1, st.Add("b"))
	assert.Equal(t, 0, st.Add("a"))
	assert.Equal(t, 2, st.Len())

	s, ok := st.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "b", s)
	_, ok = st.Get(2)
	assert.False(t, ok)
	_, ok = st.Get(-1)
	assert.False(t, ok)

	idx, ok := st.Index("b")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	_, ok = st.Index("c")
	assert.False(t, ok)

	var empty *StringTable
	assert.Equal(t, 0, empty.Len())
}
