package eix

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PowerDNS/eixdb/eix/eixtest"
)

func openSample(t *testing.T, data []byte, opt Options) *Database {
	db, err := NewDatabase(bytes.NewReader(data), opt)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCursor_sample(t *testing.T) {
	db := openSample(t, eixtest.Sample(), Options{MinVersion: CurrentFormatVersion})
	h := db.Header()
	assert.Equal(t, uint32(39), h.Version)
	assert.Equal(t, uint64(2), h.Categories)

	c := db.Cursor()
	more, err := c.NextCategory()
	require.NoError(t, err)
	require.True(t, more)
	assert.Equal(t, "net-misc", c.Category())

	p, err := c.ReadPackage()
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "net-misc/curl", p.FullName())
	assert.Equal(t, "https://curl.se/", p.Homepage)
	assert.Equal(t, "MIT", p.Licenses)
	require.Len(t, p.Versions, 2)

	v := p.Versions[0]
	assert.Equal(t, "8.5.0", v.VersionString)
	assert.Equal(t, "8", v.EAPI)
	assert.False(t, v.IsInstalled())
	assert.Equal(t, []string{"amd64", "~arm64"}, v.Keywords)
	assert.Equal(t, "gentoo", v.RepoName)
	assert.Equal(t, 0, v.Priority)
	assert.Equal(t, []string{"ssl", "+ipv6"}, v.IUse)
	assert.Equal(t, []string{"ipv6? ( ssl )"}, v.RequiredUse)
	assert.Equal(t, []string{"dev-libs/openssl"}, v.Depend.Depend)
	assert.Equal(t, []string{"dev-libs/openssl", "sys-libs/zlib"}, v.Depend.RDepend)
	assert.Equal(t, []string{}, v.Depend.PDepend)
	assert.Equal(t, []string{"virtual/pkgconfig"}, v.Depend.BDepend)
	assert.Equal(t, []string{}, v.Depend.IDepend)
	require.NotNil(t, v.SrcURI)

	v = p.Versions[1]
	assert.Equal(t, "8.6.0-r1", v.VersionString)
	assert.True(t, v.IsInstalled())
	assert.Equal(t, "local", v.RepoName)
	assert.Equal(t, 1, v.Priority)

	// Category exhausted
	p, err = c.ReadPackage()
	require.NoError(t, err)
	assert.Nil(t, p)

	more, err = c.NextCategory()
	require.NoError(t, err)
	require.True(t, more)
	assert.Equal(t, "sys-libs", c.Category())

	var names []string
	for {
		p, err := c.ReadPackage()
		require.NoError(t, err)
		if p == nil {
			break
		}
		names = append(names, p.Name)
		if p.Name == "ncurses" {
			assert.Equal(t, "6.4_p20230401", p.Versions[0].VersionString)
			assert.True(t, p.Versions[0].IsInstalled())
		}
	}
	assert.Equal(t, []string{"zlib", "ncurses"}, names)

	more, err = c.NextCategory()
	require.NoError(t, err)
	assert.False(t, more)
	more, err = c.NextCategory()
	require.NoError(t, err)
	assert.False(t, more)

	st := c.Stats()
	assert.Equal(t, uint64(2), st.Categories)
	assert.Equal(t, uint64(3), st.Packages)
	assert.Equal(t, uint64(4), st.Versions)
	assert.Equal(t, int64(len(eixtest.Sample())), st.Bytes)
}

func TestCursor_categoryNotDone(t *testing.T) {
	db := openSample(t, eixtest.Sample(), Options{})
	c := db.Cursor()

	more, err := c.NextCategory()
	require.NoError(t, err)
	require.True(t, more)

	_, err = c.NextCategory()
	assert.ErrorIs(t, err, ErrCategoryNotDone)

	// Not fatal, the package can still be read
	p, err := c.ReadPackage()
	require.NoError(t, err)
	assert.Equal(t, "curl", p.Name)
}

func TestCursor_readPackageBeforeCategory(t *testing.T) {
	db := openSample(t, eixtest.Sample(), Options{})
	p, err := db.Cursor().ReadPackage()
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestCursor_Walk_resume(t *testing.T) {
	db := openSample(t, eixtest.Sample(), Options{})
	c := db.Cursor()

	// Walk continues where manual reading stopped
	_, err := c.NextCategory()
	require.NoError(t, err)
	var names []string
	err = c.Walk(func(p *Package) error {
		names = append(names, p.FullName())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"net-misc/curl", "sys-libs/zlib", "sys-libs/ncurses"}, names)
}

func TestCursor_Walk_stop(t *testing.T) {
	db := openSample(t, eixtest.Sample(), Options{})
	stop := errors.New("stop")
	n := 0
	err := db.Cursor().Walk(func(p *Package) error {
		n++
		return stop
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 1, n)
}

func TestCursor_truncated(t *testing.T) {
	data := eixtest.Sample()
	for i := 0; i < len(data); i++ {
		db, err := NewDatabase(bytes.NewReader(data[:i]), Options{})
		if err != nil {
			require.ErrorIs(t, err, ErrTruncated, "header prefix %d", i)
			continue
		}
		_, err = db.ReadAll()
		require.ErrorIs(t, err, ErrTruncated, "prefix %d", i)

		// The cursor stays failed
		_, err2 := db.Cursor().NextCategory()
		assert.Equal(t, err, err2)
		assert.Equal(t, err, db.Cursor().Err())
		_ = db.Close()
	}
}

func TestCursor_emptyCategory(t *testing.T) {
	f := eixtest.Features{Version: 39}
	data := eixtest.Build(eixtest.HeaderSpec{Features: f},
		eixtest.Category{Name: "virtual"},
		eixtest.Category{Name: "x11-misc", Packages: []eixtest.PackageSpec{
			{Name: "xdg-utils", Versions: []eixtest.VersionSpec{{}}},
		}},
	)
	// The header tables are empty, so nothing in the package resolves
	db := openSample(t, data, Options{})
	_, err := db.ReadAll()
	assert.ErrorIs(t, err, ErrBadReference)

	data = eixtest.Build(eixtest.HeaderSpec{
		Features: f,
		Overlays: []eixtest.Overlay{{Path: "/gentoo", Label: "gentoo"}},
		EAPI:     []string{"8"},
		Slot:     []string{""},
		License:  []string{""},
	},
		eixtest.Category{Name: "virtual"},
		eixtest.Category{Name: "x11-misc", Packages: []eixtest.PackageSpec{
			{Name: "xdg-utils", Versions: []eixtest.VersionSpec{{}}},
		}},
	)
	db = openSample(t, data, Options{})
	packages, err := db.ReadAll()
	require.NoError(t, err)
	require.Len(t, packages, 1)
	assert.Equal(t, "x11-misc/xdg-utils", packages[0].FullName())
	assert.Equal(t, "", packages[0].Versions[0].VersionString)
	assert.Equal(t, uint64(2), db.Cursor().Stats().Categories)
}

func TestCursor_emptyLicenseTable(t *testing.T) {
	// Smallest stream with a package: no overlays, no tables, no versions
	data := eixtest.Build(eixtest.HeaderSpec{Features: eixtest.Features{Version: 39}},
		eixtest.Category{Name: "virtual", Packages: []eixtest.PackageSpec{
			{Name: "libc"},
		}},
	)
	db := openSample(t, data, Options{})
	assert.Empty(t, db.Header().Overlays)
	packages, err := db.ReadAll()
	assert.Empty(t, packages)
	require.ErrorIs(t, err, ErrBadReference)
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "licenses", e.Field)

	// One license entry is enough for the same package to decode
	data = eixtest.Build(eixtest.HeaderSpec{
		Features: eixtest.Features{Version: 39},
		License:  []string{"GPL-2"},
	},
		eixtest.Category{Name: "virtual", Packages: []eixtest.PackageSpec{
			{Name: "libc"},
		}},
	)
	db = openSample(t, data, Options{})
	packages, err = db.ReadAll()
	require.NoError(t, err)
	require.Len(t, packages, 1)
	assert.Equal(t, "virtual/libc", packages[0].FullName())
	assert.Equal(t, "GPL-2", packages[0].Licenses)
	assert.Empty(t, packages[0].Versions)
}

func TestCursor_strictHints(t *testing.T) {
	f := eixtest.Features{Version: 39}
	build := func(delta int) []byte {
		return eixtest.Build(eixtest.HeaderSpec{
			Features: f,
			Overlays: []eixtest.Overlay{{Path: "/gentoo", Label: "gentoo"}},
			EAPI:     []string{"8"},
			Slot:     []string{"0"},
			License:  []string{"MIT"},
		}, eixtest.Category{Name: "app-misc", Packages: []eixtest.PackageSpec{
			{Name: "hello", Versions: []eixtest.VersionSpec{{}}, HintDelta: delta},
		}})
	}

	// Hints are ignored by default
	db := openSample(t, build(3), Options{})
	_, err := db.ReadAll()
	assert.NoError(t, err)

	db = openSample(t, build(0), Options{StrictHints: true})
	_, err = db.ReadAll()
	assert.NoError(t, err)

	db = openSample(t, build(3), Options{StrictHints: true})
	_, err = db.ReadAll()
	require.ErrorIs(t, err, ErrInvalidEncoding)
	assert.Contains(t, err.Error(), "app-misc/hello")
}
