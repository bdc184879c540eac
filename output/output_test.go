package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/PowerDNS/eixdb/eix"
	"github.com/PowerDNS/eixdb/eix/eixtest"
)

func samplePackages(t *testing.T) []*eix.Package {
	db, err := eix.LoadData(eixtest.Sample(), eix.Options{})
	require.NoError(t, err)
	defer db.Close()
	packages, err := db.ReadAll()
	require.NoError(t, err)
	return packages
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("yaml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.EqualError(t, err, "output format not supported: xml (options: json, yaml)")
}

func TestWritePackages_json(t *testing.T) {
	packages := samplePackages(t)
	packages[0].Versions[0].Depend.Depend = []string{">=dev-libs/openssl-3"}

	var buf bytes.Buffer
	require.NoError(t, WritePackages(&buf, FormatJSON, packages))

	// Same as encoding the whole list at once
	var expected bytes.Buffer
	enc := json.NewEncoder(&expected)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	require.NoError(t, enc.Encode(packages))
	assert.Equal(t, expected.String(), buf.String())
	assert.Contains(t, buf.String(), `">=dev-libs/openssl-3"`)

	var decoded []*eix.Package
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 3)
	for i, p := range packages {
		for _, v := range p.Versions {
			v.Parts = nil // not serialized
		}
		assert.Equal(t, p, decoded[i])
	}
}

type failingWriter struct {
	writes int
	failAt int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	if w.writes == w.failAt {
		return 0, errors.New("disk full")
	}
	return len(p), nil
}

func TestWritePackages_jsonWriteError(t *testing.T) {
	packages := samplePackages(t)

	// The separator goes out first, the encoded package second
	for _, failAt := range []int{1, 2, 4} {
		w := &failingWriter{failAt: failAt}
		pw, err := NewPackageWriter(w, FormatJSON)
		require.NoError(t, err)
		var werr error
		for _, p := range packages {
			if werr = pw.Write(p); werr != nil {
				break
			}
		}
		assert.EqualError(t, werr, "disk full", "failAt=%d", failAt)
	}
}

func TestWritePackages_empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePackages(&buf, FormatJSON, nil))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, WritePackages(&buf, FormatYAML, nil))
	assert.Equal(t, "[]\n", buf.String())

	_, err := NewPackageWriter(&buf, "toml")
	assert.Error(t, err)
}

func TestWritePackages_yaml(t *testing.T) {
	packages := samplePackages(t)

	var buf bytes.Buffer
	require.NoError(t, WritePackages(&buf, FormatYAML, packages))
	assert.True(t, strings.HasPrefix(buf.String(), "- category: net-misc\n"), buf.String())

	var decoded []*eix.Package
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, "ncurses", decoded[2].Name)
	curl := decoded[0]
	require.Len(t, curl.Versions, 2)
	assert.Equal(t, "8.6.0-r1", curl.Versions[1].VersionString)
	assert.Equal(t, "local", curl.Versions[1].RepoName)
	assert.Equal(t, 1, curl.Versions[1].Priority)
	require.NotNil(t, curl.Versions[0].SrcURI)
	assert.Equal(t, *packages[0].Versions[0].SrcURI, *curl.Versions[0].SrcURI)
	assert.Equal(t, packages[0].Versions[0].Depend, curl.Versions[0].Depend)
}

func TestVersionsTable(t *testing.T) {
	var buf bytes.Buffer
	vt := NewVersionsTable(&buf)
	for _, p := range samplePackages(t) {
		require.NoError(t, vt.Write(p))
	}
	require.NoError(t, vt.Close())
	assert.Equal(t, VersionsHeader+"\n"+
		"net-misc/curl 8.5.0 0 0 0 0 0 0 gentoo\n"+
		"net-misc/curl 8.6.0-r1 32 0 0 1 0 1 local\n"+
		"sys-libs/zlib 1.3.1 0 0 0 0 0 0 gentoo\n"+
		"sys-libs/ncurses 6.4_p20230401 64 0 0 0 0 0 gentoo\n",
		buf.String())

	// Header only
	buf.Reset()
	require.NoError(t, NewVersionsTable(&buf).Close())
	assert.Equal(t, VersionsHeader+"\n", buf.String())
}

func TestFilter(t *testing.T) {
	packages := samplePackages(t)
	names := func(f Filter) []string {
		var list []string
		for _, p := range packages {
			if p2, ok := f.Apply(p); ok {
				for _, v := range p2.Versions {
					list = append(list, p2.FullName()+"-"+v.VersionString)
				}
			}
		}
		return list
	}

	assert.Len(t, names(Filter{}), 4)
	assert.Equal(t, []string{"sys-libs/zlib-1.3.1", "sys-libs/ncurses-6.4_p20230401"},
		names(Filter{Categories: []string{"sys-libs"}}))
	assert.Equal(t, []string{"sys-libs/ncurses-6.4_p20230401"},
		names(Filter{Prefix: "sys-libs/n"}))
	assert.Equal(t, []string{"net-misc/curl-8.6.0-r1", "sys-libs/ncurses-6.4_p20230401"},
		names(Filter{Installed: true}))
	assert.Empty(t, names(Filter{Masked: true}))
	assert.Empty(t, names(Filter{Categories: []string{"dev-lang"}}))

	// The original package is left alone
	assert.Len(t, packages[0].Versions, 2)
}

func TestHeaderInfo(t *testing.T) {
	db, err := eix.LoadData(eixtest.Sample(), eix.Options{})
	require.NoError(t, err)
	defer db.Close()

	hi := NewHeaderInfo(db.Header())
	assert.Equal(t, uint32(39), hi.FormatVersion)
	assert.Equal(t, uint64(2), hi.Categories)
	assert.Equal(t, []string{"depend", "required_use", "src_uri"}, hi.Features)
	assert.Equal(t, []string{"@system"}, hi.WorldSets)
	require.Len(t, hi.Overlays, 2)
	assert.Equal(t, "local", hi.Overlays[1].Label)
	assert.Equal(t, 1, hi.Overlays[1].Priority)
	assert.Equal(t, 3, hi.StringTables["depend"])
	assert.Equal(t, 2, hi.StringTables["slot"])

	var buf bytes.Buffer
	require.NoError(t, WriteValue(&buf, FormatYAML, hi))
	assert.Contains(t, buf.String(), "format_version: 39\n")

	buf.Reset()
	require.NoError(t, WriteValue(&buf, FormatJSON, hi))
	assert.Contains(t, buf.String(), `"format_version": 39,`)

	assert.Error(t, WriteValue(&buf, "csv", hi))
}

func TestStats(t *testing.T) {
	db, err := eix.LoadData(eixtest.Sample(), eix.Options{})
	require.NoError(t, err)
	defer db.Close()

	var st Stats
	c := db.Cursor()
	require.NoError(t, c.Walk(func(p *eix.Package) error {
		st.Add(p)
		return nil
	}))
	st.SetCursorStats(c.Stats())

	assert.Equal(t, uint64(2), st.Categories)
	assert.Equal(t, uint64(3), st.Packages)
	assert.Equal(t, uint64(4), st.Versions)
	assert.Equal(t, uint64(2), st.Installed)
	assert.Equal(t, uint64(0), st.Masked)
	assert.Equal(t, map[string]uint64{"gentoo": 3, "local": 1}, st.PerRepo)
	assert.Equal(t, len(eixtest.Sample()), int(st.DecodedSize))
}
