package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PowerDNS/eixdb/config"
	"github.com/PowerDNS/eixdb/eix/eixtest"
	"github.com/PowerDNS/eixdb/index"
	"github.com/PowerDNS/eixdb/output"
	"github.com/PowerDNS/eixdb/source"
)

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.yaml")

	c := config.Default()
	assert.NoError(t, loadConfigFile(&c, missing, false))
	assert.Error(t, loadConfigFile(&c, missing, true))

	fpath := filepath.Join(dir, "eixdb.yaml")
	require.NoError(t, os.WriteFile(fpath, []byte("index:\n  path: /tmp/foo\n"), 0644))
	require.NoError(t, loadConfigFile(&c, fpath, false))
	assert.Equal(t, "/tmp/foo", c.Index.Path)
}

func TestIsPackageName(t *testing.T) {
	assert.True(t, isPackageName("sys-libs/zlib"))
	assert.False(t, isPackageName("sys-libs/"))
	assert.False(t, isPackageName("sys-libs"))
	assert.False(t, isPackageName("/zlib"))
	assert.False(t, isPackageName("a/b/c"))
}

func TestBlobName(t *testing.T) {
	assert.Equal(t, "portage.eix", blobName("blob:portage.eix"))
	assert.Equal(t, "portage.eix", blobName("portage.eix"))
}

func TestCheckCacheFile(t *testing.T) {
	assert.NoError(t, checkCacheFile(eixtest.Sample()))
	assert.Error(t, checkCacheFile([]byte("not eix")))
}

func newTestReloader(t *testing.T, fpath string) *reloader {
	logger, _ := test.NewNullLogger()
	ix, err := index.Open(t.TempDir(), index.Options{}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	return &reloader{
		name: fpath,
		ix:   ix,
		l:    logger,
	}
}

func TestReloader(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "portage.eix")
	require.NoError(t, os.WriteFile(fpath, eixtest.Sample(), 0644))
	ctx := context.Background()

	r := newTestReloader(t, fpath)
	r.init()

	changed, err := r.check(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	m, err := r.ix.Meta()
	require.NoError(t, err)
	assert.Equal(t, fpath, m.Source)
	assert.Equal(t, uint64(3), m.Packages)

	changed, err = r.check(ctx)
	require.NoError(t, err)
	assert.False(t, changed, "same contents")

	// A restarted reloader skips the unchanged file
	r2 := &reloader{name: fpath, ix: r.ix, l: r.l}
	r2.init()
	changed, err = r2.check(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	// A broken file fails, but keeps the index
	require.NoError(t, os.WriteFile(fpath, []byte("eix\n"), 0644))
	_, err = r.check(ctx)
	assert.Error(t, err)
	m2, err := r.ix.Meta()
	require.NoError(t, err)
	assert.Equal(t, m.GenerationID, m2.GenerationID)
}

func TestReloader_missingFile(t *testing.T) {
	r := newTestReloader(t, filepath.Join(t.TempDir(), "missing.eix"))
	r.init()
	_, err := r.check(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestQueryIndex(t *testing.T) {
	r := newTestReloader(t, source.Stdin)
	r.loader.Stdin = bytes.NewReader(eixtest.Sample())
	_, err := r.check(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	pw, err := output.NewPackageWriter(&buf, output.FormatYAML)
	require.NoError(t, err)
	require.NoError(t, queryIndex(r.ix, []string{"net-misc/curl", "sys-libs/"}, pw))
	require.NoError(t, pw.Close())
	s := buf.String()
	assert.Contains(t, s, "name: curl")
	assert.Contains(t, s, "name: zlib")
	assert.Contains(t, s, "name: ncurses")

	err = queryIndex(r.ix, []string{"sys-libs/glibc"}, pw)
	assert.ErrorIs(t, err, index.ErrNotFound)
}

func TestGenDocsPage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, genDocsPage(rootCmd, &buf))
	s := buf.String()
	assert.Contains(t, s, "## eixdb dump")
	assert.Contains(t, s, "## eixdb blobs put")
	assert.NotContains(t, s, "### SEE ALSO")
}
