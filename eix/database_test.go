package eix

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PowerDNS/eixdb/eix/eixtest"
)

func compress(t *testing.T, comp Compression, data []byte) []byte {
	var buf bytes.Buffer
	var w io.WriteCloser
	switch comp {
	case CompressionNone:
		return data
	case CompressionGzip:
		w = gzip.NewWriter(&buf)
	case CompressionZstd:
		zw, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		w = zw
	case CompressionLZ4:
		w = lz4.NewWriter(&buf)
	case CompressionS2:
		w = s2.NewWriter(&buf)
	}
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	sample := eixtest.Sample()

	for _, comp := range []Compression{
		CompressionNone, CompressionGzip, CompressionZstd, CompressionLZ4, CompressionS2,
	} {
		t.Run(comp.String(), func(t *testing.T) {
			data := compress(t, comp, sample)
			assert.Equal(t, comp, DetectCompression(data))

			path := filepath.Join(dir, "portage.eix."+comp.String())
			require.NoError(t, os.WriteFile(path, data, 0o644))

			db, err := Open(path, CurrentFormatVersion)
			require.NoError(t, err)
			assert.Equal(t, comp, db.Compression())
			assert.Equal(t, uint32(39), db.Header().Version)

			packages, err := db.ReadAll()
			require.NoError(t, err)
			require.Len(t, packages, 3)
			assert.Equal(t, "net-misc/curl", packages[0].FullName())

			assert.NoError(t, db.Close())
			assert.NoError(t, db.Close(), "second close")
		})
	}
}

func TestOpen_errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing.eix"), 0)
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(dir, "bad.eix")
	require.NoError(t, os.WriteFile(path, []byte("not an eix file"), 0o644))
	_, err = Open(path, 0)
	assert.ErrorIs(t, err, ErrBadMagic)
	assert.Contains(t, err.Error(), path)

	path = filepath.Join(dir, "old.eix")
	old := eixtest.Build(eixtest.HeaderSpec{Features: eixtest.Features{Version: 30}})
	require.NoError(t, os.WriteFile(path, old, 0o644))
	_, err = Open(path, CurrentFormatVersion)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	db, err := OpenWithOptions(path, Options{})
	require.NoError(t, err)
	packages, err := db.ReadAll()
	assert.NoError(t, err)
	assert.Empty(t, packages)
	assert.NoError(t, db.Close())
}

func TestLoadData(t *testing.T) {
	data := compress(t, CompressionZstd, eixtest.Sample())
	db, err := LoadData(data, Options{StrictHints: true})
	require.NoError(t, err)
	defer db.Close()
	packages, err := db.ReadAll()
	require.NoError(t, err)
	assert.Len(t, packages, 3)
}

func TestDigest(t *testing.T) {
	a := eixtest.Sample()
	b := eixtest.Sample()
	assert.Equal(t, Digest(a), Digest(b))
	b[len(b)-1] ^= 1
	assert.NotEqual(t, Digest(a), Digest(b))
}
