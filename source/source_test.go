package source

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/PowerDNS/simpleblob/backends/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PowerDNS/eixdb/eix"
	"github.com/PowerDNS/eixdb/eix/eixtest"
)

func TestLoader_Load(t *testing.T) {
	ctx := context.Background()
	data := eixtest.Sample()

	dir := t.TempDir()
	path := filepath.Join(dir, "portage.eix")
	require.NoError(t, os.WriteFile(path, data, 0644))

	st := memory.New()
	require.NoError(t, st.Store(ctx, "hosts/a/portage.eix", data))

	l := Loader{Storage: st, Stdin: bytes.NewReader(data)}
	for _, name := range []string{path, "blob:hosts/a/portage.eix", "-"} {
		t.Run(name, func(t *testing.T) {
			f, err := l.Load(ctx, name)
			require.NoError(t, err)
			assert.Equal(t, name, f.Name)
			assert.Equal(t, data, f.Data)
			assert.Equal(t, eix.Digest(data), f.Digest)
			assert.Equal(t, uint64(len(data)), f.Size().Bytes())
			assert.Equal(t, f.Digest, f.IndexSource().Digest)

			db, err := f.Open(eix.Options{})
			require.NoError(t, err)
			defer db.Close()
			assert.Equal(t, uint32(39), db.Header().Version)
		})
	}
}

func TestLoader_errors(t *testing.T) {
	ctx := context.Background()

	_, err := Loader{}.Load(ctx, "blob:portage.eix")
	assert.ErrorIs(t, err, ErrNoStorage)

	_, err = Loader{Storage: memory.New()}.Load(ctx, "blob:missing.eix")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Loader{}.Load(ctx, filepath.Join(t.TempDir(), "missing.eix"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	f := &File{Name: "garbage", Data: []byte("not an eix file")}
	_, err = f.Open(eix.Options{})
	assert.ErrorIs(t, err, eix.ErrBadMagic)
	assert.Contains(t, err.Error(), "garbage")
}

func TestIsBlob(t *testing.T) {
	assert.True(t, IsBlob("blob:x"))
	assert.False(t, IsBlob("/var/cache/eix/portage.eix"))
	assert.False(t, IsBlob("-"))
}
