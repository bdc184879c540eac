// Package source loads eix cache files from the local filesystem or from
// simpleblob storage.
package source

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/PowerDNS/simpleblob"
	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"

	"github.com/PowerDNS/eixdb/eix"
	"github.com/PowerDNS/eixdb/index"
)

const (
	// BlobPrefix marks a name as a blob in the configured storage
	BlobPrefix = "blob:"

	// Stdin is the name used to read from standard input
	Stdin = "-"
)

// ErrNoStorage is returned for a blob name when no storage is configured
var ErrNoStorage = errors.New("no storage configured for blob source")

// IsBlob reports whether name refers to a blob.
func IsBlob(name string) bool {
	return strings.HasPrefix(name, BlobPrefix)
}

// File is a fully loaded cache file.
type File struct {
	Name   string
	Data   []byte
	Digest uint64 // eix.Digest of Data
}

// Size returns the size of the raw file.
func (f *File) Size() datasize.ByteSize {
	return datasize.ByteSize(len(f.Data))
}

// Open decodes the file header.
func (f *File) Open(opt eix.Options) (*eix.Database, error) {
	db, err := eix.LoadData(f.Data, opt)
	if err != nil {
		return nil, errors.Wrap(err, f.Name)
	}
	return db, nil
}

// IndexSource describes the file for an index import.
func (f *File) IndexSource() index.Source {
	return index.Source{
		Name:   f.Name,
		Digest: f.Digest,
	}
}

// Loader loads files by name. Names starting with BlobPrefix are loaded
// from Storage, "-" reads stdin, anything else is a local path.
type Loader struct {
	Storage simpleblob.Interface // nil if no storage is configured
	Stdin   io.Reader            // defaults to os.Stdin
}

// Load reads the whole file and computes its digest.
func (l Loader) Load(ctx context.Context, name string) (*File, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case IsBlob(name):
		if l.Storage == nil {
			return nil, ErrNoStorage
		}
		data, err = l.Storage.Load(ctx, strings.TrimPrefix(name, BlobPrefix))
	case name == Stdin:
		in := l.Stdin
		if in == nil {
			in = os.Stdin
		}
		data, err = io.ReadAll(in)
	default:
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", name)
	}
	return &File{
		Name:   name,
		Data:   data,
		Digest: eix.Digest(data),
	}, nil
}
