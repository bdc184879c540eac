package eix

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// Options configure how a Database is read.
type Options struct {
	// MinVersion is the oldest format version accepted. Zero accepts any
	// version.
	MinVersion uint32 `yaml:"min_version"`
	// StrictHints enables checking the package length hints against the
	// number of bytes actually read. eix itself never checks these.
	StrictHints bool `yaml:"strict_hints"`
}

// Database is a single decoding session over one eix file. The header is
// read when the Database is created, packages are read through its Cursor.
// A Database must be closed after use.
type Database struct {
	file        io.Closer // nil if we do not own the source
	rc          io.ReadCloser
	r           *Reader
	header      *Header
	cursor      *Cursor
	compression Compression
	closed      bool
}

// Open opens an eix file and reads its header.
func Open(path string, minVersion uint32) (*Database, error) {
	return OpenWithOptions(path, Options{MinVersion: minVersion})
}

// OpenWithOptions opens an eix file and reads its header.
// The file is closed on error, otherwise it is closed by Close.
func OpenWithOptions(path string, opt Options) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	db, err := NewDatabase(f, opt)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, path)
	}
	db.file = f
	return db, nil
}

// NewDatabase reads the header from r, which may be compressed.
// Close does not close r itself.
func NewDatabase(r io.Reader, opt Options) (*Database, error) {
	rc, comp, err := Decompress(r)
	if err != nil {
		return nil, errors.Wrap(err, "decompress")
	}
	reader := NewReader(rc)
	h, err := ReadHeader(reader, opt.MinVersion)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	return &Database{
		rc:          rc,
		r:           reader,
		header:      h,
		cursor:      NewCursor(reader, h, opt.StrictHints),
		compression: comp,
	}, nil
}

// Header returns the decoded header.
func (db *Database) Header() *Header {
	return db.header
}

// Cursor returns the cursor over the categories and packages. There is
// only one per Database, since the stream can only be read once.
func (db *Database) Cursor() *Cursor {
	return db.cursor
}

// Compression returns the detected compression of the file.
func (db *Database) Compression() Compression {
	return db.compression
}

// ReadAll reads all remaining packages.
func (db *Database) ReadAll() ([]*Package, error) {
	var packages []*Package
	err := db.cursor.Walk(func(p *Package) error {
		packages = append(packages, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return packages, nil
}

// Close releases the decompressor and the file, if opened by Open.
// It is safe to call Close more than once.
func (db *Database) Close() error {
	if db.closed {
		return nil
	}
	db.closed = true
	err := db.rc.Close()
	if db.file != nil {
		if ferr := db.file.Close(); err == nil {
			err = ferr
		}
	}
	return err
}
