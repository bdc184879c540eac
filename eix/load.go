package eix

import (
	"bufio"
	"bytes"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the compression wrapped around an eix file.
// eix itself writes plain files, but cache files shipped to other machines
// or stored remotely are usually compressed.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionLZ4
	CompressionS2 // also handles snappy framed streams
)

func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	case CompressionS2:
		return "s2"
	default:
		return "none"
	}
}

var (
	magicGzip   = []byte{0x1f, 0x8b}
	magicZstd   = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLZ4    = []byte{0x04, 0x22, 0x4d, 0x18}
	magicS2     = []byte("\xff\x06\x00\x00S2sTwO")
	magicSnappy = []byte("\xff\x06\x00\x00sNaPpY")
)

// maxMagicLen is the number of bytes needed to detect any compression
const maxMagicLen = 10

// DetectCompression looks at the first bytes of a file.
func DetectCompression(prefix []byte) Compression {
	switch {
	case bytes.HasPrefix(prefix, magicGzip):
		return CompressionGzip
	case bytes.HasPrefix(prefix, magicZstd):
		return CompressionZstd
	case bytes.HasPrefix(prefix, magicLZ4):
		return CompressionLZ4
	case bytes.HasPrefix(prefix, magicS2), bytes.HasPrefix(prefix, magicSnappy):
		return CompressionS2
	default:
		return CompressionNone
	}
}

// Decompress returns a reader with the uncompressed contents of r, based on
// the magic bytes at the start. Uncompressed input is returned as is.
// The returned ReadCloser does not close r.
func Decompress(r io.Reader) (io.ReadCloser, Compression, error) {
	br := bufio.NewReader(r)
	prefix, err := br.Peek(maxMagicLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, CompressionNone, err
	}

	comp := DetectCompression(prefix)
	switch comp {
	case CompressionGzip:
		g, err := gzip.NewReader(br)
		if err != nil {
			return nil, comp, err
		}
		return g, comp, nil
	case CompressionZstd:
		d, err := zstd.NewReader(br)
		if err != nil {
			return nil, comp, err
		}
		return d.IOReadCloser(), comp, nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(br)), comp, nil
	case CompressionS2:
		return io.NopCloser(s2.NewReader(br)), comp, nil
	default:
		return io.NopCloser(br), comp, nil
	}
}

// LoadData opens an in-memory eix file, which may be compressed.
func LoadData(data []byte, opt Options) (*Database, error) {
	return NewDatabase(bytes.NewReader(data), opt)
}

// Digest returns a fast hash of file contents, used to detect changes
// between reloads.
func Digest(data []byte) uint64 {
	return xxhash.Sum64(data)
}
