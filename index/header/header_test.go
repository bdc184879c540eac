package header

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func genTestVal(ts time.Time) []byte {
	testVal := []byte{
		0, 0, 0, 0, 0, 0, 0, 0, // timestamp filled below
		0, 0, 0, 39, // format version
		0, 0x01, 0, 2, // version, flags, number of versions
		't', 'e', 's', 't', // application value
	}
	binary.BigEndian.PutUint64(testVal[:8], uint64(ts.UnixNano()))
	return testVal
}

func BenchmarkParse(b *testing.B) {
	ts := time.Now().Truncate(time.Millisecond)
	testVal := genTestVal(ts)

	var (
		h   Header
		v   []byte
		err error
	)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h, v, err = Parse(testVal)
	}
	b.StopTimer()

	// To ensure it did not get optimised away
	assert.NoError(b, err)
	assert.Equal(b, 0, h.Version)
	assert.Equal(b, []byte("test"), v)
}

func TestParse(t *testing.T) {
	ts := time.Now().Truncate(time.Nanosecond)
	testVal := genTestVal(ts)

	h, v, err := Parse(testVal)
	assert.NoError(t, err)
	assert.True(t, ts.Equal(h.Timestamp))
	assert.Equal(t, uint32(39), h.FormatVersion)
	assert.Equal(t, 0, h.Version)
	assert.Equal(t, FlagInstalled, h.Flags)
	assert.Equal(t, uint16(2), h.NumVersions)
	assert.Equal(t, []byte("test"), v)

	_, _, err = Parse(testVal[:HeaderSize-1])
	assert.Equal(t, ErrTooShort, err)

	testVal[VersionOffset] = 1
	_, _, err = Parse(testVal)
	assert.Equal(t, ErrVersion, err)
}

func TestSkip(t *testing.T) {
	testVal := genTestVal(time.Now())
	v, err := Skip(testVal)
	assert.NoError(t, err)
	assert.Equal(t, []byte("test"), v)

	_, err = Skip(testVal[:4])
	assert.Equal(t, ErrTooShort, err)
}

func TestHeader_Bytes(t *testing.T) {
	ts := time.Unix(1700000000, 123)
	h := Header{
		Timestamp:     ts,
		FormatVersion: 39,
		Flags:         FlagInstalled | FlagMasked,
		NumVersions:   3,
	}
	b := h.Bytes()
	assert.Len(t, b, HeaderSize)

	h2, v, err := Parse(b)
	assert.NoError(t, err)
	assert.Empty(t, v)
	assert.True(t, ts.Equal(h2.Timestamp))
	assert.Equal(t, h.FormatVersion, h2.FormatVersion)
	assert.Equal(t, h.Flags, h2.Flags)
	assert.Equal(t, h.NumVersions, h2.NumVersions)

	prefix := []byte("key:")
	b = h.AppendTo(prefix, []byte("value"))
	h3, v, err := Parse(b[len(prefix):])
	assert.NoError(t, err)
	assert.Equal(t, []byte("value"), v)
	assert.Equal(t, h.Flags, h3.Flags)
}
