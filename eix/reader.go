package eix

import (
	"bufio"
	"fmt"
	"io"
	"unicode/utf8"
)

// magicNumChar is the escape byte of the eix number encoding
const magicNumChar = 0xFF

// maxChunk limits how much we allocate up front for a length prefixed
// field, so that a corrupt length cannot trigger a huge allocation before
// we notice the input is too short.
const maxChunk = 64 * 1024

// maxPrealloc limits the capacity reserved for count prefixed lists.
const maxPrealloc = 1024

// Reader reads the primitive eix types from a byte stream and tracks the
// current offset. It never seeks.
type Reader struct {
	r   *bufio.Reader
	pos int64
}

// NewReader creates a Reader. If r is not already a *bufio.Reader, it is
// wrapped in one.
func NewReader(r io.Reader) *Reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.pos
}

func (r *Reader) truncated(start int64, err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return &Error{Kind: KindTruncated, Offset: start, Err: err}
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	start := r.pos
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, r.truncated(start, err)
	}
	r.pos++
	return b, nil
}

// ReadNum reads a number in the eix variable length encoding.
//
// Values 0-254 are stored as a single byte. 0xFF escapes a longer number:
// every further 0xFF widens the big-endian tail by one byte. The next byte
// is the most significant byte of the value, unless it is 0, in which case
// the value starts with 0xFF and the tail is one byte shorter.
//
//	254    = FE
//	255    = FF 00
//	256    = FF 01 00
//	0xFF00 = FF FF 00 00
func (r *Reader) ReadNum() (uint64, error) {
	start := r.pos
	c, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if c != magicNumChar {
		return uint64(c), nil
	}

	toGet := 1
	for {
		c, err = r.ReadByte()
		if err != nil {
			return 0, err
		}
		if c != magicNumChar {
			break
		}
		toGet++
	}

	var result uint64
	if c != 0 {
		result = uint64(c)
	} else {
		// A leading 0 after the escape stands for the escape byte itself
		result = magicNumChar
		toGet--
	}

	for i := 0; i < toGet; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if result>>56 != 0 {
			return 0, &Error{
				Kind:   KindInvalidEncoding,
				Offset: start,
				Detail: "number does not fit in 64 bits",
			}
		}
		result = result<<8 | uint64(b)
	}
	return result, nil
}

// readCount reads a number that is used as a count or length and checks
// that it fits in an int.
func (r *Reader) readCount() (int, error) {
	start := r.pos
	n, err := r.ReadNum()
	if err != nil {
		return 0, err
	}
	if n > uint64(maxInt) {
		return 0, &Error{
			Kind:   KindInvalidEncoding,
			Offset: start,
			Detail: fmt.Sprintf("count %d too large", n),
		}
	}
	return int(n), nil
}

const maxInt = int(^uint(0) >> 1)

// readBytes reads exactly n bytes. Large reads are done in chunks so that
// memory is only allocated for data that is actually present.
func (r *Reader) readBytes(n int) ([]byte, error) {
	start := r.pos
	first := n
	if first > maxChunk {
		first = maxChunk
	}
	buf := make([]byte, 0, first)
	for len(buf) < n {
		chunk := n - len(buf)
		if chunk > maxChunk {
			chunk = maxChunk
		}
		off := len(buf)
		buf = append(buf, make([]byte, chunk)...)
		m, err := io.ReadFull(r.r, buf[off:])
		r.pos += int64(m)
		if err != nil {
			return nil, r.truncated(start, err)
		}
	}
	return buf, nil
}

// readText reads n bytes that must form valid UTF-8 text.
func (r *Reader) readText(n int) (string, error) {
	start := r.pos
	if n == 0 {
		return "", nil
	}
	b, err := r.readBytes(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", &Error{
			Kind:   KindInvalidEncoding,
			Offset: start,
			Detail: "string is not valid UTF-8",
		}
	}
	return string(b), nil
}

// ReadString reads a length prefixed UTF-8 string.
func (r *Reader) ReadString() (string, error) {
	n, err := r.readCount()
	if err != nil {
		return "", err
	}
	return r.readText(n)
}

// ReadHashString reads a single string table index and resolves it.
func (r *Reader) ReadHashString(t *StringTable) (string, error) {
	start := r.pos
	idx, err := r.ReadNum()
	if err != nil {
		return "", err
	}
	if idx >= uint64(t.Len()) {
		return "", &Error{
			Kind:   KindBadReference,
			Offset: start,
			Detail: fmt.Sprintf("string table index %d out of range (table size %d)",
				idx, t.Len()),
		}
	}
	s, _ := t.Get(int(idx))
	return s, nil
}

// ReadHashWords reads a count prefixed list of string table indexes and
// resolves them.
func (r *Reader) ReadHashWords(t *StringTable) ([]string, error) {
	n, err := r.readCount()
	if err != nil {
		return nil, err
	}
	words := make([]string, 0, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		w, err := r.ReadHashString(t)
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, nil
}

// ReadStrings reads a count prefixed list of plain strings.
func (r *Reader) ReadStrings() ([]string, error) {
	n, err := r.readCount()
	if err != nil {
		return nil, err
	}
	list := make([]string, 0, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		s, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, nil
}

// ReadStringTable reads a count prefixed list of strings into a new
// StringTable. The table indexes follow the order in the stream.
func (r *Reader) ReadStringTable() (*StringTable, error) {
	n, err := r.readCount()
	if err != nil {
		return nil, err
	}
	t := NewStringTable()
	for i := 0; i < n; i++ {
		s, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		t.Add(s)
	}
	return t, nil
}
