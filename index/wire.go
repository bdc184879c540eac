package index

import (
	"encoding/binary"
	"fmt"

	"github.com/CrowdStrike/csproto"
)

// ErrUnexpectedWireType is returned when a stored record has a field with
// the wrong protobuf wire type.
type ErrUnexpectedWireType struct {
	Tag         int
	WireType    csproto.WireType
	ExpWireType csproto.WireType
}

func (e ErrUnexpectedWireType) Error() string {
	return fmt.Sprintf("unexpected wiretype for tag %d: got %v, expected %v",
		e.Tag, e.WireType, e.ExpWireType)
}

func expectWT(tag int, got, exp csproto.WireType) error {
	if got != exp {
		return ErrUnexpectedWireType{
			Tag:         tag,
			WireType:    got,
			ExpWireType: exp,
		}
	}
	return nil
}

func getUInt64(d *csproto.Decoder, tag int, wireType csproto.WireType) (uint64, error) {
	if err := expectWT(tag, wireType, csproto.WireTypeVarint); err != nil {
		return 0, err
	}
	return d.DecodeUInt64()
}

func getUInt8(d *csproto.Decoder, tag int, wireType csproto.WireType) (uint8, error) {
	v, err := getUInt64(d, tag, wireType)
	if err != nil {
		return 0, err
	}
	if v > 0xFF {
		return 0, fmt.Errorf("value %d for tag %d does not fit in a byte", v, tag)
	}
	return uint8(v), nil
}

func getFixed64(d *csproto.Decoder, tag int, wireType csproto.WireType) (uint64, error) {
	if err := expectWT(tag, wireType, csproto.WireTypeFixed64); err != nil {
		return 0, err
	}
	return d.DecodeFixed64()
}

func getInt64(d *csproto.Decoder, tag int, wireType csproto.WireType) (int64, error) {
	if err := expectWT(tag, wireType, csproto.WireTypeVarint); err != nil {
		return 0, err
	}
	return d.DecodeInt64()
}

func getBytes(d *csproto.Decoder, tag int, wireType csproto.WireType) ([]byte, error) {
	if err := expectWT(tag, wireType, csproto.WireTypeLengthDelimited); err != nil {
		return nil, err
	}
	val, err := d.DecodeBytes()
	if err != nil {
		return nil, err
	}
	n := len(val)
	return val[0:n:n], nil
}

func getString(d *csproto.Decoder, tag int, wireType csproto.WireType) (string, error) {
	if err := expectWT(tag, wireType, csproto.WireTypeLengthDelimited); err != nil {
		return "", err
	}
	return d.DecodeString()
}

// encoder appends protobuf fields to a growing buffer.
type encoder struct {
	b   []byte
	tmp [binary.MaxVarintLen64]byte
}

func (e *encoder) tag(tag int, wt csproto.WireType) {
	n := csproto.EncodeTag(e.tmp[:], tag, wt)
	e.b = append(e.b, e.tmp[:n]...)
}

func (e *encoder) varint(v uint64) {
	n := csproto.EncodeVarint(e.tmp[:], v)
	e.b = append(e.b, e.tmp[:n]...)
}

// putUint writes a varint field, omitted when zero
func (e *encoder) putUint(tag int, v uint64) {
	if v == 0 {
		return
	}
	e.tag(tag, csproto.WireTypeVarint)
	e.varint(v)
}

// putFixed64 writes a fixed64 field, omitted when zero
func (e *encoder) putFixed64(tag int, v uint64) {
	if v == 0 {
		return
	}
	e.tag(tag, csproto.WireTypeFixed64)
	e.b = binary.LittleEndian.AppendUint64(e.b, v)
}

// putBytes writes a length delimited field, even when empty
func (e *encoder) putBytes(tag int, v []byte) {
	e.tag(tag, csproto.WireTypeLengthDelimited)
	e.varint(uint64(len(v)))
	e.b = append(e.b, v...)
}

// putString writes a string field, omitted when empty
func (e *encoder) putString(tag int, s string) {
	if s == "" {
		return
	}
	e.putStringAlways(tag, s)
}

func (e *encoder) putStringAlways(tag int, s string) {
	e.tag(tag, csproto.WireTypeLengthDelimited)
	e.varint(uint64(len(s)))
	e.b = append(e.b, s...)
}

// putStrings writes a repeated string field
func (e *encoder) putStrings(tag int, list []string) {
	for _, s := range list {
		e.putStringAlways(tag, s)
	}
}
