// Package txcodec implements the low-level protobuf wire primitives used to
// hand-encode transaction envelopes and application messages that lack a
// generated schema. Only the append-style primitives live here; message
// layouts stay with their owning chain package.
package txcodec

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Protobuf wire types.
const (
	WireVarint  = 0
	WireFixed64 = 1
	WireBytes   = 2
	WireFixed32 = 5
)

// MaxFieldNumber is the largest field number the codec accepts (protobuf
// reserves 19000-19999 internally; single-message encoders here never get
// close, so only the hard wire-format bound is enforced).
const MaxFieldNumber = (1 << 29) - 1

// AppendVarint appends v in base-128 varint encoding.
func AppendVarint(b []byte, v uint64) []byte {
	return binary.AppendUvarint(b, v)
}

// AppendTag appends the key for the given field number and wire type:
// (fieldNumber << 3) | wireType, itself varint encoded.
func AppendTag(b []byte, fieldNumber int, wireType int) []byte {
	return AppendVarint(b, uint64(fieldNumber)<<3|uint64(wireType))
}

// AppendUint appends a varint field. Zero values are emitted verbatim;
// callers wanting proto3 zero-omission skip the call instead.
func AppendUint(b []byte, fieldNumber int, v uint64) []byte {
	b = AppendTag(b, fieldNumber, WireVarint)
	return AppendVarint(b, v)
}

// AppendBool appends a varint-encoded bool field.
func AppendBool(b []byte, fieldNumber int, v bool) []byte {
	var n uint64
	if v {
		n = 1
	}
	return AppendUint(b, fieldNumber, n)
}

// AppendFixed64 appends a little-endian fixed 64-bit field.
func AppendFixed64(b []byte, fieldNumber int, v uint64) []byte {
	b = AppendTag(b, fieldNumber, WireFixed64)
	return binary.LittleEndian.AppendUint64(b, v)
}

// AppendFixed32 appends a little-endian fixed 32-bit field.
func AppendFixed32(b []byte, fieldNumber int, v uint32) []byte {
	b = AppendTag(b, fieldNumber, WireFixed32)
	return binary.LittleEndian.AppendUint32(b, v)
}

// AppendBytes appends a length-delimited field.
func AppendBytes(b []byte, fieldNumber int, v []byte) []byte {
	b = AppendTag(b, fieldNumber, WireBytes)
	b = AppendVarint(b, uint64(len(v)))
	return append(b, v...)
}

// AppendString appends a length-delimited UTF-8 string field.
func AppendString(b []byte, fieldNumber int, s string) []byte {
	b = AppendTag(b, fieldNumber, WireBytes)
	b = AppendVarint(b, uint64(len(s)))
	return append(b, s...)
}

// AppendMessage appends an embedded message: the inner encoding is
// length-prefixed exactly like bytes.
func AppendMessage(b []byte, fieldNumber int, inner []byte) []byte {
	return AppendBytes(b, fieldNumber, inner)
}

// ValidateFieldNumber rejects field numbers outside the wire-format range.
// Encoders call it once per layout in tests rather than on every append.
func ValidateFieldNumber(fieldNumber int) error {
	if fieldNumber < 1 || fieldNumber > MaxFieldNumber {
		return errors.Errorf("field number %d out of range", fieldNumber)
	}

	return nil
}

// ConsumeVarint decodes a varint from the start of b, returning the value and
// the number of bytes read. Used by tests to cross-check encodings.
func ConsumeVarint(b []byte) (uint64, int, error) {
	v, n := binary.Uvarint(b)
	if n <= 0 {
		// n == 0 means truncated input, n < 0 means 64-bit overflow
		return 0, 0, errors.New("malformed varint")
	}

	return v, n, nil
}

// ConsumeTag decodes a field key, returning field number, wire type and the
// number of bytes read.
func ConsumeTag(b []byte) (int, int, int, error) {
	key, n, err := ConsumeVarint(b)
	if err != nil {
		return 0, 0, 0, errors.Wrap(err, "malformed tag")
	}

	return int(key >> 3), int(key & 0x7), n, nil
}

// ConsumeBytes decodes a length-delimited payload (after its tag), returning
// the payload and the total bytes read including the length prefix.
func ConsumeBytes(b []byte) ([]byte, int, error) {
	length, n, err := ConsumeVarint(b)
	if err != nil {
		return nil, 0, errors.Wrap(err, "malformed length prefix")
	}
	if uint64(len(b)-n) < length {
		return nil, 0, errors.New("truncated length-delimited field")
	}

	return b[n : n+int(length)], n + int(length), nil
}
