// Package wire provides a small cursor over a decoded command payload:
// pulling fixed-width little-endian scalars, length-prefixed byte runs,
// and range-validated enum values. See spec.md §4.3.
package wire

import (
	"encoding/binary"
	"fmt"
)

// DecodeError reports that a Reader ran out of bytes. An out-of-range enum
// value is not a DecodeError: Enum8 reports it through its ok result. It
// never resolves a pending request by itself — callers drop the frame and
// log (spec.md §7).
type DecodeError struct {
	Op      string
	Want    int
	HaveLen int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("wire: %s: need %d bytes, have %d", e.Op, e.Want, e.HaveLen)
}

// Reader is a cursor over a byte slice. It does not copy the backing
// array on construction; Raw returns a copy, so no returned []byte aliases
// the buffer.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader over buf starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.buf) - r.pos
}

func (r *Reader) take(n int, op string) ([]byte, error) {
	if r.Len() < n {
		return nil, &DecodeError{Op: op, Want: n, HaveLen: r.Len()}
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// U8 pulls one unsigned byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.take(1, "U8")
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// I8 pulls one signed byte.
func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

// U16 pulls a little-endian uint16.
func (r *Reader) U16() (uint16, error) {
	b, err := r.take(2, "U16")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// U32 pulls a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	b, err := r.take(4, "U32")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U64 pulls a little-endian uint64.
func (r *Reader) U64() (uint64, error) {
	b, err := r.take(8, "U64")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Raw pulls n raw bytes and returns a copy.
func (r *Reader) Raw(n int) ([]byte, error) {
	b, err := r.take(n, "Raw")
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// Skip discards n bytes (used for reserved/padding fields).
func (r *Reader) Skip(n int) error {
	_, err := r.take(n, "Skip")
	return err
}

// Enum8 pulls one byte and checks it with the caller-supplied valid
// predicate; unknown values are reported via ok=false but the raw value is
// still returned, per spec.md
// §4.3 ("unknown values remain raw integers").
func Enum8[T ~uint8](r *Reader, valid func(T) bool) (T, bool, error) {
	v, err := r.U8()
	if err != nil {
		return 0, false, err
	}
	t := T(v)
	return t, valid(t), nil
}
