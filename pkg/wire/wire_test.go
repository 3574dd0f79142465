package wire

import (
	"bytes"
	"testing"
)

func TestReaderScalars(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x00, 0x03, 0x00, 0x00, 0x00, 0xFF})
	u8, err := r.U8()
	if err != nil || u8 != 0x01 {
		t.Fatalf("U8: %v, %v", u8, err)
	}
	u16, err := r.U16()
	if err != nil || u16 != 0x0002 {
		t.Fatalf("U16: %v, %v", u16, err)
	}
	u32, err := r.U32()
	if err != nil || u32 != 0x00000003 {
		t.Fatalf("U32: %v, %v", u32, err)
	}
	i8, err := r.I8()
	if err != nil || i8 != -1 {
		t.Fatalf("I8: %v, %v", i8, err)
	}
}

func TestReaderRawAndSkip(t *testing.T) {
	r := NewReader([]byte{0xAA, 0xBB, 0xCC, 0xDD})
	if err := r.Skip(1); err != nil {
		t.Fatal(err)
	}
	raw, err := r.Raw(2)
	if err != nil || !bytes.Equal(raw, []byte{0xBB, 0xCC}) {
		t.Fatalf("Raw: %x, %v", raw, err)
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
}

func TestReaderShortBufferErrors(t *testing.T) {
	r := NewReader([]byte{0x01})
	if _, err := r.U16(); err == nil {
		t.Fatal("expected a DecodeError")
	}
}

func TestU64RoundTrip(t *testing.T) {
	w := NewWriter(8)
	w.U64(0x0021_2EFF_FF01_7FE7)
	r := NewReader(w.Bytes())
	got, err := r.U64()
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x0021_2EFF_FF01_7FE7 {
		t.Fatalf("got 0x%X", got)
	}
}

func TestWriterChaining(t *testing.T) {
	w := NewWriter(0)
	w.U8(0x0A).U16(0x1234).Raw([]byte{0xFF, 0xEE})
	want := []byte{0x0A, 0x34, 0x12, 0xFF, 0xEE}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("got %x, want %x", w.Bytes(), want)
	}
}
