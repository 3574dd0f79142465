package slip

import (
	"bytes"
	"math/rand"
	"testing"
)

func decodeAll(t *testing.T, chunks ...[]byte) [][]byte {
	t.Helper()
	d := NewDecoder()
	var all [][]byte
	for _, c := range chunks {
		frames, err := d.Feed(c)
		if err != nil {
			t.Fatalf("unexpected framing error: %v", err)
		}
		all = append(all, frames...)
	}
	return all
}

func TestRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0x01, 0x02, 0x03},
		{End},
		{Esc},
		{End, Esc, End, Esc},
		{0x00, 0xFF, 0x7E},
	}

	for _, payload := range cases {
		encoded := Encode(payload)
		frames := decodeAll(t, encoded)
		if len(payload) == 0 {
			if len(frames) != 0 {
				t.Errorf("empty payload: got %d frames, want 0", len(frames))
			}
			continue
		}
		if len(frames) != 1 {
			t.Fatalf("payload %x: got %d frames, want 1", payload, len(frames))
		}
		if !bytes.Equal(frames[0], payload) {
			t.Errorf("payload %x: decoded %x", payload, frames[0])
		}
	}
}

func TestRoundTripRandom(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		n := r.Intn(64) + 1
		payload := make([]byte, n)
		r.Read(payload)

		frames := decodeAll(t, Encode(payload))
		if len(frames) != 1 || !bytes.Equal(frames[0], payload) {
			t.Fatalf("payload %x: got %x", payload, frames)
		}
	}
}

func TestFeedAcrossChunkBoundaries(t *testing.T) {
	encoded := Encode([]byte{0x01, 0x02, 0x03, 0x04})
	mid := len(encoded) / 2
	frames := decodeAll(t, encoded[:mid], encoded[mid:])
	if len(frames) != 1 || !bytes.Equal(frames[0], []byte{0x01, 0x02, 0x03, 0x04}) {
		t.Fatalf("got %x", frames)
	}
}

func TestBackToBackEndYieldsNoFrame(t *testing.T) {
	d := NewDecoder()
	frames, err := d.Feed([]byte{End, End, End})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 0 {
		t.Fatalf("got %d frames, want 0", len(frames))
	}
}

func TestInvalidEscapeDropsFrame(t *testing.T) {
	d := NewDecoder()
	// ESC followed by a byte that is neither EscEnd nor EscEsc.
	bad := []byte{0x01, Esc, 0x99, 0x02, End}
	frames, err := d.Feed(bad)
	if err == nil {
		t.Fatal("expected a FramingError")
	}
	var fe *FramingError
	if !asFramingError(err, &fe) {
		t.Fatalf("expected *FramingError, got %T", err)
	}
	if len(frames) != 0 {
		t.Fatalf("expected the bad frame to be dropped, got %x", frames)
	}

	// Decoding should resume cleanly at the next frame.
	frames, err = d.Feed(Encode([]byte{0x42}))
	if err != nil {
		t.Fatalf("unexpected error after recovery: %v", err)
	}
	if len(frames) != 1 || !bytes.Equal(frames[0], []byte{0x42}) {
		t.Fatalf("got %x after recovery", frames)
	}
}

func asFramingError(err error, target **FramingError) bool {
	fe, ok := err.(*FramingError)
	if ok {
		*target = fe
	}
	return ok
}
