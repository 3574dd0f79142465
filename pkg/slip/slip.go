// Package slip implements the SLIP byte-stream framing used to delimit
// deCONZ serial packets: frames are separated by END bytes, with END and
// ESC escaped inside a frame. See spec.md §4.1.
package slip

import "fmt"

const (
	End    byte = 0xC0
	Esc    byte = 0xDB
	EscEnd byte = 0xDC
	EscEsc byte = 0xDD
)

// FramingError reports a SLIP protocol violation: an ESC byte followed by
// anything other than EscEnd or EscEsc. The in-progress frame is discarded;
// decoding resumes at the next End byte.
type FramingError struct {
	Got byte
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("slip: invalid escape sequence, got 0x%02X after ESC", e.Got)
}

// Decoder accumulates bytes from an arbitrary chunked byte stream and
// yields complete, unescaped frames as it encounters SLIP End delimiters.
// A stray or back-to-back End byte yields no frame — empty frames are
// silently ignored. It is not safe for concurrent use; callers feeding it
// from multiple goroutines must serialize calls to Feed.
type Decoder struct {
	buf        []byte
	escaped    bool
	discarding bool
	err        error
}

// NewDecoder returns an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed ingests a chunk of raw bytes and returns any complete frames found
// within it, in order. On a FramingError the in-progress frame is dropped
// and decoding resumes cleanly at the next End byte; the first such error
// is returned alongside every complete frame found in this chunk.
func (d *Decoder) Feed(chunk []byte) ([][]byte, error) {
	var frames [][]byte
	var ferr error

	for _, b := range chunk {
		switch {
		case b == End:
			if !d.discarding && len(d.buf) > 0 {
				frames = append(frames, d.buf)
			}
			d.buf = nil
			d.escaped = false
			d.discarding = false
		case d.discarding:
			// Dropping everything up to the next End, per the discarded
			// in-progress frame this FramingError started.
		case d.escaped:
			switch b {
			case EscEnd:
				d.buf = append(d.buf, End)
			case EscEsc:
				d.buf = append(d.buf, Esc)
			default:
				if ferr == nil {
					ferr = &FramingError{Got: b}
				}
				d.buf = nil
				d.discarding = true
			}
			d.escaped = false
		case b == Esc:
			d.escaped = true
		default:
			d.buf = append(d.buf, b)
		}
	}

	return frames, ferr
}

// Encode wraps payload as a single SLIP frame: a leading End, the escaped
// payload, and a trailing End.
func Encode(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+2)
	out = append(out, End)
	out = appendEscaped(out, payload)
	out = append(out, End)
	return out
}

func appendEscaped(out []byte, payload []byte) []byte {
	for _, b := range payload {
		switch b {
		case End:
			out = append(out, Esc, EscEnd)
		case Esc:
			out = append(out, Esc, EscEsc)
		default:
			out = append(out, b)
		}
	}
	return out
}
