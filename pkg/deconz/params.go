package deconz

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/hexwind/deconz/pkg/protocol"
	"github.com/hexwind/deconz/pkg/wire"
)

// readParamValue pulls the fixed-width little-endian value for a
// parameter's catalog entry and widens it to uint64.
func readParamValue(r *wire.Reader, info protocol.ParamInfo) (uint64, error) {
	switch info.Width {
	case protocol.Format1Byte:
		v, err := r.U8()
		return uint64(v), err
	case protocol.Format2Byte:
		v, err := r.U16()
		return uint64(v), err
	case protocol.Format8Byte:
		v, err := r.U64()
		return uint64(v), err
	default:
		return 0, fmt.Errorf("unsupported parameter width %d", info.Width)
	}
}

// writeParamValue encodes v at the given width.
func writeParamValue(w *wire.Writer, info protocol.ParamInfo, v uint64) error {
	switch info.Width {
	case protocol.Format1Byte:
		w.U8(uint8(v))
	case protocol.Format2Byte:
		w.U16(uint16(v))
	case protocol.Format8Byte:
		w.U64(v)
	default:
		return fmt.Errorf("unsupported parameter width %d", info.Width)
	}
	return nil
}

func encodeUint(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func decodeUint(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

// GetParameter reads a network parameter from the coordinator and returns
// its value widened to uint64, per the parameter catalog's wire width
// (spec.md §4.9, §6).
func (c *Connection) GetParameter(ctx context.Context, p protocol.Parameter) (uint64, error) {
	if _, ok := protocol.Lookup(p); !ok {
		return 0, fmt.Errorf("deconz: unknown parameter %s", p)
	}

	seq, entry := c.sequences.allocate()

	body := wire.NewWriter(3)
	body.U16(1) // payload_len
	body.U8(uint8(p))
	frame := encodeHeader(protocol.ReadParameter, seq, protocol.StatusSuccess, headerLen+uint16(body.Len()), body.Bytes())

	if err := c.sendCommand(frame); err != nil {
		c.sequences.evict(seq, err)
		return 0, err
	}

	r, err := c.await(ctx, seq, entry)
	if err != nil {
		return 0, err
	}
	return decodeUint(r), nil
}

// SetParameter writes a network parameter and returns once the device
// acknowledges it, or a ProtocolError if status != SUCCESS.
func (c *Connection) SetParameter(ctx context.Context, p protocol.Parameter, value uint64) error {
	info, ok := protocol.Lookup(p)
	if !ok {
		return fmt.Errorf("deconz: unknown parameter %s", p)
	}

	valueW := wire.NewWriter(int(info.Width))
	if err := writeParamValue(valueW, info, value); err != nil {
		return err
	}
	valueBytes := valueW.Bytes()

	seq, entry := c.sequences.allocate()

	body := wire.NewWriter(3 + len(valueBytes))
	body.U16(uint16(len(valueBytes) + 1)) // payload_len
	body.U8(uint8(p))
	body.Raw(valueBytes)

	frameLen := headerLen + uint16(body.Len())
	frame := encodeHeader(protocol.WriteParameter, seq, protocol.StatusSuccess, frameLen, body.Bytes())

	if err := c.sendCommand(frame); err != nil {
		c.sequences.evict(seq, err)
		return err
	}

	_, err := c.await(ctx, seq, entry)
	return err
}
