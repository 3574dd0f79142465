package deconz

import (
	"github.com/hexwind/deconz/pkg/protocol"
	"github.com/hexwind/deconz/pkg/wire"
)

// headerLen is the fixed size of the common command header: command_id,
// sequence, status, frame_length (u16).
const headerLen = 5

// command is a decoded frame: the common 5-byte header plus the
// command-specific payload that follows it (spec.md §3).
type command struct {
	ID         protocol.CommandId
	RawID      uint8
	Sequence   uint8
	Status     protocol.Status
	FrameLen   uint16
	RemoteBody []byte // bytes after the header; cursor state is private to the handler
}

// decodeHeader parses the common 5-byte header from a checksum-validated
// payload and returns a command with RemoteBody positioned just after it.
func decodeHeader(payload []byte) (*command, error) {
	r := wire.NewReader(payload)
	rawID, err := r.U8()
	if err != nil {
		return nil, err
	}
	seq, err := r.U8()
	if err != nil {
		return nil, err
	}
	status, err := r.U8()
	if err != nil {
		return nil, err
	}
	frameLen, err := r.U16()
	if err != nil {
		return nil, err
	}
	rest, err := r.Raw(r.Len())
	if err != nil {
		return nil, err
	}

	return &command{
		ID:         protocol.CommandId(rawID),
		RawID:      rawID,
		Sequence:   seq,
		Status:     protocol.Status(status),
		FrameLen:   frameLen,
		RemoteBody: rest,
	}, nil
}

// encodeHeader writes the common header followed by body.
func encodeHeader(cmd protocol.CommandId, seq uint8, status protocol.Status, frameLen uint16, body []byte) []byte {
	w := wire.NewWriter(headerLen + len(body))
	w.U8(uint8(cmd)).U8(seq).U8(uint8(status)).U16(frameLen).Raw(body)
	return w.Bytes()
}
