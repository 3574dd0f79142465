package deconz

import (
	"errors"
	"fmt"

	"github.com/hexwind/deconz/pkg/protocol"
)

var (
	// ErrClosed indicates the transport closed; every pending waiter is
	// resolved with this error.
	ErrClosed = errors.New("deconz: connection closed")

	// ErrTimeout indicates a request's deadline expired, or that its
	// sequence id was forcibly evicted to unblock the allocator.
	ErrTimeout = errors.New("deconz: request timed out")
)

// ProtocolError wraps a non-SUCCESS device status returned for a request.
type ProtocolError struct {
	Status protocol.Status
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("deconz: device returned status %s", e.Status)
}

// DecodeError wraps a wire decode failure (short payload, enum out of
// range). It never resolves a waiter — the ingest loop logs and drops the
// frame instead (spec.md §7).
type DecodeError struct {
	Command protocol.CommandId
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("deconz: decode %s: %v", e.Command, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
