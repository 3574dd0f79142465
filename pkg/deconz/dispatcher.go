package deconz

import (
	"github.com/rs/zerolog/log"

	"github.com/hexwind/deconz/pkg/protocol"
)

// handlerFunc processes a decoded command's body. Handlers run to
// completion without suspension — response delivery happens by resolving
// the pending request keyed by sequence id, never by blocking the ingest
// path on external I/O (spec.md §4.4).
type handlerFunc func(c *Connection, cmd *command)

// handlers is the fixed dispatch table keyed by command id (spec.md §9:
// "a compile-time table is preferred" over a runtime-built map). It is
// populated once in init and never mutated afterward, so dispatch needs
// no locking of its own.
var handlers map[protocol.CommandId]handlerFunc

func init() {
	handlers = map[protocol.CommandId]handlerFunc{
		protocol.DeviceState:        (*Connection).handleDeviceState,
		protocol.DeviceStateChanged: (*Connection).handleDeviceState,
		protocol.ApsDataIndication:  (*Connection).handleApsDataIndication,
		protocol.ReadParameter:      (*Connection).handleReadParameterResponse,
		protocol.WriteParameter:     (*Connection).handleWriteParameterResponse,
		protocol.ApsDataConfirm:     (*Connection).handleApsDataConfirm,
		protocol.ApsDataRequest:     (*Connection).handleApsDataRequestEcho,
	}
}

// dispatch routes a validated, header-decoded frame to its handler. If
// command_id has no registered handler it is logged and discarded
// (spec.md §4.4) — including the 0x11111C id spec.md §9 asks about; see
// protocol.go for why this driver does not special-case it.
func (c *Connection) dispatch(cmd *command) {
	h, ok := handlers[cmd.ID]
	if !ok {
		log.Warn().Str("command", cmd.ID.String()).Uint8("seq", cmd.Sequence).Msg("unknown command id, dropping")
		return
	}
	h(c, cmd)
}
