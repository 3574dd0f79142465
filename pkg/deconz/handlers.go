package deconz

import (
	"encoding/hex"

	"github.com/rs/zerolog/log"

	"github.com/hexwind/deconz/pkg/protocol"
	"github.com/hexwind/deconz/pkg/wire"
)

// handleDeviceState processes both DEVICE_STATE and DEVICE_STATE_CHANGED
// frames, which share the same one-byte payload (spec.md §4.6).
func (c *Connection) handleDeviceState(cmd *command) {
	r := wire.NewReader(cmd.RemoteBody)
	state, err := r.U8()
	if err != nil {
		c.logDecodeError(cmd, err)
		return
	}
	c.state.observe(state)
}

// handleApsDataIndication decodes an inbound APS frame and hands it to
// the upward interface, then feeds the embedded device-state byte back
// into the state machine so subsequent indications keep draining
// (spec.md §4.7).
func (c *Connection) handleApsDataIndication(cmd *command) {
	if cmd.Status != protocol.StatusSuccess {
		log.Warn().Str("status", cmd.Status.String()).Msg("incoming data indication with non-success status")
		return
	}

	msg, devState, lqi, rssi, err := decodeApsDataIndication(cmd.RemoteBody)
	if err != nil {
		c.logDecodeError(cmd, err)
		return
	}

	log.Debug().
		Stringer("src", msg.Src).
		Stringer("dest", msg.Dest).
		Uint16("cluster", msg.ClusterID).
		Uint16("profile", msg.ProfileID).
		Uint8("lqi", lqi).
		Int8("rssi", rssi).
		Str("asdu", hex.EncodeToString(msg.Data)).
		Msg("aps data indication")

	c.deliverIncoming(msg)
	c.state.observe(devState)
}

// handleReadParameterResponse resolves the waiter registered by GetParameter.
func (c *Connection) handleReadParameterResponse(cmd *command) {
	r := wire.NewReader(cmd.RemoteBody)
	if _, err := r.U16(); err != nil { // payload_len
		c.logDecodeError(cmd, err)
		return
	}
	rawParam, err := r.U8()
	if err != nil {
		c.logDecodeError(cmd, err)
		return
	}
	param := protocol.Parameter(rawParam)
	info, known := protocol.Lookup(param)
	if !known {
		// An enum value out of the catalog is a DecodeError: drop the
		// frame and log, never resolve a waiter (spec.md §7).
		log.Error().Uint8("param", uint8(param)).Msg("read parameter response: unknown parameter id, dropping")
		return
	}

	value, err := readParamValue(r, info)
	if err != nil {
		c.logDecodeError(cmd, err)
		return
	}

	if !c.sequences.resolve(cmd.Sequence, result{payload: encodeUint(value)}) {
		log.Warn().Uint8("seq", cmd.Sequence).Msg("read parameter response for unknown sequence id")
	}
}

// handleWriteParameterResponse resolves the waiter registered by SetParameter.
func (c *Connection) handleWriteParameterResponse(cmd *command) {
	var resolveErr error
	if cmd.Status != protocol.StatusSuccess {
		resolveErr = &ProtocolError{Status: cmd.Status}
	}
	if !c.sequences.resolve(cmd.Sequence, result{err: resolveErr}) {
		log.Warn().Uint8("seq", cmd.Sequence).Msg("write parameter response for unknown sequence id")
	}
}

// handleApsDataConfirm resolves the waiter registered by SendRequest.
func (c *Connection) handleApsDataConfirm(cmd *command) {
	var resolveErr error
	if cmd.Status != protocol.StatusSuccess {
		resolveErr = &ProtocolError{Status: cmd.Status}
	}
	if !c.sequences.resolve(cmd.Sequence, result{err: resolveErr}) {
		log.Warn().Uint8("seq", cmd.Sequence).Msg("data confirm for unknown sequence id")
	}
}

// handleApsDataRequestEcho logs the synchronous acknowledgement of the
// APS_DATA_REQUEST frame itself. This is distinct from APS_DATA_CONFIRM,
// which resolves the send waiter once the asynchronous delivery outcome
// is known (see SPEC_FULL.md §7, supplemented from pyconz's
// `_handle_data_request_response`).
func (c *Connection) handleApsDataRequestEcho(cmd *command) {
	log.Debug().Str("status", cmd.Status.String()).Msg("aps data request acknowledged")
}

func (c *Connection) logDecodeError(cmd *command, err error) {
	de := &DecodeError{Command: cmd.ID, Err: err}
	log.Error().
		Err(de).
		Uint8("seq", cmd.Sequence).
		Msg("decode error, dropping frame")
}
