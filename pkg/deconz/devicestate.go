package deconz

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hexwind/deconz/pkg/protocol"
)

// deviceStateMachine interprets DEVICE_STATE / DEVICE_STATE_CHANGED
// payloads (spec.md §4.6). Transitions are purely reactive to frames; the
// engine never drives the state otherwise.
type deviceStateMachine struct {
	conn *Connection

	mu        sync.Mutex
	net       protocol.NetworkState
	lastFlags []protocol.DeviceStateFlag
}

func newDeviceStateMachine(conn *Connection) *deviceStateMachine {
	return &deviceStateMachine{conn: conn}
}

// observe applies a raw device-state word. When APSDE_DATA_INDICATION is
// asserted it emits exactly one APS_DATA_INDICATION pull request — the
// only flow that drains incoming APS frames, since the coordinator never
// pushes indications unsolicited.
func (d *deviceStateMachine) observe(word uint8) {
	state, flags := protocol.SplitDeviceState(word)

	d.mu.Lock()
	d.net = state
	d.lastFlags = flags
	d.mu.Unlock()

	log.Debug().
		Uint8("word", word).
		Str("network", state.String()).
		Msg("device state observed")

	for _, f := range flags {
		switch f {
		case protocol.FlagApsDataIndication:
			d.conn.requestIncomingData()
		case protocol.FlagConfChanged:
			d.conn.publishConfigChanged()
		case protocol.FlagApsDataConfirm, protocol.FlagApsDataRequest:
			// Out of scope of the core; surfaced upward for future use
			// (spec.md §4.6).
		}
	}
}

// networkState returns the last-observed network state.
func (d *deviceStateMachine) networkState() protocol.NetworkState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net
}

func (d *deviceStateMachine) flags() []protocol.DeviceStateFlag {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]protocol.DeviceStateFlag, len(d.lastFlags))
	copy(out, d.lastFlags)
	return out
}
