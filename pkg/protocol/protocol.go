// Package protocol defines the deCONZ serial protocol vocabulary: command
// ids, status codes, device-state flags, address modes, and the network
// parameter catalog. It holds no behavior beyond the small lookups the
// wire codecs need.
package protocol

import "fmt"

// CommandId identifies the type of a decoded Command frame.
type CommandId uint8

const (
	ApsDataConfirm     CommandId = 0x04
	DeviceState        CommandId = 0x07
	ChangeNetworkState CommandId = 0x08
	ReadParameter      CommandId = 0x0A
	WriteParameter     CommandId = 0x0B
	DeviceStateChanged CommandId = 0x0E
	ApsDataRequest     CommandId = 0x12
	ApsDataIndication  CommandId = 0x17
)

func (c CommandId) String() string {
	switch c {
	case ApsDataConfirm:
		return "APS_DATA_CONFIRM"
	case DeviceState:
		return "DEVICE_STATE"
	case ChangeNetworkState:
		return "CHANGE_NETWORK_STATE"
	case ReadParameter:
		return "READ_PARAMETER"
	case WriteParameter:
		return "WRITE_PARAMETER"
	case DeviceStateChanged:
		return "DEVICE_STATE_CHANGED"
	case ApsDataRequest:
		return "APS_DATA_REQUEST"
	case ApsDataIndication:
		return "APS_DATA_INDICATION"
	default:
		return fmt.Sprintf("CommandId(0x%02X)", uint8(c))
	}
}

// unknownCommandSentinel is the 0x11111C value spec.md §9 asks about: is
// it a known firmware emission silenced on purpose, or a decoder-bug
// workaround? Reading the original pyconz source resolves it: the
// comparison it appears in (`cmd.cmd != 0x11111c`) guards a single decoded
// command byte, which can never equal a seven-hex-digit value — the
// branch is unreachable dead code in the original, not a working silence.
// Per spec.md §9 ("do not replicate unless the cause is confirmed"), this
// driver does not special-case it: every unrecognized command id is
// logged and dropped uniformly (spec.md §4.4).

// Status is the device-reported outcome of a request.
type Status uint8

const (
	StatusSuccess      Status = 0
	StatusFailure      Status = 1
	StatusBusy         Status = 2
	StatusTimeout      Status = 3
	StatusUnsupported  Status = 4
	StatusError        Status = 5
	StatusNoNetwork    Status = 6
	StatusInvalidValue Status = 7
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusFailure:
		return "FAILURE"
	case StatusBusy:
		return "BUSY"
	case StatusTimeout:
		return "TIMEOUT"
	case StatusUnsupported:
		return "UNSUPPORTED"
	case StatusError:
		return "ERROR"
	case StatusNoNetwork:
		return "NO_NETWORK"
	case StatusInvalidValue:
		return "INVALID_VALUE"
	default:
		return fmt.Sprintf("Status(0x%02X)", uint8(s))
	}
}

// AddressType tags the width and meaning of an Address.
type AddressType uint8

const (
	AddressGroup AddressType = 1
	AddressNWK   AddressType = 2
	AddressIEEE  AddressType = 3
)

func (a AddressType) String() string {
	switch a {
	case AddressGroup:
		return "Group"
	case AddressNWK:
		return "NWK"
	case AddressIEEE:
		return "IEEE"
	default:
		return fmt.Sprintf("AddressType(0x%02X)", uint8(a))
	}
}

// Valid reports whether a is one of the three known address modes.
func (a AddressType) Valid() bool {
	switch a {
	case AddressGroup, AddressNWK, AddressIEEE:
		return true
	default:
		return false
	}
}

// NetworkState is encoded in the low two bits of a device-state word.
type NetworkState uint8

const (
	NetworkOffline   NetworkState = 0
	NetworkJoining   NetworkState = 1
	NetworkConnected NetworkState = 2
	NetworkLeaving   NetworkState = 3
)

func (n NetworkState) String() string {
	switch n {
	case NetworkOffline:
		return "Offline"
	case NetworkJoining:
		return "Joining"
	case NetworkConnected:
		return "Connected"
	case NetworkLeaving:
		return "Leaving"
	default:
		return fmt.Sprintf("NetworkState(%d)", uint8(n))
	}
}

// DeviceStateFlag bits occupy the upper six bits of a device-state word,
// orthogonal to the NetworkState carried in the low two bits.
type DeviceStateFlag uint8

const (
	FlagApsDataConfirm    DeviceStateFlag = 0x04
	FlagApsDataIndication DeviceStateFlag = 0x08
	FlagConfChanged       DeviceStateFlag = 0x10
	FlagApsDataRequest    DeviceStateFlag = 0x20

	networkStateMask = 0x03
)

// SplitDeviceState decomposes a raw device-state byte into its network
// state and the set of asserted flags.
func SplitDeviceState(word uint8) (NetworkState, []DeviceStateFlag) {
	state := NetworkState(word & networkStateMask)
	var flags []DeviceStateFlag
	for _, f := range []DeviceStateFlag{FlagApsDataConfirm, FlagApsDataIndication, FlagConfChanged, FlagApsDataRequest} {
		if word&uint8(f) == uint8(f) {
			flags = append(flags, f)
		}
	}
	return state, flags
}

// HasFlag reports whether word has f asserted.
func HasFlag(word uint8, f DeviceStateFlag) bool {
	return word&uint8(f) == uint8(f)
}
