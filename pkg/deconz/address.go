package deconz

import (
	"fmt"

	"github.com/hexwind/deconz/pkg/protocol"
)

// Address is a Zigbee endpoint address tagged by its mode. Addr holds a
// 16-bit network or group address for AddressGroup/AddressNWK, and a
// 64-bit IEEE address for AddressIEEE — callers must check Mode before
// interpreting Addr's width.
type Address struct {
	Mode     protocol.AddressType
	Addr     uint64
	Endpoint uint8
}

func (a Address) String() string {
	switch a.Mode {
	case protocol.AddressIEEE:
		return fmt.Sprintf("%016x.%02x (IEEE)", a.Addr, a.Endpoint)
	default:
		return fmt.Sprintf("%04x.%02x (%s)", a.Addr, a.Endpoint, a.Mode)
	}
}

// GroupAddress builds a Group-mode address. Group addresses are never
// valid in source position (spec.md §3); callers constructing a source
// address must use NWKAddress or IEEEAddress.
func GroupAddress(addr uint16, endpoint uint8) Address {
	return Address{Mode: protocol.AddressGroup, Addr: uint64(addr), Endpoint: endpoint}
}

// NWKAddress builds a network-local address.
func NWKAddress(addr uint16, endpoint uint8) Address {
	return Address{Mode: protocol.AddressNWK, Addr: uint64(addr), Endpoint: endpoint}
}

// IEEEAddress builds an IEEE (64-bit) address.
func IEEEAddress(addr uint64, endpoint uint8) Address {
	return Address{Mode: protocol.AddressIEEE, Addr: addr, Endpoint: endpoint}
}

// Message is a decoded (inbound) or to-be-encoded (outbound) APS frame.
// Source address mode is never Group — enforced at decode time and at
// SendRequest.
type Message struct {
	Src       Address
	Dest      Address
	ProfileID uint16
	ClusterID uint16
	Data      []byte

	// RequestID is set on outbound messages and echoed back in the
	// APS_DATA_CONFIRM that resolves the send waiter.
	RequestID uint8
}

func (m Message) String() string {
	return fmt.Sprintf("[%04x:%04x] %s -> %s: %d bytes", m.ClusterID, m.ProfileID, m.Src, m.Dest, len(m.Data))
}
