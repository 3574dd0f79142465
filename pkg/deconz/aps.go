package deconz

import (
	"fmt"

	"github.com/hexwind/deconz/pkg/protocol"
	"github.com/hexwind/deconz/pkg/wire"
)

// decodeApsDataIndication parses the APS_DATA_INDICATION payload (after
// the common 5-byte header) per spec.md §4.7. It returns the decoded
// Message, the embedded device-state byte (which MUST be fed back into
// the device-state machine so subsequent indications keep draining), link
// quality and signal strength.
func decodeApsDataIndication(body []byte) (msg Message, deviceState uint8, lqi uint8, rssi int8, err error) {
	r := wire.NewReader(body)

	if _, err = r.U16(); err != nil { // payload_length
		return
	}
	if deviceState, err = r.U8(); err != nil {
		return
	}

	destAddr, destErr := readAddressField(r)
	if destErr != nil {
		err = destErr
		return
	}
	destEndpoint, eErr := r.U8()
	if eErr != nil {
		err = eErr
		return
	}
	destAddr.Endpoint = destEndpoint

	srcAddr, srcErr := readAddressField(r)
	if srcErr != nil {
		err = srcErr
		return
	}
	if srcAddr.Mode == protocol.AddressGroup {
		err = fmt.Errorf("aps indication: source address mode must not be Group")
		return
	}
	srcEndpoint, se2Err := r.U8()
	if se2Err != nil {
		err = se2Err
		return
	}
	srcAddr.Endpoint = srcEndpoint

	profileID, pErr := r.U16()
	if pErr != nil {
		err = pErr
		return
	}
	clusterID, cErr := r.U16()
	if cErr != nil {
		err = cErr
		return
	}
	asduLen, aErr := r.U16()
	if aErr != nil {
		err = aErr
		return
	}
	asdu, asduErr := r.Raw(int(asduLen))
	if asduErr != nil {
		err = asduErr
		return
	}

	if err = r.Skip(2); err != nil { // reserved
		return
	}
	lqiVal, lqiErr := r.U8()
	if lqiErr != nil {
		err = lqiErr
		return
	}
	if err = r.Skip(4); err != nil { // reserved
		return
	}
	rssiVal, rssiErr := r.I8()
	if rssiErr != nil {
		err = rssiErr
		return
	}

	msg = Message{
		Src:       srcAddr,
		Dest:      destAddr,
		ProfileID: profileID,
		ClusterID: clusterID,
		Data:      asdu,
	}
	lqi = lqiVal
	rssi = rssiVal
	return msg, deviceState, lqi, rssi, nil
}

// readAddressField reads an address-mode byte followed by a 2- or 8-byte
// address depending on mode (Group/NWK = 2 bytes, IEEE = 8 bytes). An
// unknown mode is an error. Endpoint is filled in by the caller.
func readAddressField(r *wire.Reader) (Address, error) {
	mode, valid, err := wire.Enum8[protocol.AddressType](r, protocol.AddressType.Valid)
	if err != nil {
		return Address{}, err
	}
	if !valid {
		return Address{}, fmt.Errorf("aps indication: unknown address mode %s", mode)
	}

	var addr uint64
	if mode == protocol.AddressIEEE {
		v, uErr := r.U64()
		if uErr != nil {
			return Address{}, uErr
		}
		addr = v
	} else {
		v, uErr := r.U16()
		if uErr != nil {
			return Address{}, uErr
		}
		addr = uint64(v)
	}

	return Address{Mode: mode, Addr: addr}, nil
}

// txOptionsNWK is the fixed tx_options value for an NWK-addressed send
// (spec.md §4.8).
const txOptionsNWK = 0x02

// encodeApsDataRequest builds the APS_DATA_REQUEST payload (after the
// common header) for an outbound NWK-addressed unicast, per spec.md §4.8.
// Group and IEEE destinations are not in the core.
func encodeApsDataRequest(msg Message, requestID uint8) ([]byte, error) {
	if msg.Dest.Mode != protocol.AddressNWK {
		return nil, fmt.Errorf("aps request: destination address mode must be NWK, got %s", msg.Dest.Mode)
	}
	if msg.Src.Mode == protocol.AddressGroup {
		return nil, fmt.Errorf("aps request: source address mode must not be Group")
	}

	inner := wire.NewWriter(11 + len(msg.Data) + 2)
	inner.U8(requestID)
	inner.U8(0) // flags
	inner.U8(txOptionsNWK)
	inner.U16(uint16(msg.Dest.Addr))
	inner.U8(msg.Dest.Endpoint)
	inner.U16(msg.ProfileID)
	inner.U16(msg.ClusterID)
	inner.U8(msg.Src.Endpoint)
	inner.U16(uint16(len(msg.Data)))
	inner.Raw(msg.Data)
	inner.U8(0) // radius
	inner.U8(5) // tx options trailer, fixed

	body := wire.NewWriter(2 + inner.Len())
	body.U16(uint16(inner.Len()))
	body.Raw(inner.Bytes())
	return body.Bytes(), nil
}
