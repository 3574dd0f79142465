package protocol

import "testing"

func TestSplitDeviceState(t *testing.T) {
	cases := []struct {
		word      uint8
		wantState NetworkState
		wantFlags []DeviceStateFlag
	}{
		{0x00, NetworkOffline, nil},
		{0x02, NetworkConnected, nil},
		{0x0A, NetworkConnected, []DeviceStateFlag{FlagApsDataIndication}},
		{0xBF & 0x3F, NetworkLeaving, []DeviceStateFlag{FlagApsDataConfirm, FlagApsDataIndication, FlagConfChanged, FlagApsDataRequest}},
	}

	for _, c := range cases {
		state, flags := SplitDeviceState(c.word)
		if state != c.wantState {
			t.Errorf("word 0x%02X: state = %v, want %v", c.word, state, c.wantState)
		}
		if len(flags) != len(c.wantFlags) {
			t.Fatalf("word 0x%02X: flags = %v, want %v", c.word, flags, c.wantFlags)
		}
		for i := range flags {
			if flags[i] != c.wantFlags[i] {
				t.Errorf("word 0x%02X: flags[%d] = %v, want %v", c.word, i, flags[i], c.wantFlags[i])
			}
		}
	}
}

func TestHasFlag(t *testing.T) {
	if !HasFlag(0x08, FlagApsDataIndication) {
		t.Error("expected APSDE_DATA_INDICATION to be set")
	}
	if HasFlag(0x02, FlagApsDataIndication) {
		t.Error("did not expect APSDE_DATA_INDICATION to be set")
	}
}

func TestAddressTypeValid(t *testing.T) {
	if !AddressNWK.Valid() || !AddressIEEE.Valid() || !AddressGroup.Valid() {
		t.Error("expected known address modes to be valid")
	}
	if AddressType(0).Valid() {
		t.Error("did not expect mode 0 to be valid")
	}
}

func TestParameterCatalog(t *testing.T) {
	info, ok := Lookup(ParamMACAddress)
	if !ok || info.Width != Format8Byte {
		t.Fatalf("MAC_ADDR: got %+v, %v", info, ok)
	}
	info, ok = Lookup(ParamNWKPANID)
	if !ok || info.Width != Format2Byte {
		t.Fatalf("NWK_PANID: got %+v, %v", info, ok)
	}
	if _, ok := Lookup(Parameter(0xFE)); ok {
		t.Fatal("expected unknown parameter id to miss")
	}
	if len(Parameters) != 6 {
		t.Fatalf("expected 6 catalog entries, got %d", len(Parameters))
	}
}
