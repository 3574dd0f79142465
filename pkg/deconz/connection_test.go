package deconz

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/hexwind/deconz/pkg/checksum"
	"github.com/hexwind/deconz/pkg/protocol"
	"github.com/hexwind/deconz/pkg/slip"
	"github.com/hexwind/deconz/pkg/wire"
)

// fakeTransport is an in-memory Transport: incoming (device-to-host) bytes
// are injected via inject(), outgoing (host-to-device) writes land on the
// writes channel for inspection.
type fakeTransport struct {
	pr *io.PipeReader
	pw *io.PipeWriter

	writes chan []byte

	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	pr, pw := io.Pipe()
	return &fakeTransport{pr: pr, pw: pw, writes: make(chan []byte, 64)}
}

func (f *fakeTransport) Read(p []byte) (int, error) { return f.pr.Read(p) }

func (f *fakeTransport) Write(p []byte) (int, error) {
	cp := append([]byte(nil), p...)
	select {
	case f.writes <- cp:
	default:
	}
	return len(p), nil
}

func (f *fakeTransport) Close() error {
	f.closeOnce.Do(func() {
		f.pr.Close()
		f.pw.Close()
	})
	return nil
}

func (f *fakeTransport) inject(t *testing.T, b []byte) {
	t.Helper()
	if _, err := f.pw.Write(b); err != nil {
		t.Fatalf("inject: %v", err)
	}
}

// collectSentCommands drains writes from ft, decoding them through a SLIP
// decoder + checksum validation shared across calls, until n commands have
// been decoded or timeout elapses.
func collectSentCommands(t *testing.T, ft *fakeTransport, dec *slip.Decoder, n int, timeout time.Duration) []*command {
	t.Helper()
	var cmds []*command
	deadline := time.After(timeout)
	for len(cmds) < n {
		select {
		case chunk := <-ft.writes:
			frames, ferr := dec.Feed(chunk)
			if ferr != nil {
				t.Fatalf("slip framing error in captured write: %v", ferr)
			}
			for _, fr := range frames {
				payload, ok := checksum.Validate(fr)
				if !ok {
					t.Fatalf("checksum invalid in captured frame: % x", fr)
				}
				cmd, err := decodeHeader(payload)
				if err != nil {
					t.Fatalf("decode header: %v", err)
				}
				cmds = append(cmds, cmd)
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %d sent commands, got %d", n, len(cmds))
		}
	}
	return cmds
}

func encodeIncomingFrame(body []byte) []byte {
	return slip.Encode(checksum.Append(body))
}

func testOptions() Options {
	return Options{SettleDuration: time.Hour, RequestTimeout: 2 * time.Second}
}

func TestConnectSendsInitialDeviceStateRequest(t *testing.T) {
	ft := newFakeTransport()
	conn, err := Connect(ft, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	dec := slip.NewDecoder()
	cmds := collectSentCommands(t, ft, dec, 1, 2*time.Second)
	if cmds[0].ID != protocol.DeviceState {
		t.Errorf("expected initial request to be DEVICE_STATE, got %s", cmds[0].ID)
	}
}

// TestRequestIncomingDataOnFlag exercises the indication-drain path
// (spec.md §4.6): an inbound DEVICE_STATE frame asserting
// APSDE_DATA_INDICATION must provoke exactly one APS_DATA_INDICATION pull.
func TestRequestIncomingDataOnFlag(t *testing.T) {
	ft := newFakeTransport()
	conn, err := Connect(ft, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	dec := slip.NewDecoder()
	collectSentCommands(t, ft, dec, 1, 2*time.Second) // drain the initial DEVICE_STATE request

	stateWord := uint8(protocol.NetworkConnected) | uint8(protocol.FlagApsDataIndication)
	frame := encodeHeader(protocol.DeviceState, 0x01, protocol.StatusSuccess, headerLen+1, []byte{stateWord})
	ft.inject(t, encodeIncomingFrame(frame))

	cmds := collectSentCommands(t, ft, dec, 1, 2*time.Second)
	if cmds[0].ID != protocol.ApsDataIndication {
		t.Fatalf("expected an APS_DATA_INDICATION pull, got %s", cmds[0].ID)
	}

	r := wire.NewReader(cmds[0].RemoteBody)
	n, err := r.U16()
	if err != nil || n != 1 {
		t.Errorf("expected pull payload u16(1), got %d, err=%v", n, err)
	}

	if got := conn.NetworkState(); got != protocol.NetworkConnected {
		t.Errorf("expected network state Connected, got %s", got)
	}
}

// TestStartingAppBannerResetsAndFailsPending exercises the boot-banner
// restart path (spec.md §4.10): a decoded frame containing "STARTING APP"
// resets the SLIP decoder, fails every pending waiter with ErrClosed, and
// triggers a fresh DEVICE_STATE request.
func TestStartingAppBannerResetsAndFailsPending(t *testing.T) {
	ft := newFakeTransport()
	conn, err := Connect(ft, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	dec := slip.NewDecoder()
	collectSentCommands(t, ft, dec, 1, 2*time.Second) // drain the initial DEVICE_STATE request

	errCh := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_, err := conn.GetParameter(ctx, protocol.ParamMACAddress)
		errCh <- err
	}()

	collectSentCommands(t, ft, dec, 1, 2*time.Second) // drain the READ_PARAMETER request

	ft.inject(t, slip.Encode([]byte("STARTING APP")))

	select {
	case err := <-errCh:
		if err != ErrClosed {
			t.Errorf("expected pending GetParameter to fail with ErrClosed, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for GetParameter to be failed by the banner reset")
	}

	cmds := collectSentCommands(t, ft, slip.NewDecoder(), 1, 2*time.Second)
	if cmds[0].ID != protocol.DeviceState {
		t.Errorf("expected a fresh DEVICE_STATE request after the banner reset, got %s", cmds[0].ID)
	}
}

func TestGetParameterRoundTrip(t *testing.T) {
	ft := newFakeTransport()
	conn, err := Connect(ft, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	dec := slip.NewDecoder()
	collectSentCommands(t, ft, dec, 1, 2*time.Second) // drain the initial DEVICE_STATE request

	resultCh := make(chan uint64, 1)
	errCh := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		v, err := conn.GetParameter(ctx, protocol.ParamMACAddress)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- v
	}()

	cmds := collectSentCommands(t, ft, dec, 1, 2*time.Second)
	req := cmds[0]
	if req.ID != protocol.ReadParameter {
		t.Fatalf("expected READ_PARAMETER, got %s", req.ID)
	}

	const want uint64 = 0x00212EFFFF017FE7
	body := wire.NewWriter(11)
	body.U16(9) // payload_len: param id + 8-byte value
	body.U8(uint8(protocol.ParamMACAddress))
	body.U64(want)
	resp := encodeHeader(protocol.ReadParameter, req.Sequence, protocol.StatusSuccess, headerLen+uint16(body.Len()), body.Bytes())
	ft.inject(t, encodeIncomingFrame(resp))

	select {
	case v := <-resultCh:
		if v != want {
			t.Errorf("expected %#x, got %#x", want, v)
		}
	case err := <-errCh:
		t.Fatalf("GetParameter failed: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for GetParameter result")
	}
}
