package deconz

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// Transport is the byte-stream the connection is multiplexed over. Any
// reliable ordered byte stream suffices (spec.md §6) — the core is
// transport-agnostic; OpenSerial is one concrete implementation.
type Transport interface {
	io.ReadWriteCloser
}

// DefaultBaudRate is the default coordinator link speed (spec.md §6).
const DefaultBaudRate = 38400

// OpenSerial opens portPath as the coordinator's serial transport at
// baudRate (0 selects DefaultBaudRate), 8N1 — the deCONZ default framing.
func OpenSerial(portPath string, baudRate int) (Transport, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portPath, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portPath, err)
	}

	log.Info().Str("port", portPath).Int("baud", baudRate).Msg("serial port opened")

	return port, nil
}
