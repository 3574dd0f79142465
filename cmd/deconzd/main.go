// Command deconzd runs the serial protocol engine against a coordinator
// radio and exposes an operational status surface over HTTP.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hexwind/deconz/pkg/deconz"
	"github.com/hexwind/deconz/pkg/status"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	serialPort := flag.String("port", "/dev/ttyUSB0", "Path to the coordinator serial port")
	baudRate := flag.Int("baud", deconz.DefaultBaudRate, "Serial baud rate")
	settleDuration := flag.Duration("settle", deconz.DefaultSettleDuration, "Delay after connect before sweeping network parameters")
	requestTimeout := flag.Duration("request-timeout", deconz.DefaultRequestTimeout, "Per-request response deadline")
	statusAddr := flag.String("status-addr", "", "Address for the /healthz and /status HTTP surface (empty disables it)")
	flag.Parse()

	transport, err := deconz.OpenSerial(*serialPort, *baudRate)
	if err != nil {
		log.Fatal().Err(err).Str("port", *serialPort).Msg("failed to open serial port")
	}

	conn, err := deconz.Connect(transport, deconz.Options{
		SettleDuration: *settleDuration,
		RequestTimeout: *requestTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start connection")
	}

	go logIncoming(conn)

	if *statusAddr != "" {
		router := status.NewRouter(conn)
		go func() {
			if err := router.Run(*statusAddr); err != nil {
				log.Error().Err(err).Msg("status server failed")
			}
		}()
		log.Info().Str("address", *statusAddr).Msg("status server listening")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := conn.WaitForReady(ctx); err != nil {
		log.Warn().Err(err).Msg("startup sweep did not complete within the wait window")
	}
	cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down")
	if err := conn.Close(); err != nil {
		log.Error().Err(err).Msg("error closing connection")
	}
}

func logIncoming(conn *deconz.Connection) {
	for msg := range conn.IncomingMessages() {
		log.Info().Stringer("message", msg).Msg("incoming aps message")
	}
}
