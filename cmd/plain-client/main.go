// Command plain-client connects to a device over the plaintext envelope,
// performs the hello/connect exchange, and prints every message it receives
// until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/esphomeapi/client/api"
	"github.com/esphomeapi/client/client"
)

var rootCmd = &cobra.Command{
	Use:   "plain-client",
	Short: "Connect to a device over the plaintext envelope and stream messages",
	RunE:  run,
}

var (
	flagAddr     string
	flagPassword string
	flagTimeout  time.Duration
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&flagAddr, "addr", "127.0.0.1:6053", "device host:port")
	flags.StringVar(&flagPassword, "password", "", "legacy connect password, if the device requires one")
	flags.DurationVar(&flagTimeout, "timeout", 30*time.Second, "dial + handshake timeout")
}

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("plain-client")
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("plain-client: shutting down")
		cancel()
	}()

	c, err := client.New(
		client.WithAddress(flagAddr),
		client.WithPassword(flagPassword),
		client.WithTimeout(flagTimeout),
	).Connect(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer c.Close()

	log.Info().Str("addr", flagAddr).Msg("plain-client: connected")

	for {
		msg, err := c.TryRead()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		switch m := msg.(type) {
		case *api.DeviceInfoResponse:
			log.Info().Str("name", m.Name).Str("model", m.Model).Msg("device info")
		default:
			log.Info().Str("type", fmt.Sprintf("%T", msg)).Msg("message")
		}

		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}
