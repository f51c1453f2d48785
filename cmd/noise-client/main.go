// Command noise-client connects to a device over the Noise-protected
// envelope, using a pre-shared key supplied on the command line or in the
// NOISE_PSK environment variable.
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

	"github.com/esphomeapi/client/client"
)

var rootCmd = &cobra.Command{
	Use:   "noise-client",
	Short: "Connect to a device over the Noise NNpsk0 envelope",
	RunE:  run,
}

var (
	flagAddr string
	flagPSK  string
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&flagAddr, "addr", "127.0.0.1:6053", "device host:port")
	flags.StringVar(&flagPSK, "key", os.Getenv("NOISE_PSK"), "base64 32-byte pre-shared key (defaults to $NOISE_PSK)")
}

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("noise-client")
	}
}

func run(cmd *cobra.Command, args []string) error {
	if flagPSK == "" {
		return fmt.Errorf("--key (or $NOISE_PSK) is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	c, err := client.New(
		client.WithAddress(flagAddr),
		client.WithKey(flagPSK),
		client.WithTimeout(20*time.Second),
	).Connect(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer c.Close()

	name, mac := c.PeerInfo()
	log.Info().Str("name", name).Str("mac", mac).Msg("noise-client: handshake complete")

	for {
		msg, err := c.TryRead()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		log.Info().Str("type", fmt.Sprintf("%T", msg)).Msg("message")

		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}
