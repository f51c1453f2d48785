// Command device-discovery browses the local network for devices and
// prints each one as it is found.
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

	"github.com/esphomeapi/client/discovery"
)

var rootCmd = &cobra.Command{
	Use:   "device-discovery",
	Short: "Browse the local network for devices",
	RunE:  run,
}

var flagDuration time.Duration

func init() {
	rootCmd.Flags().DurationVar(&flagDuration, "for", 10*time.Second, "how long to browse before exiting")
}

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("device-discovery")
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), flagDuration)
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	d := discovery.MDNSDiscoverer{}
	devices, err := d.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}

	count := 0
	for dev := range devices {
		count++
		log.Info().
			Str("hostname", dev.Hostname).
			Str("address", dev.Address).
			Bool("encrypted", dev.HasEncryption).
			Msg("device found")
	}
	log.Info().Int("count", count).Msg("device-discovery: done")
	return nil
}
