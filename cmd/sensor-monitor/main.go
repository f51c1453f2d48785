// Command sensor-monitor keeps a connection open to a device, polls its
// clock periodically, and exposes the last-seen status over a small HTTP
// endpoint for external health checks.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/esphomeapi/client/api"
	"github.com/esphomeapi/client/client"
)

var rootCmd = &cobra.Command{
	Use:   "sensor-monitor",
	Short: "Poll a device's clock and serve its status over HTTP",
	RunE:  run,
}

var (
	flagAddr       string
	flagKey        string
	flagHTTPListen string
	flagPollEvery  time.Duration
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&flagAddr, "addr", "127.0.0.1:6053", "device host:port")
	flags.StringVar(&flagKey, "key", "", "base64 pre-shared key; omit for the plaintext envelope")
	flags.StringVar(&flagHTTPListen, "http", ":8090", "status HTTP listen address")
	flags.DurationVar(&flagPollEvery, "poll-every", 15*time.Second, "GetTime poll interval")
}

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("sensor-monitor")
	}
}

type status struct {
	mu          sync.RWMutex
	connected   bool
	lastPollAt  time.Time
	lastEpoch   uint32
	lastErr     string
	peerName    string
	peerMAC     string
}

func (s *status) snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"connected":    s.connected,
		"last_poll_at": s.lastPollAt,
		"last_epoch":   s.lastEpoch,
		"last_error":   s.lastErr,
		"peer_name":    s.peerName,
		"peer_mac":     s.peerMAC,
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	st := &status{}

	router := chi.NewRouter()
	router.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(st.snapshot())
	})

	server := &http.Server{Addr: flagHTTPListen, Handler: router}
	go func() {
		log.Info().Str("addr", flagHTTPListen).Msg("sensor-monitor: status endpoint listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("sensor-monitor: http server")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	opts := []client.Option{client.WithAddress(flagAddr)}
	if flagKey != "" {
		opts = append(opts, client.WithKey(flagKey))
	}
	c, err := client.New(opts...).Connect(ctx)
	if err != nil {
		st.mu.Lock()
		st.lastErr = err.Error()
		st.mu.Unlock()
		return err
	}
	defer c.Close()

	name, mac := c.PeerInfo()
	st.mu.Lock()
	st.connected = true
	st.peerName = name
	st.peerMAC = mac
	st.mu.Unlock()

	ticker := time.NewTicker(flagPollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.TryWrite(&api.GetTimeRequest{}); err != nil {
				st.mu.Lock()
				st.lastErr = err.Error()
				st.mu.Unlock()
				return err
			}
			msg, err := c.TryRead()
			if err != nil {
				st.mu.Lock()
				st.lastErr = err.Error()
				st.mu.Unlock()
				return err
			}
			if resp, ok := msg.(*api.GetTimeResponse); ok {
				st.mu.Lock()
				st.lastPollAt = time.Now()
				st.lastEpoch = resp.EpochSeconds
				st.mu.Unlock()
			}
		}
	}
}
