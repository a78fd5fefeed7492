// Package main provides the better-bahn CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/logic-arts-official/Better-Bahn/internal/http/routes"
	"github.com/logic-arts-official/Better-Bahn/masterdata"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve the transit API over HTTP.

The server exposes station search, journey planning, departure boards,
client statistics and Prometheus metrics, all backed by the cached
transport.rest client.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

// serveFlags holds the flags for the serve command
type serveFlags struct {
	addr string
}

var serveOpts serveFlags

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveOpts.addr, "addr", "", "Listen address (overrides BETTER_BAHN_LISTEN_ADDR)")
}

func runServe(ctx context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	addr := a.cfg.Server.Addr
	if serveOpts.addr != "" {
		addr = serveOpts.addr
	}

	s := routes.New(routes.ServerOptions{
		API:     a.api,
		Master:  masterdata.NewLoader(a.cfg.Masterdata.Path),
		Metrics: a.metrics,
		Log:     a.log.With().Str("component", "http").Logger(),
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error().Err(err).Msg("server shutdown")
		}
	}()

	a.log.Info().Str("addr", addr).Msg("starting http server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
