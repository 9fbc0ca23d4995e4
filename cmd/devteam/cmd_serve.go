package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"devteam-ai/internal/adapter/httpapi"
	"devteam-ai/internal/infra/logger"
	"devteam-ai/internal/usecase/multiagent"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(rt *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve team sessions over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg := rt.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}

			tc, err := rt.initTeam(ctx)
			if err != nil {
				return err
			}
			registry := multiagent.NewSessionRegistry(
				multiagent.NewTeamFactory(tc.Catalog, tc.Provider, tc.Options...),
				logger.Component(rt.log, "sessions"),
			)

			opts := []httpapi.ServerOption{
				httpapi.WithLogger(logger.Component(rt.log, "http")),
				httpapi.WithBreakers(tc.Breakers...),
				httpapi.WithRateLimit(ctx, httpapi.RateLimitConfig{
					RequestsPerMin: cfg.Server.RequestsPerMin,
					Burst:          cfg.Server.Burst,
					TrustedProxies: cfg.Server.TrustedProxies,
				}),
			}
			if cfg.Store.Enabled {
				opts = append(opts, httpapi.WithTranscripts(tc.Store))
			}

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           httpapi.NewServer(registry, tc.Catalog, opts...),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       cfg.Server.ReadTimeout,
				WriteTimeout:      cfg.Server.WriteTimeout,
				BaseContext:       func(net.Listener) context.Context { return ctx },
			}

			ln, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
			}
			rt.log.Info("devteam api listening",
				"addr", ln.Addr().String(),
				"provider", cfg.LLM.DefaultProvider,
				"transcripts", cfg.Store.Enabled,
			)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Serve(ln) }()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			rt.log.Info("shutting down", "sessions", registry.Len())
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancelShutdown()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}
