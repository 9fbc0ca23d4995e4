package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"devteam-ai/internal/infra/config"
	"devteam-ai/internal/infra/logger"
	"devteam-ai/internal/infra/tracer"
)

// app is the state shared by subcommands once the config is loaded.
type app struct {
	configPath string

	cfg     *config.Config
	log     *slog.Logger
	closers []func() error
}

func newRootCmd() *cobra.Command {
	rt := &app{}
	root := &cobra.Command{
		Use:           "devteam",
		Short:         "Chat with a team of specialized software agents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.load(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return rt.close()
		},
	}
	root.PersistentFlags().StringVar(&rt.configPath, "config", defaultConfigPath(), "path to config file (env DEVTEAM_CONFIG)")

	root.AddCommand(
		newChatCmd(rt),
		newAskCmd(rt),
		newServeCmd(rt),
		newAgentsCmd(rt),
		newDetectCmd(rt),
		newTranscriptsCmd(rt),
		newEncryptCmd(),
	)
	return root
}

func defaultConfigPath() string {
	if p := os.Getenv("DEVTEAM_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

func (rt *app) load(ctx context.Context) error {
	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	shutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		_ = closeLog()
		return fmt.Errorf("init tracer: %w", err)
	}

	rt.cfg = cfg
	rt.log = log
	rt.closers = append(rt.closers,
		closeLog,
		func() error { return shutdown(context.Background()) },
	)
	return nil
}

// close runs the registered closers, the most recent first.
func (rt *app) close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

func (rt *app) onClose(fn func() error) {
	rt.closers = append(rt.closers, fn)
}
