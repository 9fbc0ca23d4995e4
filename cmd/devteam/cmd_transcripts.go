package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"devteam-ai/internal/adapter/store"
)

func newTranscriptsCmd(rt *app) *cobra.Command {
	return &cobra.Command{
		Use:   "transcripts [session-id]",
		Short: "List recorded sessions, or print one session's transcript",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !rt.cfg.Store.Enabled {
				return errors.New("transcripts are disabled (set store.enabled)")
			}
			s, err := store.NewSQLiteTranscriptStore(rt.cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("open transcript store: %w", err)
			}
			defer s.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				ids, err := s.Sessions(ctx)
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
				return nil
			}

			entries, err := s.List(ctx, args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return fmt.Errorf("no transcript for session %s", args[0])
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%d %s [%s] %s: %s\n", e.Seq, e.CreatedAt.Format("15:04:05"), e.Agent.DisplayName(), e.Role, e.Content)
				if e.HandoffTo != "" {
					fmt.Fprintf(out, "  handoff to %s\n", e.HandoffTo.DisplayName())
				}
			}
			return nil
		},
	}
}
