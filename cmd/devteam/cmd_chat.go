package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"devteam-ai/internal/adapter/tui/chat"
	"devteam-ai/internal/adapter/tui/components"
	"devteam-ai/internal/adapter/tui/theme"
	"devteam-ai/internal/domain"
	"devteam-ai/internal/infra/logger"
	"devteam-ai/internal/usecase/multiagent"
)

func newChatCmd(rt *app) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation with the team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			// Terminal log output would draw over the full screen UI.
			if !plain {
				switch strings.ToLower(rt.cfg.Logger.Output) {
				case "", "stderr", "stdout":
					rt.log = logger.Discard()
				}
			}

			tc, err := rt.initTeam(ctx)
			if err != nil {
				return err
			}
			team, err := tc.newTeam()
			if err != nil {
				return err
			}
			rt.log.Info("chat session started", "session_id", team.SessionID(), "agent", team.Current())

			if plain {
				return runPlainChat(ctx, team, cmd.InOrStdin(), cmd.OutOrStdout())
			}

			theme.InitSymbols()
			model := chat.NewModel(chat.Deps{
				Team:      team,
				Roles:     tc.Catalog.Types(),
				ModelName: rt.cfg.Agent.Model,
				Logger:    logger.Component(rt.log, "tui"),
			})
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("chat ui: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "line mode without the full screen UI")
	return cmd
}

// runPlainChat reads one query per line from in until EOF, /quit or ctx
// is done.
func runPlainChat(ctx context.Context, team *multiagent.Team, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "Talking to %s. Type /help for commands.\n", team.Current().DisplayName())
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		if name, rest, ok := components.ParseSlashCommand(line); ok {
			if quit := plainCommand(team, name, rest, out); quit {
				return nil
			}
			continue
		}

		turns, err := team.Ask(ctx, line)
		printTurns(out, turns)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintln(out, domain.FriendlyError(err))
		}
	}
}

// plainCommand handles a slash command in line mode and reports whether
// the loop should stop.
func plainCommand(team *multiagent.Team, name, rest string, out io.Writer) bool {
	switch name {
	case "/quit", "/exit":
		return true
	case "/reset":
		team.Reset()
		fmt.Fprintf(out, "Conversation reset. Talking to %s.\n", team.Current().DisplayName())
	case "/agent":
		role, err := domain.ParseAgentType(rest)
		if err == nil {
			err = team.SetCurrent(role)
		}
		if err != nil {
			fmt.Fprintf(out, "Unknown agent %q.\n", rest)
			break
		}
		fmt.Fprintf(out, "Switched to %s.\n", role.DisplayName())
	case "/agents":
		for _, t := range team.Catalog().Types() {
			fmt.Fprintf(out, "  %s (%s)\n", t.DisplayName(), t)
		}
	case "/help":
		fmt.Fprintln(out, "Commands: /agent <ROLE>, /agents, /reset, /quit")
	default:
		fmt.Fprintf(out, "Unknown command: %s.\n", name)
	}
	return false
}
