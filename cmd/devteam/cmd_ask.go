package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"devteam-ai/internal/domain"
	"devteam-ai/internal/usecase/multiagent"
)

func newAskCmd(rt *app) *cobra.Command {
	var (
		agent   string
		project string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Send one query to the team and print the replies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := rt.initTeam(cmd.Context())
			if err != nil {
				return err
			}
			var opts []multiagent.TeamOption
			if agent != "" {
				role, err := domain.ParseAgentType(agent)
				if err != nil {
					return err
				}
				opts = append(opts, multiagent.WithStartAgent(role))
			}
			if project != "" {
				opts = append(opts, multiagent.WithProject(project))
			}
			team, err := tc.newTeam(opts...)
			if err != nil {
				return err
			}

			turns, askErr := team.Ask(cmd.Context(), strings.Join(args, " "))
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(map[string]any{
					"session_id":    team.SessionID(),
					"current_agent": team.Current(),
					"turns":         turns,
				}); err != nil {
					return err
				}
			} else {
				printTurns(out, turns)
			}
			if askErr != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), domain.FriendlyError(askErr))
				return askErr
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "role that receives the query (default team.start_agent)")
	cmd.Flags().StringVar(&project, "project", "", "project id shown to every role")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print turns as JSON")
	return cmd
}
