package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"devteam-ai/internal/usecase/multiagent"
)

func newAgentsCmd(rt *app) *cobra.Command {
	var suggest string
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List the team roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := buildCatalog(rt.cfg.Agent.Instructions)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if suggest != "" {
				suggestions := multiagent.SuggestByKeywords(catalog, suggest)
				if len(suggestions) == 0 {
					fmt.Fprintln(out, "no matching role")
					return nil
				}
				for _, s := range suggestions {
					fmt.Fprintf(out, "%-22s %d  %s\n", s.Agent, s.Score, strings.Join(s.Matched, ", "))
				}
				return nil
			}

			for _, p := range catalog.Profiles() {
				fmt.Fprintf(out, "%-22s %s\n", p.Type, p.Type.DisplayName())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&suggest, "suggest", "", "rank roles by keyword matches in this text")
	return cmd
}

func newDetectCmd(rt *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <text>",
		Short: "Print the role a reply hands off to, or \"none\"",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := buildCatalog(rt.cfg.Agent.Instructions)
			if err != nil {
				return err
			}
			role, ok := multiagent.DetectHandoff(strings.Join(args, " "), catalog.Types())
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "none")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), role)
			return nil
		},
	}
}
