package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"devteam-ai/internal/infra/config"
)

func newEncryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <value>",
		Short: "Encrypt a secret for use as an enc: config value",
		Long: "Encrypts value with the passphrase in DEVTEAM_CONFIG_KEY. Paste the output\n" +
			"into config.yaml as an api_key or team.environment value.",
		Args: cobra.ExactArgs(1),
		// No config is needed.
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			passphrase := os.Getenv("DEVTEAM_CONFIG_KEY")
			if passphrase == "" {
				return errors.New("DEVTEAM_CONFIG_KEY must be set")
			}
			enc, err := config.EncryptValue(args[0], passphrase)
			if err != nil {
				return fmt.Errorf("encrypt: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "enc:"+enc)
			return nil
		},
	}
}
