package server

import (
	"fmt"
	"time"

	"github.com/mwantia/fdatracker/internal/auth"
	"github.com/spf13/cobra"

	config "github.com/mwantia/fdatracker/internal/config/server"
)

func NewTokenCommand() *cobra.Command {
	var (
		subject string
		roles   []string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token",
		Long: `Issue a bearer token signed with auth.secret.

Tokens holding the configured admin role may save new dataset versions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load server configuration: %w", err)
			}

			token, err := auth.NewAuthenticator(cfg.Auth).IssueToken(subject, roles, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "token subject, recorded as the creator of saved versions")
	cmd.Flags().StringSliceVar(&roles, "role", []string{"admin"}, "roles granted by the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default is auth.token_ttl)")
	cmd.MarkFlagRequired("subject")

	return cmd
}
