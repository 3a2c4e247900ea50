package server

import (
	"context"
	"fmt"

	"github.com/mwantia/fdatracker/internal/agent"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	config "github.com/mwantia/fdatracker/internal/config/server"
)

func NewAgentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Start the FDA tracker agent",
		Long: `Start the FDA tracker agent.

The agent opens and migrates the metadata store, merges the latest published
dataset with the bundled source and serves the dashboard API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load server configuration: %w", err)
			}

			return agent.NewAgent(cfg).Serve(context.Background())
		},
	}

	cmd.Flags().String("address", "", "listen address (overrides config)")
	viper.BindPFlag("address", cmd.Flags().Lookup("address"))

	return cmd
}
