package commands

import (
	"github.com/spf13/cobra"

	"timesolver/internal/config"
	"timesolver/internal/logging"
	"timesolver/internal/server"
)

// ServeCmd creates the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP solve service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port, _ := cmd.Flags().GetInt("port"); port > 0 {
				cfg.Port = port
			}

			logger, err := logging.New(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			return server.Run(cfg, logger)
		},
	}

	cmd.Flags().Int("port", 0, "Override the listen port")
	return cmd
}
