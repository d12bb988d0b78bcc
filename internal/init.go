package internal

import (
	"github.com/MrSnakeDoc/primsync/internal/initiator"
	"github.com/MrSnakeDoc/primsync/internal/logger"

	"github.com/spf13/cobra"
)

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize primsync configuration",
		Long: `Initialize primsync configuration.
This command will:
- Create a primsync.yml manifest skeleton (unless one exists)
- Create the data directory for synced artifacts
- Save both paths in ~/.config/primsync/config.yml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manifestPath, _ := cmd.Flags().GetString("manifest")
			dataDir, _ := cmd.Flags().GetString("data-dir")

			if err := initiator.New(manifestPath, dataDir).Execute(); err != nil {
				return err
			}

			logger.Success("Initialized primsync")
			return nil
		},
	}

	cmd.Flags().String("manifest", "", "Path to the manifest file (default ./primsync.yml)")
	cmd.Flags().String("data-dir", "", "Directory for synced artifacts (default ./data/raw)")

	return cmd
}
