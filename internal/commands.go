package internal

import (
	"github.com/MrSnakeDoc/primsync/internal/middleware"
	"github.com/spf13/cobra"
)

var defaultCommands = []middleware.CommandFactory{
	NewInitCmd,
	middleware.UseMiddlewareChain(middleware.RequireConfig, middleware.LoadManifest)(NewSyncCmd),
	middleware.UseMiddlewareChain(middleware.RequireConfig, middleware.LoadManifest)(NewDaemonCmd),
	middleware.UseMiddlewareChain(middleware.RequireConfig, middleware.LoadManifest)(NewStatusCmd),
}

func RegisterSubCommands(cmd *cobra.Command) {
	for _, factory := range defaultCommands {
		cmd.AddCommand(factory())
	}
}
