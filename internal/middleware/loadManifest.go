package middleware

import (
	"context"

	"github.com/MrSnakeDoc/primsync/internal/globalconfig"
	"github.com/MrSnakeDoc/primsync/internal/manifest"
	"github.com/spf13/cobra"
)

func LoadManifest(cmd *cobra.Command, args []string, next func(cmd *cobra.Command, args []string) error) error {
	pconf, err := Get[*globalconfig.PersistentConfig](cmd, CtxKeyPConfig)
	if err != nil {
		return err
	}

	m, err := manifest.Load(pconf.ManifestFile)
	if err != nil {
		return err
	}

	ctx := context.WithValue(cmd.Context(), CtxKeyManifest, m)
	cmd.SetContext(ctx)

	return next(cmd, args)
}
