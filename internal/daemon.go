package internal

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/primsync/internal/errs"
	"github.com/MrSnakeDoc/primsync/internal/globalconfig"
	"github.com/MrSnakeDoc/primsync/internal/logger"
	"github.com/MrSnakeDoc/primsync/internal/middleware"
	"github.com/MrSnakeDoc/primsync/internal/models"
	"github.com/MrSnakeDoc/primsync/internal/pipeline"
	"github.com/MrSnakeDoc/primsync/internal/scheduler"
	"github.com/MrSnakeDoc/primsync/internal/store"
	"github.com/MrSnakeDoc/primsync/internal/syncer"

	"github.com/spf13/cobra"
)

const minDaemonInterval = 1 * time.Minute

func NewDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Keep resources in sync on a fixed interval",
		Long: `Runs the full pipeline immediately, then re-runs it in the background on
a fixed interval until interrupted. Cycles never overlap: the next cycle is
scheduled only after the previous one finished. A failing cycle is logged
and the schedule continues.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pconf, err := middleware.Get[*globalconfig.PersistentConfig](cmd, middleware.CtxKeyPConfig)
			if err != nil {
				return err
			}
			m, err := middleware.Get[*models.Manifest](cmd, middleware.CtxKeyManifest)
			if err != nil {
				return err
			}

			interval, _ := cmd.Flags().GetDuration("interval")
			if interval == 0 {
				interval = pconf.Interval()
			}
			if interval < minDaemonInterval {
				return middleware.FlagComboError(errs.IntervalTooSmall, interval, minDaemonInterval)
			}

			st, err := store.NewFS(pconf.DataDir)
			if err != nil {
				return err
			}
			s := syncer.New(m, st, nil)

			runOnce := func() error {
				report, err := pipeline.Run(context.Background(), s.Steps(), false)
				if err != nil {
					return err
				}
				if !report.OK() {
					return fmt.Errorf("steps failed: %s", strings.Join(report.Failures(), ", "))
				}
				return nil
			}

			// Blocking first pass, so the daemon starts from a fresh state.
			if err := runOnce(); err != nil {
				logger.LogError("initial sync failed: %v", err)
			}

			upd := scheduler.New(runOnce, interval)
			upd.Start()
			logger.Info("daemon started (interval=%s)", interval)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig

			upd.Stop()
			logger.Info("daemon stopped")
			return nil
		},
	}

	cmd.Flags().DurationP("interval", "i", 0, "Spacing between sync cycles (default from config, 1h)")

	return cmd
}
