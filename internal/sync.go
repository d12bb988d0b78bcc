package internal

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/primsync/internal/errs"
	"github.com/MrSnakeDoc/primsync/internal/globalconfig"
	"github.com/MrSnakeDoc/primsync/internal/middleware"
	"github.com/MrSnakeDoc/primsync/internal/models"
	"github.com/MrSnakeDoc/primsync/internal/pipeline"
	"github.com/MrSnakeDoc/primsync/internal/store"
	"github.com/MrSnakeDoc/primsync/internal/syncer"

	"github.com/spf13/cobra"
)

func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [steps...]",
		Short: "Run the sync pipeline once",
		Long: `Runs the pipeline: sync_specs → generate_clients → sync_datasets →
validate_datasets. Steps gated on upstream changes are skipped when nothing
changed. Pass step names to run only a subset.

Examples:
    primsync sync                 # full pipeline
    primsync sync sync_datasets   # one step
    primsync sync --dry-run       # report what would happen, mutate nothing`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pconf, err := middleware.Get[*globalconfig.PersistentConfig](cmd, middleware.CtxKeyPConfig)
			if err != nil {
				return err
			}
			m, err := middleware.Get[*models.Manifest](cmd, middleware.CtxKeyManifest)
			if err != nil {
				return err
			}

			dryRun, _ := cmd.Flags().GetBool("dry-run")
			force, _ := cmd.Flags().GetBool("force")
			jsonOut, _ := cmd.Flags().GetBool("json")

			if force && dryRun {
				return middleware.FlagComboError(errs.ForceWithDryRun)
			}

			st, err := store.NewFS(pconf.DataDir)
			if err != nil {
				return err
			}

			s := syncer.New(m, st, nil)
			s.Force = force

			steps, err := selectSteps(s.Steps(), args)
			if err != nil {
				return err
			}

			report, err := pipeline.Run(cmd.Context(), steps, dryRun)
			if err != nil {
				return err
			}

			if jsonOut {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else if err := report.Render(); err != nil {
				return err
			}

			if !report.OK() {
				return fmt.Errorf("pipeline failed: %s", strings.Join(report.Failures(), ", "))
			}
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Evaluate the pipeline without fetching or writing anything")
	cmd.Flags().BoolP("force", "f", false, "Ignore cached version tokens and re-fetch everything")
	cmd.Flags().Bool("json", false, "Print the report as JSON instead of a table")

	return cmd
}

// selectSteps keeps the declared order while restricting to the named steps.
// Dependencies of a selected step are kept too, so gating still works. Steps
// the user named run unconditionally (their actions self-check what needs
// redoing); only the pulled-in dependencies keep their change gate. Upstream
// failures still sideline everything downstream.
func selectSteps(all []pipeline.Step, names []string) ([]pipeline.Step, error) {
	if len(names) == 0 {
		return all, nil
	}

	known := make(map[string]pipeline.Step, len(all))
	for _, s := range all {
		known[s.Name] = s
	}

	explicit := make(map[string]struct{}, len(names))
	wanted := make(map[string]struct{})
	var add func(name string) error
	add = func(name string) error {
		s, ok := known[name]
		if !ok {
			return middleware.FlagComboError(errs.UnknownStep, name, stepNames(all))
		}
		if _, done := wanted[name]; done {
			return nil
		}
		wanted[name] = struct{}{}
		for _, need := range s.Needs {
			if err := add(need); err != nil {
				return err
			}
		}
		return nil
	}
	for _, name := range names {
		explicit[name] = struct{}{}
		if err := add(name); err != nil {
			return nil, err
		}
	}

	out := make([]pipeline.Step, 0, len(wanted))
	for _, s := range all {
		if _, ok := wanted[s.Name]; !ok {
			continue
		}
		if _, named := explicit[s.Name]; named && s.Predicate == nil {
			s.Predicate = func(pipeline.Outcomes) bool { return true }
		}
		out = append(out, s)
	}
	return out, nil
}

func stepNames(steps []pipeline.Step) string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return strings.Join(names, ", ")
}
