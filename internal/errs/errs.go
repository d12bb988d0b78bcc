package errs

import "fmt"

type Code string

const (
	UnknownStep      Code = "UNKNOWN_STEP"
	ForceWithDryRun  Code = "FORCE_WITH_DRY_RUN"
	IntervalTooSmall Code = "INTERVAL_TOO_SMALL"
)

var messages = map[Code]string{
	UnknownStep: `Unknown pipeline step: %[1]q

Usage:
  - Run the full pipeline:
      primsync sync
  - Run a subset of steps:
      primsync sync sync_specs sync_datasets

Known steps: %[2]s`,

	ForceWithDryRun: `Invalid flag combination: cannot use --force with --dry-run

Usage:
  - Preview what a sync would do:
      primsync sync --dry-run
  - Re-fetch everything ignoring cached version tokens:
      primsync sync --force

Reason:
  --dry-run promises to mutate nothing; --force exists to mutate more.`,

	IntervalTooSmall: `Invalid interval: %[1]s is below the %[2]s minimum

Usage:
  primsync daemon --interval 1h

Reason:
  The portals rate-limit aggressively; syncing more often than %[2]s
  only burns quota on 304 responses.`,
}

func Msg(code Code, a ...any) string {
	msg := messages[code]
	if msg == "" {
		msg = string(code)
	}
	return fmt.Sprintf(msg, a...)
}
