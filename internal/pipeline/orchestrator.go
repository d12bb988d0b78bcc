package pipeline

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/primsync/internal/logger"
)

// Run executes steps strictly in declared order and returns one report entry
// per step. A step failure is recorded and execution continues; only a
// malformed step list (duplicate names, unknown needs) returns an error.
//
// With dryRun, predicates are still evaluated against the accumulated
// outcomes but no action is invoked; steps are recorded WouldUpdate or
// WouldSkip and nothing is mutated.
func Run(ctx context.Context, steps []Step, dryRun bool) (Report, error) {
	if err := validate(steps); err != nil {
		return nil, err
	}

	report := make(Report, 0, len(steps))
	outcomes := make(Outcomes, len(steps))
	reasons := make(map[string]string, len(steps))

	record := func(s Step, res Result, reason string, err error) {
		entry := StepReport{Name: s.Name, Result: res, Reason: reason}
		if err != nil {
			entry.Error = err.Error()
		}
		report = append(report, entry)
		outcomes[s.Name] = res
		reasons[s.Name] = reason
	}

	for _, s := range steps {
		if blockedUpstream(s, outcomes, reasons) {
			logger.Debug("step %s: skipped (%s)", s.Name, ReasonUpstreamFailed)
			record(s, Skipped, ReasonUpstreamFailed, nil)
			continue
		}

		run := s.shouldRun(outcomes)

		if dryRun {
			if run {
				record(s, WouldUpdate, "", nil)
			} else {
				record(s, WouldSkip, ReasonNoChange, nil)
			}
			continue
		}

		if !run {
			logger.Debug("step %s: skipped (%s)", s.Name, ReasonNoChange)
			record(s, Skipped, ReasonNoChange, nil)
			continue
		}

		res, err := s.Run(ctx)
		if err != nil {
			logger.LogError("step %s failed: %v", s.Name, err)
			record(s, Failed, "", err)
			continue
		}
		if res == Skipped {
			record(s, Skipped, ReasonNoChange, nil)
			continue
		}
		record(s, res, "", nil)
	}

	return report, nil
}

// blockedUpstream reports whether a needed step failed, directly or through
// its own sidelined dependencies.
func blockedUpstream(s Step, outcomes Outcomes, reasons map[string]string) bool {
	for _, need := range s.Needs {
		if outcomes[need] == Failed {
			return true
		}
		if outcomes[need] == Skipped && reasons[need] == ReasonUpstreamFailed {
			return true
		}
	}
	return false
}

func validate(steps []Step) error {
	seen := make(map[string]struct{}, len(steps))
	for _, s := range steps {
		if s.Name == "" {
			return fmt.Errorf("pipeline: step with empty name")
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("pipeline: duplicate step %q", s.Name)
		}
		for _, need := range s.Needs {
			if _, ok := seen[need]; !ok {
				return fmt.Errorf("pipeline: step %q needs %q, which is not declared before it", s.Name, need)
			}
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}
