package pipeline

import "context"

type Result string

const (
	Updated Result = "updated"
	Skipped Result = "skipped"
	Failed  Result = "failed"
	// Preview-only results; a real run never records them.
	WouldUpdate Result = "would-update"
	WouldSkip   Result = "would-skip"
)

// Skip reasons, kept apart so a voluntary no-op is distinguishable from a
// step sidelined by an upstream failure.
const (
	ReasonNoChange       = "no change"
	ReasonUpstreamFailed = "upstream failed"
)

// Outcomes accumulates the results of the steps already executed in the
// current run. Predicates are evaluated against it, never against global
// state.
type Outcomes map[string]Result

// Changed reports whether the named step produced new content this run.
func (o Outcomes) Changed(name string) bool {
	r := o[name]
	return r == Updated || r == WouldUpdate
}

// Step is one named unit of the pipeline. Needs declares the explicit input
// set: the step runs only when at least one needed step produced Updated, and
// is sidelined when a needed step failed. An empty Needs means unconditional.
// Predicate, when set, replaces the default change gate (the upstream-failure
// gate still applies).
type Step struct {
	Name      string
	Needs     []string
	Predicate func(Outcomes) bool
	Run       func(ctx context.Context) (Result, error)
}

func (s Step) shouldRun(prior Outcomes) bool {
	if s.Predicate != nil {
		return s.Predicate(prior)
	}
	if len(s.Needs) == 0 {
		return true
	}
	for _, need := range s.Needs {
		if prior.Changed(need) {
			return true
		}
	}
	return false
}
