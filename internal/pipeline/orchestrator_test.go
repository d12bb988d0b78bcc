package pipeline

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/MrSnakeDoc/primsync/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.UseTestMode()
	os.Exit(m.Run())
}

func stepReturning(name string, res Result, err error, calls *[]string) Step {
	return Step{
		Name: name,
		Run: func(ctx context.Context) (Result, error) {
			if calls != nil {
				*calls = append(*calls, name)
			}
			return res, err
		},
	}
}

func TestRunExecutesInDeclaredOrder(t *testing.T) {
	var calls []string
	steps := []Step{
		stepReturning("a", Updated, nil, &calls),
		stepReturning("b", Updated, nil, &calls),
		stepReturning("c", Skipped, nil, &calls),
	}

	report, err := Run(context.Background(), steps, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, calls)
	require.Len(t, report, 3)
	assert.Equal(t, "a", report[0].Name)
	assert.Equal(t, "c", report[2].Name)
	assert.True(t, report.OK())
}

func TestDependentStepRunsOnlyOnChange(t *testing.T) {
	var calls []string

	// upstream updated → dependent runs
	steps := []Step{
		stepReturning("sync_spec", Updated, nil, &calls),
		{
			Name:  "generate_clients",
			Needs: []string{"sync_spec"},
			Run: func(ctx context.Context) (Result, error) {
				calls = append(calls, "generate_clients")
				return Updated, nil
			},
		},
	}
	report, err := Run(context.Background(), steps, false)
	require.NoError(t, err)
	assert.Contains(t, calls, "generate_clients")
	assert.Equal(t, Updated, report[1].Result)

	// upstream skipped → dependent skipped with "no change"
	calls = nil
	steps[0] = stepReturning("sync_spec", Skipped, nil, &calls)
	report, err = Run(context.Background(), steps, false)
	require.NoError(t, err)
	assert.NotContains(t, calls, "generate_clients")
	assert.Equal(t, Skipped, report[1].Result)
	assert.Equal(t, ReasonNoChange, report[1].Reason)
}

func TestFailureSkipsDependentsButNotIndependents(t *testing.T) {
	var calls []string
	steps := []Step{
		stepReturning("sync_specs", Updated, nil, &calls),
		stepReturning("sync_dataset", Updated, nil, &calls),
		{
			Name:  "validate_dataset",
			Needs: []string{"sync_dataset"},
			Run: func(ctx context.Context) (Result, error) {
				calls = append(calls, "validate_dataset")
				return Failed, errors.New("schema mismatch")
			},
		},
		{
			Name:  "publish_dataset",
			Needs: []string{"validate_dataset"},
			Run: func(ctx context.Context) (Result, error) {
				calls = append(calls, "publish_dataset")
				return Updated, nil
			},
		},
		stepReturning("independent", Updated, nil, &calls),
	}

	report, err := Run(context.Background(), steps, false)
	require.NoError(t, err)

	assert.Equal(t, Updated, report[0].Result) // earlier step unaffected
	assert.Equal(t, Failed, report[2].Result)
	assert.Equal(t, "schema mismatch", report[2].Error)
	assert.Equal(t, Skipped, report[3].Result)
	assert.Equal(t, ReasonUpstreamFailed, report[3].Reason)
	assert.NotContains(t, calls, "publish_dataset")
	assert.Equal(t, Updated, report[4].Result) // independent still ran

	assert.False(t, report.OK())
	assert.Equal(t, []string{"validate_dataset"}, report.Failures())
}

func TestUpstreamFailureBlocksTransitively(t *testing.T) {
	steps := []Step{
		stepReturning("a", Failed, errors.New("boom"), nil),
		{Name: "b", Needs: []string{"a"}, Run: func(ctx context.Context) (Result, error) { return Updated, nil }},
		{Name: "c", Needs: []string{"b"}, Run: func(ctx context.Context) (Result, error) { return Updated, nil }},
	}
	// note: step a's Run returns (Failed, err); the orchestrator records Failed
	// from the error, the returned Result is irrelevant
	report, err := Run(context.Background(), steps, false)
	require.NoError(t, err)

	assert.Equal(t, Failed, report[0].Result)
	assert.Equal(t, Skipped, report[1].Result)
	assert.Equal(t, ReasonUpstreamFailed, report[1].Reason)
	assert.Equal(t, Skipped, report[2].Result)
	assert.Equal(t, ReasonUpstreamFailed, report[2].Reason)
}

func TestDryRunInvokesNoActions(t *testing.T) {
	var calls []string
	steps := []Step{
		stepReturning("sync_specs", Updated, nil, &calls),
		{
			Name:  "generate_clients",
			Needs: []string{"sync_specs"},
			Run: func(ctx context.Context) (Result, error) {
				calls = append(calls, "generate_clients")
				return Updated, nil
			},
		},
		{
			Name:      "never",
			Predicate: func(Outcomes) bool { return false },
			Run: func(ctx context.Context) (Result, error) {
				calls = append(calls, "never")
				return Updated, nil
			},
		},
	}

	report, err := Run(context.Background(), steps, true)
	require.NoError(t, err)
	assert.Empty(t, calls, "dry run must not invoke any action")

	assert.Equal(t, WouldUpdate, report[0].Result)
	// gating is evaluated against preview outcomes: sync_specs WouldUpdate
	// counts as changed for its dependents
	assert.Equal(t, WouldUpdate, report[1].Result)
	assert.Equal(t, WouldSkip, report[2].Result)
	assert.True(t, report.OK())
}

func TestCustomPredicateOverridesChangeGate(t *testing.T) {
	ran := false
	steps := []Step{
		stepReturning("sync_specs", Skipped, nil, nil),
		{
			Name:      "always",
			Needs:     []string{"sync_specs"},
			Predicate: func(Outcomes) bool { return true },
			Run: func(ctx context.Context) (Result, error) {
				ran = true
				return Updated, nil
			},
		},
	}
	report, err := Run(context.Background(), steps, false)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, Updated, report[1].Result)
}

func TestValidateRejectsMalformedPipelines(t *testing.T) {
	dup := []Step{
		stepReturning("a", Updated, nil, nil),
		stepReturning("a", Updated, nil, nil),
	}
	_, err := Run(context.Background(), dup, false)
	assert.Error(t, err)

	forward := []Step{
		{Name: "b", Needs: []string{"later"}, Run: func(ctx context.Context) (Result, error) { return Updated, nil }},
		stepReturning("later", Updated, nil, nil),
	}
	_, err = Run(context.Background(), forward, false)
	assert.Error(t, err)

	unnamed := []Step{{Run: func(ctx context.Context) (Result, error) { return Updated, nil }}}
	_, err = Run(context.Background(), unnamed, false)
	assert.Error(t, err)
}
