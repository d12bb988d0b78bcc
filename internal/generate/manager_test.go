package generate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/MrSnakeDoc/primsync/internal/logger"
	"github.com/MrSnakeDoc/primsync/internal/models"
	"github.com/MrSnakeDoc/primsync/internal/pipeline"
	"github.com/MrSnakeDoc/primsync/internal/runner"
	"github.com/MrSnakeDoc/primsync/internal/store"
	"github.com/MrSnakeDoc/primsync/internal/utils"
)

func TestMain(m *testing.M) {
	logger.UseTestMode()
	os.Exit(m.Run())
}

func seedSpec(t *testing.T, st *store.FS, id string, body []byte) models.Resource {
	t.Helper()
	res := models.Resource{ID: id, Kind: models.KindSpec}
	meta := store.Meta{URL: "https://example.org/" + id, SHA256: utils.SHA256Hex(body), SizeBytes: int64(len(body))}
	if err := st.Persist(context.Background(), res, meta, body); err != nil {
		t.Fatalf("seed spec: %v", err)
	}
	return res
}

func newGenerator(t *testing.T) (*Generator, *store.FS, *runner.MockRunner) {
	t.Helper()
	st, err := store.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	mock := runner.NewMockRunner()
	g := New(st, mock)
	g.ClientDir = filepath.Join(t.TempDir(), "clients")
	return g, st, mock
}

func TestGenerateRebuildsNewClient(t *testing.T) {
	g, st, mock := newGenerator(t)
	body := []byte(`{"openapi":"3.0.0"}`)
	res := seedSpec(t, st, "ratp-realtime", body)

	result, err := g.Execute(context.Background(), []models.Resource{res})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result != pipeline.Updated {
		t.Fatalf("result = %s, want updated", result)
	}
	if !mock.VerifyRunCount("docker", 1) {
		t.Errorf("docker invocations = %d, want 1", len(mock.Commands))
	}

	marker, err := os.ReadFile(filepath.Join(g.ClientDir, "ratp-realtime", ".spec_hash"))
	if err != nil {
		t.Fatalf("read marker: %v", err)
	}
	if string(marker) != utils.SHA256Hex(body) {
		t.Errorf("marker = %q", marker)
	}
}

func TestGenerateSkipsWhenHashMatches(t *testing.T) {
	g, st, mock := newGenerator(t)
	res := seedSpec(t, st, "ratp-realtime", []byte("spec"))

	ctx := context.Background()
	if _, err := g.Execute(ctx, []models.Resource{res}); err != nil {
		t.Fatalf("first Execute: %v", err)
	}

	result, err := g.Execute(ctx, []models.Resource{res})
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if result != pipeline.Skipped {
		t.Fatalf("result = %s, want skipped", result)
	}
	if !mock.VerifyRunCount("docker", 1) {
		t.Errorf("unchanged spec must not regenerate")
	}
}

func TestGenerateRebuildsOnHashMismatch(t *testing.T) {
	g, st, mock := newGenerator(t)
	res := seedSpec(t, st, "ratp-realtime", []byte("spec v1"))

	ctx := context.Background()
	if _, err := g.Execute(ctx, []models.Resource{res}); err != nil {
		t.Fatalf("first Execute: %v", err)
	}

	// New spec revision committed since the last generation.
	seedSpec(t, st, "ratp-realtime", []byte("spec v2"))

	result, err := g.Execute(ctx, []models.Resource{res})
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if result != pipeline.Updated {
		t.Fatalf("result = %s, want updated", result)
	}
	if !mock.VerifyRunCount("docker", 2) {
		t.Errorf("stale client must be regenerated")
	}
}

func TestGenerateFailsWithoutMetadata(t *testing.T) {
	g, _, mock := newGenerator(t)
	res := models.Resource{ID: "never-synced", Kind: models.KindSpec}

	result, err := g.Execute(context.Background(), []models.Resource{res})
	if result != pipeline.Failed {
		t.Fatalf("result = %s, want failed", result)
	}
	if err == nil {
		t.Fatal("expected error for missing metadata")
	}
	if !mock.VerifyRunCount("docker", 0) {
		t.Errorf("generator ran without a committed spec")
	}
}

func TestGenerateSurfacesRunnerFailure(t *testing.T) {
	g, st, mock := newGenerator(t)
	res := seedSpec(t, st, "ratp-realtime", []byte("spec"))
	mock.ResponseFunc = func(name string, args ...string) ([]byte, error) {
		return []byte("Error: spec validation failed"), errors.New("exit status 1")
	}

	result, err := g.Execute(context.Background(), []models.Resource{res})
	if result != pipeline.Failed {
		t.Fatalf("result = %s, want failed", result)
	}
	if err == nil {
		t.Fatal("expected error from runner")
	}
	// Marker must not be written after a failed generation.
	if _, statErr := os.Stat(filepath.Join(g.ClientDir, "ratp-realtime", ".spec_hash")); statErr == nil {
		t.Errorf("marker written despite failure")
	}
}
