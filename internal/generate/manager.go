package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrSnakeDoc/primsync/internal/logger"
	"github.com/MrSnakeDoc/primsync/internal/models"
	"github.com/MrSnakeDoc/primsync/internal/pipeline"
	"github.com/MrSnakeDoc/primsync/internal/runner"
	"github.com/MrSnakeDoc/primsync/internal/store"
)

const (
	generatorImage = "openapitools/openapi-generator-cli:v7.4.0"
	genTimeout     = 5 * time.Minute
	hashFileName   = ".spec_hash"
)

// Generator regenerates API clients from committed spec artifacts through the
// OpenAPI Generator container. A .spec_hash marker per client directory
// records which spec revision the client was built from, so unchanged specs
// are not regenerated.
type Generator struct {
	Store     store.Store
	Runner    runner.CommandRunner
	ClientDir string
}

func New(st store.Store, r runner.CommandRunner) *Generator {
	if r == nil {
		r = &runner.ExecRunner{}
	}
	return &Generator{
		Store:  st,
		Runner: r,
	}
}

// Execute regenerates clients for the given spec resources. Updated when at
// least one client was rebuilt, Skipped when every client already matches its
// spec hash.
func (g *Generator) Execute(ctx context.Context, specs []models.Resource) (pipeline.Result, error) {
	result := pipeline.Skipped
	var errs []error

	for _, res := range specs {
		regenerated, err := g.generateOne(ctx, res)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.ID, err))
			continue
		}
		if regenerated {
			result = pipeline.Updated
		}
	}

	if len(errs) > 0 {
		return pipeline.Failed, errors.Join(errs...)
	}
	return result, nil
}

func (g *Generator) generateOne(ctx context.Context, res models.Resource) (bool, error) {
	meta, err := g.Store.ReadMeta(ctx, res)
	if err != nil {
		return false, fmt.Errorf("read spec metadata: %w", err)
	}

	clientDir := g.clientDir(res)
	if current, err := os.ReadFile(filepath.Join(clientDir, hashFileName)); err == nil {
		if strings.TrimSpace(string(current)) == meta.SHA256 {
			logger.Debug("client %s: up to date (sha=%s)", res.ID, meta.SHA256[:12])
			return false, nil
		}
	}

	specPath, err := filepath.Abs(g.Store.ArtifactPath(res))
	if err != nil {
		return false, err
	}
	mountDir := filepath.Dir(specPath)

	args := []string{
		"run", "--rm",
		"-v", mountDir + ":/local",
		generatorImage,
		"generate",
		"-i", "/local/" + filepath.Base(specPath),
		"-g", "go",
		"-o", "/local/clients/" + res.ID,
		"--package-name", strings.ReplaceAll(res.ID, "-", "_"),
	}

	logger.Info("client %s: regenerating (spec sha=%s)", res.ID, meta.SHA256[:12])
	out, err := g.Runner.Run(ctx, genTimeout, runner.Capture, "docker", args...)
	if err != nil {
		return false, fmt.Errorf("openapi-generator: %w: %s", err, strings.TrimSpace(string(out)))
	}

	if err := os.MkdirAll(clientDir, 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(filepath.Join(clientDir, hashFileName), []byte(meta.SHA256), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", hashFileName, err)
	}
	return true, nil
}

func (g *Generator) clientDir(res models.Resource) string {
	base := g.ClientDir
	if base == "" {
		base = filepath.Join(filepath.Dir(g.Store.ArtifactPath(res)), "clients")
	}
	return filepath.Join(base, res.ID)
}
