package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/MrSnakeDoc/primsync/internal/generate"
	"github.com/MrSnakeDoc/primsync/internal/globalconfig"
	"github.com/MrSnakeDoc/primsync/internal/logger"
	"github.com/MrSnakeDoc/primsync/internal/manifest"
	"github.com/MrSnakeDoc/primsync/internal/models"
	"github.com/MrSnakeDoc/primsync/internal/pipeline"
	"github.com/MrSnakeDoc/primsync/internal/service"
	"github.com/MrSnakeDoc/primsync/internal/store"
	"github.com/MrSnakeDoc/primsync/internal/utils"
	"github.com/MrSnakeDoc/primsync/internal/validate"
)

// Syncer drives conditional synchronization of every resource in the
// manifest and assembles the standard pipeline around it.
type Syncer struct {
	Manifest *models.Manifest
	Store    store.Store
	Fetcher  *service.Fetcher

	Generator *generate.Generator
	Validator *validate.Validator

	// Force drops the cached version tokens so the origin always sends a full
	// body. Hash-based change detection still applies, so unchanged content
	// keeps reporting Skipped.
	Force bool
}

func New(m *models.Manifest, st store.Store, fetcher *service.Fetcher) *Syncer {
	if fetcher == nil {
		fetcher = service.NewFetcher(nil, os.Getenv(globalconfig.TokenEnvVar))
	}

	return &Syncer{
		Manifest:  m,
		Store:     st,
		Fetcher:   fetcher,
		Generator: generate.New(st, nil),
		Validator: validate.New(st),
	}
}

// SyncResource performs one conditional sync: fetch, compare, commit.
// Returns Updated when new content was persisted, Skipped when the committed
// artifact is already current.
func (s *Syncer) SyncResource(ctx context.Context, res models.Resource) (pipeline.Result, error) {
	var prior *store.Meta
	m, err := s.Store.ReadMeta(ctx, res)
	switch {
	case errors.Is(err, store.ErrNoMeta):
		// first fetch, unconditional
	case err != nil:
		return pipeline.Failed, err
	case !s.Store.HasArtifact(res):
		// Dangling sidecar (crash between artifact and metadata commit, or a
		// deleted artifact). Refetch unconditionally.
		logger.Warn("resource %s: metadata without artifact, refetching", res.ID)
	default:
		prior = &m
	}

	if s.Force && prior != nil {
		forced := *prior
		forced.ETag = ""
		forced.LastModified = ""
		prior = &forced
	}

	url, err := s.resolveURL(ctx, res)
	if err != nil {
		return pipeline.Failed, err
	}

	out, err := s.Fetcher.Fetch(ctx, url, res.Auth, prior)
	if err != nil {
		return pipeline.Failed, err
	}

	switch out.Kind {
	case service.Unchanged:
		logger.Debug("resource %s: not modified (etag=%q)", res.ID, out.Meta.ETag)
		return pipeline.Skipped, nil

	case service.UnchangedContent:
		// Same bytes came back; refresh the version tokens and timestamp but
		// leave the artifact alone.
		logger.Debug("resource %s: content unchanged (sha=%s)", res.ID, out.Meta.SHA256[:12])
		if err := s.Store.Touch(ctx, res, out.Meta); err != nil {
			return pipeline.Failed, err
		}
		return pipeline.Skipped, nil

	default:
		if err := s.Store.Persist(ctx, res, out.Meta, out.Body); err != nil {
			return pipeline.Failed, err
		}
		logger.Info("resource %s: updated (%s, sha=%s)",
			res.ID, utils.HumanSize(out.Meta.SizeBytes), out.Meta.SHA256[:12])
		return pipeline.Updated, nil
	}
}

func (s *Syncer) resolveURL(ctx context.Context, res models.Resource) (string, error) {
	if res.Kind == models.KindDataset {
		return manifest.ExportURL(res), nil
	}
	return s.Fetcher.ResolveSpecURL(ctx, res)
}

// syncGroup syncs a slice of resources sequentially. The step is Updated when
// at least one resource changed; any per-resource error fails the whole step
// (after the remaining resources were still attempted).
func (s *Syncer) syncGroup(ctx context.Context, resources []models.Resource) (pipeline.Result, error) {
	result := pipeline.Skipped
	var errs []error

	for _, res := range resources {
		r, err := s.SyncResource(ctx, res)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.ID, err))
			continue
		}
		if r == pipeline.Updated {
			result = pipeline.Updated
		}
	}

	if len(errs) > 0 {
		return pipeline.Failed, errors.Join(errs...)
	}
	return result, nil
}

func (s *Syncer) SyncSpecs(ctx context.Context) (pipeline.Result, error) {
	return s.syncGroup(ctx, manifest.Specs(s.Manifest))
}

func (s *Syncer) SyncDatasets(ctx context.Context) (pipeline.Result, error) {
	return s.syncGroup(ctx, manifest.Datasets(s.Manifest))
}

// Steps assembles the standard pipeline. Declaration order is the execution
// order; Needs carries the change gating.
func (s *Syncer) Steps() []pipeline.Step {
	return []pipeline.Step{
		{
			Name: "sync_specs",
			Run:  s.SyncSpecs,
		},
		{
			Name:  "generate_clients",
			Needs: []string{"sync_specs"},
			Run: func(ctx context.Context) (pipeline.Result, error) {
				return s.Generator.Execute(ctx, manifest.Specs(s.Manifest))
			},
		},
		{
			Name: "sync_datasets",
			Run:  s.SyncDatasets,
		},
		{
			Name:  "validate_datasets",
			Needs: []string{"sync_datasets"},
			Run: func(ctx context.Context) (pipeline.Result, error) {
				return s.Validator.Execute(ctx, manifest.Datasets(s.Manifest))
			},
		},
	}
}
