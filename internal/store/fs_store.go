package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MrSnakeDoc/primsync/internal/logger"
	"github.com/MrSnakeDoc/primsync/internal/models"
	"github.com/MrSnakeDoc/primsync/internal/utils"
)

// ErrNoMeta is returned by ReadMeta when no record has ever been committed
// for the resource.
var ErrNoMeta = errors.New("no metadata record")

type FS struct {
	dir string
}

type Store interface {
	// Persist commits body and its metadata for one resource. The artifact is
	// written and renamed into place before the sidecar, so a crash never
	// leaves a sidecar pointing at a partial or absent artifact.
	Persist(ctx context.Context, res models.Resource, meta Meta, body []byte) error

	// ReadMeta returns the last committed record, or ErrNoMeta.
	ReadMeta(ctx context.Context, res models.Resource) (Meta, error)

	// Touch refreshes only the freshness timestamp of an existing record
	// (used when the origin re-sent identical content).
	Touch(ctx context.Context, res models.Resource, meta Meta) error

	// HasArtifact reports whether the committed artifact file is present.
	HasArtifact(res models.Resource) bool

	ArtifactPath(res models.Resource) string
}

func NewFS(dataDir string) (*FS, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dataDir, err)
	}
	return &FS{dir: dataDir}, nil
}

func (s *FS) ArtifactPath(res models.Resource) string {
	return filepath.Join(s.dir, res.FileName())
}

func (s *FS) metaPath(res models.Resource) string {
	return filepath.Join(s.dir, res.ID+".meta.json")
}

func (s *FS) HasArtifact(res models.Resource) bool {
	ok, err := utils.FileExists(s.ArtifactPath(res))
	return err == nil && ok
}

// Persist writes the artifact atomically, then the meta sidecar. The ordering
// is the correctness invariant: a kill between the two leaves a fully-written
// artifact with a stale sidecar, which the next sync treats as "refetch".
func (s *FS) Persist(ctx context.Context, res models.Resource, meta Meta, body []byte) error {
	artifact := s.ArtifactPath(res)
	logger.Debug("persisting %s (%s)", artifact, utils.HumanSize(meta.SizeBytes))

	tmp := artifact + ".tmp"
	if err := utils.WriteFileAtomic(tmp, artifact, bytes.NewReader(body)); err != nil {
		return fmt.Errorf("write artifact %s: %w", res.ID, err)
	}
	if err := utils.WriteJSONAtomic(s.metaPath(res), meta); err != nil {
		return fmt.Errorf("write metadata %s: %w", res.ID, err)
	}
	return nil
}

func (s *FS) ReadMeta(ctx context.Context, res models.Resource) (met Meta, err error) {
	f, err := os.Open(s.metaPath(res))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Meta{}, ErrNoMeta
		}
		return Meta{}, err
	}

	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close failed: %w", cerr)
		}
	}()

	var m Meta
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return Meta{}, fmt.Errorf("decode metadata %s: %w", res.ID, err)
	}
	return m, err
}

func (s *FS) Touch(ctx context.Context, res models.Resource, meta Meta) error {
	return utils.WriteJSONAtomic(s.metaPath(res), meta)
}
