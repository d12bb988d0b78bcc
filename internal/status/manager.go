package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/primsync/internal/logger"
	"github.com/MrSnakeDoc/primsync/internal/manifest"
	"github.com/MrSnakeDoc/primsync/internal/models"
	"github.com/MrSnakeDoc/primsync/internal/printer"
	"github.com/MrSnakeDoc/primsync/internal/store"
	"github.com/MrSnakeDoc/primsync/internal/utils"
)

// row is a view model for rendering.
type row struct {
	ID      string
	Kind    string
	State   string
	Size    string
	SHA     string
	Fetched string
}

type Lister struct {
	Manifest *models.Manifest
	Store    store.Store
}

func New(m *models.Manifest, st store.Store) *Lister {
	return &Lister{
		Manifest: m,
		Store:    st,
	}
}

// Execute renders one table row per manifest resource with its cache state.
func (l *Lister) Execute(ctx context.Context) error {
	resources := append(manifest.Specs(l.Manifest), manifest.Datasets(l.Manifest)...)

	p := printer.NewColorPrinter()
	table := logger.CreateTable([]string{"Resource", "Kind", "State", "Size", "SHA256", "Fetched"})

	for _, res := range resources {
		r := l.buildRow(ctx, p, res)
		if err := table.Append([]string{r.ID, r.Kind, r.State, r.Size, r.SHA, r.Fetched}); err != nil {
			return fmt.Errorf("an error occurred while appending to the table: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("an error occurred while rendering the table: %w", err)
	}
	return nil
}

func (l *Lister) buildRow(ctx context.Context, p *printer.ColorPrinter, res models.Resource) row {
	r := row{
		ID:      res.ID,
		Kind:    string(res.Kind),
		Size:    "-",
		SHA:     "-",
		Fetched: "-",
	}

	meta, err := l.Store.ReadMeta(ctx, res)
	switch {
	case errors.Is(err, store.ErrNoMeta):
		r.State = p.Warning("✗ never synced")
		return r
	case err != nil:
		r.State = p.Error("? unreadable metadata")
		return r
	}

	if !l.Store.HasArtifact(res) {
		// Sidecar without artifact: next sync refetches unconditionally.
		r.State = p.Error("✗ artifact missing")
		return r
	}

	r.State = p.Success("✓ synced")
	r.Size = utils.HumanSize(meta.SizeBytes)
	if len(meta.SHA256) >= 12 {
		r.SHA = meta.SHA256[:12]
	}
	if !meta.FetchedAt.IsZero() {
		r.Fetched = fmt.Sprintf("%s ago", time.Since(meta.FetchedAt).Truncate(time.Minute))
	}
	return r
}
