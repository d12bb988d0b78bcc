package manifest

import (
	"fmt"
	"sort"

	"github.com/MrSnakeDoc/primsync/internal/models"
	"github.com/MrSnakeDoc/primsync/internal/utils"
)

// Load reads and validates the manifest YAML file.
func Load(path string) (*models.Manifest, error) {
	var m models.Manifest
	if err := utils.FileReader(path, utils.FileTypeYAML, &m); err != nil {
		return nil, err
	}
	if len(m.APIs) == 0 && len(m.Datasets) == 0 {
		return nil, fmt.Errorf("manifest %s declares no apis and no datasets", path)
	}
	if err := validate(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return &m, nil
}

func validate(m *models.Manifest) error {
	for name, api := range m.APIs {
		switch api.Type {
		case "direct":
			if api.SpecURL == "" {
				return fmt.Errorf("api %q: type=direct but no spec_url", name)
			}
		case "portal_page":
			if api.PageURL == "" {
				return fmt.Errorf("api %q: type=portal_page but no page_url", name)
			}
		default:
			return fmt.Errorf("api %q: unknown type %q", name, api.Type)
		}
	}
	for i, ds := range m.Datasets {
		if ds.DatasetID == "" {
			return fmt.Errorf("dataset #%d: missing dataset_id", i)
		}
		if ds.PortalBase == "" {
			return fmt.Errorf("dataset %q: missing portal_base", ds.DatasetID)
		}
	}
	return nil
}

// Specs returns the spec resources in deterministic (alphabetical) order.
func Specs(m *models.Manifest) []models.Resource {
	names := make([]string, 0, len(m.APIs))
	for name := range m.APIs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]models.Resource, 0, len(names))
	for _, name := range names {
		api := m.APIs[name]
		out = append(out, models.Resource{
			ID:              name,
			Kind:            models.KindSpec,
			Source:          models.SourceType(api.Type),
			SpecURL:         api.SpecURL,
			PageURL:         api.PageURL,
			SpecURLOverride: api.SpecURLOverride,
			Auth:            api.Auth == "prim_token",
		})
	}
	return out
}

// Datasets returns the dataset resources in manifest order.
func Datasets(m *models.Manifest) []models.Resource {
	out := make([]models.Resource, 0, len(m.Datasets))
	for _, ds := range m.Datasets {
		format := ds.ExportFormat
		if format == "" {
			format = "jsonl"
		}
		out = append(out, models.Resource{
			ID:           ds.DatasetID,
			Kind:         models.KindDataset,
			PortalBase:   ds.PortalBase,
			DatasetID:    ds.DatasetID,
			ExportFormat: format,
		})
	}
	return out
}

// ExportURL builds the Opendatasoft Explore v2.1 full-export URL for a
// dataset resource (the /exports/ endpoint has no pagination limit).
func ExportURL(r models.Resource) string {
	return fmt.Sprintf("%s/api/explore/v2.1/catalog/datasets/%s/exports/%s",
		r.PortalBase, r.DatasetID, r.ExportFormat)
}
