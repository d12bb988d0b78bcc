package initiator

import (
	"os"
	"path/filepath"

	"github.com/MrSnakeDoc/primsync/internal/globalconfig"
	"github.com/MrSnakeDoc/primsync/internal/logger"
	"github.com/MrSnakeDoc/primsync/internal/utils"
)

const manifestSkeleton = `apis:
  # example-api:
  #   type: direct
  #   spec_url: https://example.org/openapi.json
  # portal-api:
  #   type: portal_page
  #   page_url: https://portal.example.org/catalog/api/some-api
  #   spec_url_override: https://portal.example.org/some-api/swagger.json
  #   auth: prim_token

datasets: []
  # - dataset_id: zones-d-arrets
  #   portal_base: https://data.example.org
  #   export_format: jsonl
`

type Initiator struct {
	ManifestPath string
	DataDir      string
}

func New(manifestPath, dataDir string) *Initiator {
	return &Initiator{
		ManifestPath: manifestPath,
		DataDir:      dataDir,
	}
}

func (i *Initiator) Execute() error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	manifestPath := i.ManifestPath
	if manifestPath == "" {
		manifestPath = filepath.Join(cwd, "primsync.yml")
	}
	dataDir := i.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(cwd, "data", "raw")
	}

	if ok, _ := utils.FileExists(manifestPath); !ok {
		if err := os.WriteFile(manifestPath, []byte(manifestSkeleton), 0o644); err != nil {
			return err
		}
		logger.Success("Created manifest skeleton at %s", manifestPath)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	cfg := &globalconfig.PersistentConfig{
		ManifestFile: manifestPath,
		DataDir:      dataDir,
	}

	return cfg.Save()
}
