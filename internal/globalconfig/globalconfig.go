package globalconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/MrSnakeDoc/primsync/internal/utils/pathutils"

	"gopkg.in/yaml.v3"
)

// Tunables shared across commands.
const (
	// DefaultSyncInterval is the spacing between two background refresh cycles.
	DefaultSyncInterval = 1 * time.Hour

	// MaxDownloadBytes caps a single fetched body (specs and dataset exports
	// are a few MB at most; anything bigger is a misconfigured manifest).
	MaxDownloadBytes = 256 << 20

	// HTTPTimeout bounds one fetch attempt at the transport level.
	HTTPTimeout = 30 * time.Second

	UserAgent = "primsync"

	// TokenEnvVar names the env variable holding the portal bearer token.
	TokenEnvVar = "PRIM_TOKEN"
)

type PersistentConfig struct {
	ManifestFile string `yaml:"manifest_file"`
	DataDir      string `yaml:"data_dir"`
	// SyncInterval overrides DefaultSyncInterval for the daemon when set.
	SyncInterval time.Duration `yaml:"sync_interval,omitempty"`
}

const (
	configDir  = ".config/primsync"
	configFile = "config.yml"
)

func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

func LoadPersistentConfig() (*PersistentConfig, error) {
	fullConfigDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}
	configPath := filepath.Join(fullConfigDir, configFile)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no configuration found. Please run 'primsync init' first")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg PersistentConfig
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
	}

	cfg.ManifestFile, err = pathutils.ToAbsolutePath(cfg.ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest file path: %w", err)
	}
	cfg.DataDir, err = pathutils.ToAbsolutePath(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir path: %w", err)
	}

	if _, err := os.Stat(cfg.ManifestFile); err != nil {
		return nil, fmt.Errorf("manifest file not found at %s: %w", cfg.ManifestFile, err)
	}

	return &cfg, nil
}

func (c *PersistentConfig) Interval() time.Duration {
	if c.SyncInterval > 0 {
		return c.SyncInterval
	}
	return DefaultSyncInterval
}

func (c *PersistentConfig) Save() error {
	configDirRights := 0o755
	configFileRights := 0o644

	fullConfigDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(fullConfigDir, os.FileMode(configDirRights)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	manifestHome, err := pathutils.ToHomePathFormat(c.ManifestFile)
	if err != nil {
		return fmt.Errorf("failed to convert to home path format: %w", err)
	}
	dataHome, err := pathutils.ToHomePathFormat(c.DataDir)
	if err != nil {
		return fmt.Errorf("failed to convert to home path format: %w", err)
	}
	c.ManifestFile = manifestHome
	c.DataDir = dataHome

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(filepath.Join(fullConfigDir, configFile), data, os.FileMode(configFileRights))
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
