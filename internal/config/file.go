package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/chaosprobe/chaosprobe/pkg/types"
)

// LoadFile reads chaosprobe.yaml from dir. A missing file is not an error:
// every setting has a flag or built-in default.
func LoadFile(dir string) (*types.ProjectConfig, error) {
	path := filepath.Join(dir, "chaosprobe.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &types.ProjectConfig{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg types.ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Tags != "" {
		if _, err := ParseTags(cfg.Tags); err != nil {
			return nil, fmt.Errorf("validating config: %w", err)
		}
	}
	if cfg.Experiments < 0 {
		return nil, fmt.Errorf("validating config: experiments must be non-negative")
	}

	return &cfg, nil
}
