package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const noSealantTomlMessage = "no sealant.toml found\nplease specify the bundle metadata explicitly, e.g.:\n  sealant seal path/to/bundle.json"

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
}

type projectConfig struct {
	Integrity integrityConfig `toml:"integrity"`
	Output    outputConfig    `toml:"output"`
}

type integrityConfig struct {
	Algorithms []string `toml:"algorithms"`
	Mode       string   `toml:"mode"`
	Rehash     bool     `toml:"rehash"`
}

type outputConfig struct {
	Metadata    string `toml:"metadata"`
	CrossOrigin string `toml:"crossorigin"`
}

func findSealantToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "sealant.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	manifestPath, ok, err := findSealantToml(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := loadProjectConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &projectManifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

func loadProjectConfig(path string) (projectConfig, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return projectConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return projectConfig{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if !meta.IsDefined("output") {
		return projectConfig{}, fmt.Errorf("%s: missing [output]", path)
	}
	if !meta.IsDefined("output", "metadata") || strings.TrimSpace(cfg.Output.Metadata) == "" {
		return projectConfig{}, fmt.Errorf("%s: missing [output].metadata", path)
	}
	return cfg, nil
}

// metadataPath resolves [output].metadata relative to the manifest root.
func (m *projectManifest) metadataPath() string {
	rel := filepath.FromSlash(strings.TrimSpace(m.Config.Output.Metadata))
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(m.Root, rel)
}
