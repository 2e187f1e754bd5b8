package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectFileName is the per-directory override file.
const ProjectFileName = ".bitrans.yaml"

// LoadFile reads settings from path on top of the defaults. A missing file
// yields the defaults.
func LoadFile(path string) (Settings, error) {
	s := Default()
	if err := mergeFile(&s, path); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Load reads the user config file and then the project file found in dir
// (if any), later files overriding earlier ones key by key.
func Load(userPath, dir string) (Settings, error) {
	s, err := LoadFile(userPath)
	if err != nil {
		return Settings{}, err
	}
	if dir != "" {
		if err := mergeFile(&s, filepath.Join(dir, ProjectFileName)); err != nil {
			return Settings{}, err
		}
	}
	return s, nil
}

// mergeFile decodes path into s. Keys absent from the file keep their
// current values.
func mergeFile(s *Settings, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// Save writes settings to path, creating the directory if needed.
func Save(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	// The file may hold an API key.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
