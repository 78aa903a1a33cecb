package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Encode renders cfg in the format implied by path's extension.
func Encode(path string, cfg *Config) ([]byte, error) {
	if isYAML(path) {
		return encodeYAML(cfg)
	}
	b, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// Save writes cfg atomically (tmp file + rename) and commits it. Watchers see
// a single Create/Rename event rather than a partially written file.
func (m *ConfigManager) Save(cfg *Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	b, err := Encode(m.path, cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(m.path), "."+filepath.Base(m.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	m.Commit(cfg)
	return nil
}
