package settingsfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

// Store keeps OpsSettings in a YAML file. A missing file reads as the defaults.
type Store struct {
	path string
	mu   sync.RWMutex
}

func New(path string) *Store {
	return &Store{path: filepath.Clean(path)}
}

func (s *Store) Load(_ context.Context) (domain.OpsSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := domain.DefaultOpsSettings()
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return domain.OpsSettings{}, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.OpsSettings{}, fmt.Errorf("parse settings: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return domain.OpsSettings{}, fmt.Errorf("settings file %s: %w", s.path, err)
	}
	return cfg, nil
}

// Save writes to a temp file in the same directory and renames it into place.
func (s *Store) Save(_ context.Context, cfg domain.OpsSettings) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
