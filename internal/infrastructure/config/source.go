package config

import (
	"fmt"
	"sync"
)

// Source supplies the per-unit configuration on demand.
//
// Controllers re-read their unit on peripheral refresh and on parameter
// revert, so edits to the file take effect without a restart.
type Source interface {
	Unit(name string) (UnitConfig, error)
}

// FileSource re-reads the YAML configuration file on every call.
//
// If the file has become unreadable or invalid, the last successfully
// loaded configuration is served instead and the error is returned
// alongside it only when no previous configuration exists.
//
// Thread Safety:
//   - Safe for concurrent use.
type FileSource struct {
	path string

	mu   sync.Mutex
	last *Config
}

// NewFileSource creates a FileSource seeded with an already loaded config.
func NewFileSource(path string, initial *Config) *FileSource {
	return &FileSource{path: path, last: initial}
}

// Unit loads the configuration file and returns the named unit.
func (s *FileSource) Unit(name string) (UnitConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := Load(s.path)
	if err != nil {
		if s.last == nil {
			return UnitConfig{}, err
		}
		cfg = s.last
	} else {
		s.last = cfg
	}

	u, ok := cfg.Unit(name)
	if !ok {
		return UnitConfig{}, fmt.Errorf("unit %q not found in %s", name, s.path)
	}
	return u, nil
}

// StaticSource serves a fixed set of units. Used when no config file backs
// the process, and in tests.
type StaticSource map[string]UnitConfig

// Unit returns the named unit.
func (s StaticSource) Unit(name string) (UnitConfig, error) {
	u, ok := s[name]
	if !ok {
		return UnitConfig{}, fmt.Errorf("unit %q not configured", name)
	}
	return u, nil
}
