package hr

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Settings reads and writes the project and system configuration documents and the
// time of the last backup.
type Settings struct {
	kv KeyValueStore
	mu sync.Mutex
}

func NewSettings(kv KeyValueStore) *Settings {
	return &Settings{kv: kv}
}

// ProjectConfig returns the stored project configuration, or the defaults if none was saved.
func (s *Settings) ProjectConfig(ctx context.Context) (*ProjectConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectConfigLocked(ctx)
}

func (s *Settings) projectConfigLocked(ctx context.Context) (*ProjectConfig, error) {
	cfg := &ProjectConfig{}
	found, err := loadJSON(ctx, s.kv, CollectionProjectConfig, cfg)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	if !found {
		return DefaultProjectConfig(), nil
	}
	return cfg, nil
}

func (s *Settings) SaveProjectConfig(ctx context.Context, cfg *ProjectConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := saveJSON(ctx, s.kv, CollectionProjectConfig, cfg); err != nil {
		return fmt.Errorf("saving project config: %w", err)
	}
	return nil
}

// SystemConfig returns the stored system configuration, or the defaults if none was saved.
func (s *Settings) SystemConfig(ctx context.Context) (*SystemConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.systemConfigLocked(ctx)
}

func (s *Settings) systemConfigLocked(ctx context.Context) (*SystemConfig, error) {
	cfg := &SystemConfig{}
	found, err := loadJSON(ctx, s.kv, CollectionSystemConfig, cfg)
	if err != nil {
		return nil, fmt.Errorf("loading system config: %w", err)
	}
	if !found {
		return DefaultSystemConfig(), nil
	}
	return cfg, nil
}

func (s *Settings) SaveSystemConfig(ctx context.Context, cfg *SystemConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := saveJSON(ctx, s.kv, CollectionSystemConfig, cfg); err != nil {
		return fmt.Errorf("saving system config: %w", err)
	}
	return nil
}

// SLAThreshold returns the configured SLA threshold in days.
func (s *Settings) SLAThreshold(ctx context.Context) (int, error) {
	cfg, err := s.SystemConfig(ctx)
	if err != nil {
		return 0, err
	}
	return cfg.SLAThreshold(), nil
}

// LastBackup returns when the last snapshot was taken, or nil if none was.
func (s *Settings) LastBackup(ctx context.Context) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var t time.Time
	found, err := loadJSON(ctx, s.kv, CollectionLastBackup, &t)
	if err != nil {
		return nil, fmt.Errorf("loading last backup time: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &t, nil
}

// seedLocked writes the given defaults for every configuration document that is absent.
func (s *Settings) seedLocked(ctx context.Context, project *ProjectConfig, system *SystemConfig) error {
	for _, doc := range []struct {
		collection string
		value      any
	}{
		{CollectionProjectConfig, project},
		{CollectionSystemConfig, system},
	} {
		data, err := s.kv.Get(ctx, doc.collection)
		if err != nil {
			return fmt.Errorf("reading %s: %w", doc.collection, err)
		}
		if data != nil {
			continue
		}
		if err := saveJSON(ctx, s.kv, doc.collection, doc.value); err != nil {
			return err
		}
	}
	return nil
}
