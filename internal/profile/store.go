// internal/profile/store.go
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/picturepoker/internal/lobby"
	"github.com/jason-s-yu/picturepoker/internal/models"
)

// Loader fetches the full profile list from a backing source.
type Loader func(ctx context.Context) ([]models.UserProfile, error)

// Store is an in-memory index of cosmetic profiles keyed by login token.
// Lookups never touch disk or the network, so lobbies may resolve colors
// while holding their lock.
type Store struct {
	mu     sync.RWMutex
	colors map[string]models.Color
	logger *logrus.Entry
}

var _ lobby.ProfileResolver = (*Store)(nil)

func NewStore(logger *logrus.Logger) *Store {
	return &Store{
		colors: make(map[string]models.Color),
		logger: logger.WithField("component", "profiles"),
	}
}

// ResolveColor returns the stored color for token, or white.
func (s *Store) ResolveColor(token string) models.Color {
	if token == "" {
		return models.DefaultColor
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.colors[token]; ok {
		return c
	}
	return models.DefaultColor
}

// Replace swaps the whole index. When a token appears twice the first entry wins.
func (s *Store) Replace(profiles []models.UserProfile) {
	colors := make(map[string]models.Color, len(profiles))
	for _, p := range profiles {
		if _, dup := colors[p.LoginToken]; dup {
			continue
		}
		colors[p.LoginToken] = p.Color
	}
	s.mu.Lock()
	s.colors = colors
	s.mu.Unlock()
}

// Len returns the number of indexed profiles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.colors)
}

// Refresh loads once and replaces the index on success.
func (s *Store) Refresh(ctx context.Context, load Loader) error {
	profiles, err := load(ctx)
	if err != nil {
		return err
	}
	s.Replace(profiles)
	s.logger.Debugf("loaded %d profiles", len(profiles))
	return nil
}

// RunRefresh reloads every interval until ctx is done. A failed reload keeps
// the previous index.
func (s *Store) RunRefresh(ctx context.Context, interval time.Duration, load Loader) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx, load); err != nil {
				s.logger.Warnf("profile refresh failed: %v", err)
			}
		}
	}
}

// LoadFile reads a JSON profile list, creating an empty one if path is missing.
func LoadFile(path string) ([]models.UserProfile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create profile dir: %w", err)
		}
		if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", path, err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var profiles []models.UserProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return profiles, nil
}

// FileLoader adapts LoadFile to a Loader.
func FileLoader(path string) Loader {
	return func(context.Context) ([]models.UserProfile, error) {
		return LoadFile(path)
	}
}
