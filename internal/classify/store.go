package classify

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"curator/internal/media"
	"curator/internal/services"
)

//go:embed default_taxonomy.yaml
var defaultTaxonomy []byte

// Store keeps the active taxonomy and the file it was loaded from. Reload
// validates a replacement document before swapping it in, so a bad edit
// never takes down classification.
type Store struct {
	path   string
	logger *zap.Logger

	mu     sync.RWMutex
	active *Taxonomy
	text   string
}

// NewStore loads the taxonomy at path. When the file does not exist the
// embedded default taxonomy is written there first.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	text, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, fmt.Errorf("create taxonomy directory: %w", mkErr)
		}
		if writeErr := os.WriteFile(path, defaultTaxonomy, 0o644); writeErr != nil {
			return nil, fmt.Errorf("write default taxonomy: %w", writeErr)
		}
		logger.Info("wrote default taxonomy", zap.String("path", path))
		text = defaultTaxonomy
	} else if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	tax, err := Parse(text)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "taxonomy", "load", "invalid taxonomy file", err)
	}
	return &Store{
		path:   path,
		logger: logger,
		active: tax,
		text:   string(text),
	}, nil
}

// Classify assigns a category to the record using the active taxonomy.
func (s *Store) Classify(rec media.Record) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active.Classify(rec)
}

// Fallback returns the active terminal category for the given kind.
func (s *Store) Fallback(kind media.Kind) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active.Fallback(kind)
}

// Text returns the active taxonomy document verbatim.
func (s *Store) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

// Categories returns the active category names for the given kind in
// declared order.
func (s *Store) Categories(kind media.Kind) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rules := s.active.rules(kind)
	names := make([]string, 0, len(rules))
	for _, rule := range rules {
		names = append(names, rule.Category)
	}
	return names
}

// Reload parses and validates text, persists it to the backing file, and
// swaps it in. The active taxonomy is untouched on any failure.
func (s *Store) Reload(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tax, err := Parse([]byte(text))
	if err != nil {
		return services.Wrap(services.ErrValidation, "taxonomy", "reload", "rejected taxonomy update", err)
	}
	if err := os.WriteFile(s.path, []byte(text), 0o644); err != nil {
		return services.Wrap(services.ErrExternal, "taxonomy", "reload", "persist taxonomy update", err)
	}
	s.mu.Lock()
	s.active = tax
	s.text = text
	s.mu.Unlock()
	s.logger.Info("taxonomy reloaded",
		zap.Int("movie_categories", len(tax.Movie)),
		zap.Int("tv_categories", len(tax.TV)))
	return nil
}
