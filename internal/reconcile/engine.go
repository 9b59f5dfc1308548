// Package reconcile matches pending .torrent files against the organized
// library by fuzzy title similarity, filtered through suppression history.
package reconcile

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"curator/internal/library"
	"curator/internal/suppression"
	"curator/internal/textutil"
	"curator/internal/title"
)

// Torrent is one pending .torrent file with its extracted title.
type Torrent struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Size  int64  `json:"size"`
	Title string `json:"title"`
}

// Match pairs a torrent with its best library candidate. Selected is false
// when the pair has been suppressed before.
type Match struct {
	Torrent    Torrent           `json:"torrent"`
	Candidate  library.Candidate `json:"candidate"`
	Similarity float64           `json:"similarity"`
	Selected   bool              `json:"selected"`
}

// Result is the outcome of one reconciliation pass. Unmatched torrents are
// a normal outcome, not an error.
type Result struct {
	Matches   []Match   `json:"matches"`
	Unmatched []Torrent `json:"unmatched"`
}

// Engine runs reconciliation passes against a suppression store.
type Engine struct {
	threshold float64
	precision int
	history   *suppression.Store
	logger    *zap.Logger
}

// NewEngine creates an engine. threshold is the strict lower bound a
// similarity must exceed to count as a match; precision is forwarded into
// suppression keys.
func NewEngine(threshold float64, precision int, history *suppression.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		threshold: threshold,
		precision: precision,
		history:   history,
		logger:    logger,
	}
}

// ScanTorrents walks dir for .torrent files and extracts a match title for
// each. When the standard extraction still looks like a release name, the
// aggressive variant takes over.
func ScanTorrents(dir string) ([]Torrent, error) {
	var torrents []Torrent
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(d.Name()), ".torrent") {
			return nil
		}
		extracted := title.FromTorrentName(d.Name())
		if title.Rough(extracted) {
			extracted = title.FromTorrentNameAggressive(d.Name())
		}
		torrent := Torrent{
			Name:  d.Name(),
			Path:  path,
			Title: extracted,
		}
		if info, err := d.Info(); err == nil {
			torrent.Size = info.Size()
		}
		torrents = append(torrents, torrent)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan torrents: %w", err)
	}
	return torrents, nil
}

// Reconcile pairs each torrent with its most similar candidate. Matches at
// or below the threshold land in the unmatched bucket. Previously
// suppressed pairs come back with Selected=false and their suppression
// counter bumped.
func (e *Engine) Reconcile(ctx context.Context, torrents []Torrent, candidates []library.Candidate) (Result, error) {
	var result Result
	for _, torrent := range torrents {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		best, similarity := e.bestCandidate(torrent, candidates)
		if best == nil {
			result.Unmatched = append(result.Unmatched, torrent)
			continue
		}
		match := Match{
			Torrent:    torrent,
			Candidate:  *best,
			Similarity: similarity,
			Selected:   true,
		}
		key := suppression.NewKey(torrent.Title, best.Name, similarity, e.precision)
		found, err := e.history.Touch(ctx, key)
		if err != nil {
			e.logger.Warn("suppression lookup failed; match kept",
				zap.String("key", key.String()), zap.Error(err))
		} else if found {
			match.Selected = false
		}
		result.Matches = append(result.Matches, match)
	}
	return result, nil
}

// Suppress records a rejected match so later passes skip it.
func (e *Engine) Suppress(ctx context.Context, match Match) error {
	key := suppression.NewKey(match.Torrent.Title, match.Candidate.Name, match.Similarity, e.precision)
	if err := e.history.Record(ctx, key, match.Similarity); err != nil {
		return err
	}
	e.logger.Info("match suppressed",
		zap.String("torrent", match.Torrent.Name),
		zap.String("candidate", match.Candidate.Name),
		zap.Float64("similarity", match.Similarity))
	return nil
}

// bestCandidate returns the candidate with the highest similarity strictly
// above the threshold. Ties keep the first candidate seen.
func (e *Engine) bestCandidate(torrent Torrent, candidates []library.Candidate) (*library.Candidate, float64) {
	torrentTitle := strings.ToLower(torrent.Title)
	var best *library.Candidate
	bestSimilarity := 0.0
	for i := range candidates {
		similarity := textutil.SimilarityRatio(torrentTitle, strings.ToLower(candidates[i].Name))
		if similarity <= e.threshold {
			continue
		}
		if best == nil || similarity > bestSimilarity {
			best = &candidates[i]
			bestSimilarity = similarity
		}
	}
	return best, bestSimilarity
}
