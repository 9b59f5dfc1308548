package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"curator/internal/classify"
	"curator/internal/config"
	"curator/internal/library"
	"curator/internal/media"
	"curator/internal/monitor"
	"curator/internal/reconcile"
	"curator/internal/services"
	"curator/internal/services/qbittorrent"
	"curator/internal/services/tmdb"
	"curator/internal/suppression"
	"curator/internal/title"
)

// Service bundles the core packages behind the operations the API and CLI
// expose. All orchestration logic lives here; HTTP handlers only marshal.
type Service struct {
	cfg       *config.Config
	logger    *zap.Logger
	search    tmdb.Searcher
	torrents  qbittorrent.Service
	taxonomy  *classify.Store
	history   *suppression.Store
	scanner   *library.Scanner
	organizer *library.Organizer
	engine    *reconcile.Engine
	monitor   *monitor.Monitor
}

// NewService wires a service from its collaborators.
func NewService(
	cfg *config.Config,
	logger *zap.Logger,
	search tmdb.Searcher,
	torrents qbittorrent.Service,
	taxonomy *classify.Store,
	history *suppression.Store,
	scanner *library.Scanner,
	organizer *library.Organizer,
	engine *reconcile.Engine,
	mon *monitor.Monitor,
) (*Service, error) {
	if cfg == nil || logger == nil || search == nil || torrents == nil ||
		taxonomy == nil || history == nil || scanner == nil || organizer == nil ||
		engine == nil || mon == nil {
		return nil, errors.New("service requires all collaborators")
	}
	return &Service{
		cfg:       cfg,
		logger:    logger,
		search:    search,
		torrents:  torrents,
		taxonomy:  taxonomy,
		history:   history,
		scanner:   scanner,
		organizer: organizer,
		engine:    engine,
		monitor:   mon,
	}, nil
}

// ScanLibrary lists the top level library entries awaiting organization.
func (s *Service) ScanLibrary() ([]library.Entry, error) {
	return s.scanner.ScanTopLevel()
}

// SearchMedia runs a TMDB search for an arbitrary query.
func (s *Service) SearchMedia(ctx context.Context, query string) ([]media.Record, error) {
	records, err := s.search.Search(ctx, query)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "daemon", "search", query, err)
	}
	return records, nil
}

// ProcessResult is the outcome of organizing one library entry.
type ProcessResult struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	Category   string `json:"category,omitempty"`
	TargetPath string `json:"target_path,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ProcessItems organizes the named top level entries: extract a title,
// look it up on TMDB, classify the first result, and move the entry into
// its category directory. A failing item is reported and skipped; the
// batch continues.
func (s *Service) ProcessItems(ctx context.Context, names []string) ([]ProcessResult, error) {
	entries, err := s.scanner.ScanTopLevel()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]library.Entry, len(entries))
	for _, entry := range entries {
		byName[entry.Name] = entry
	}
	if len(names) == 0 {
		names = make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name)
		}
	}

	results := make([]ProcessResult, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, s.processItem(ctx, name, byName))
	}
	return results, nil
}

func (s *Service) processItem(ctx context.Context, name string, entries map[string]library.Entry) ProcessResult {
	result := ProcessResult{Name: name}
	entry, ok := entries[name]
	if !ok {
		result.Error = fmt.Sprintf("no library entry named %q", name)
		return result
	}

	result.Title = title.FromFilename(entry.Name)
	records, err := s.search.Search(ctx, result.Title)
	if err != nil {
		result.Error = fmt.Sprintf("tmdb search: %v", err)
		return result
	}
	if len(records) == 0 {
		result.Error = fmt.Sprintf("no tmdb results for %q", result.Title)
		return result
	}

	record := records[0]
	result.Category = s.taxonomy.Classify(record)
	target, err := s.organizer.MoveToCategory(entry.Path, result.Category)
	if err != nil {
		result.Error = fmt.Sprintf("move: %v", err)
		return result
	}
	result.TargetPath = target
	s.logger.Info("organized library entry",
		zap.String("name", name),
		zap.String("title", result.Title),
		zap.String("category", result.Category),
		zap.String("target", target))
	return result
}

// ScanTorrents lists pending torrents with their extracted titles.
func (s *Service) ScanTorrents() ([]reconcile.Torrent, error) {
	return reconcile.ScanTorrents(s.cfg.Paths.TorrentDir)
}

// MatchTorrents reconciles the pending torrents against the library.
func (s *Service) MatchTorrents(ctx context.Context) (reconcile.Result, error) {
	torrents, err := reconcile.ScanTorrents(s.cfg.Paths.TorrentDir)
	if err != nil {
		return reconcile.Result{}, err
	}
	candidates, err := s.scanner.ScanCandidates()
	if err != nil {
		return reconcile.Result{}, err
	}
	return s.engine.Reconcile(ctx, torrents, candidates)
}

// AddResult is the outcome of submitting one match to qBittorrent.
type AddResult struct {
	Torrent string `json:"torrent"`
	Tag     string `json:"tag,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AddTorrents submits the selected matches to qBittorrent. Each add gets a
// unique verification tag and is registered with the monitor; torrents are
// added stopped so verification runs before any download starts.
func (s *Service) AddTorrents(ctx context.Context, matches []reconcile.Match) ([]AddResult, error) {
	if len(matches) == 0 {
		return nil, nil
	}
	if err := s.torrents.Login(ctx); err != nil {
		return nil, err
	}
	if err := s.torrents.EnsureCategory(ctx, s.cfg.QBittorrent.Category); err != nil {
		return nil, err
	}

	results := make([]AddResult, 0, len(matches))
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result := AddResult{Torrent: match.Torrent.Name}
		if !match.Selected {
			result.Error = "match not selected"
			results = append(results, result)
			continue
		}
		tag := "verify-" + uuid.NewString()
		err := s.torrents.AddTorrent(ctx, qbittorrent.AddOptions{
			TorrentPath: match.Torrent.Path,
			SavePath:    match.Candidate.DownloadPath,
			Category:    s.cfg.QBittorrent.Category,
			Tags:        []string{s.cfg.QBittorrent.Tag, tag},
			Paused:      true,
			SkipVerify:  s.cfg.QBittorrent.SkipVerify,
		})
		if err != nil {
			result.Error = err.Error()
			s.logger.Warn("torrent add failed",
				zap.String("torrent", match.Torrent.Name), zap.Error(err))
			results = append(results, result)
			continue
		}
		result.Tag = tag
		s.monitor.Register(monitor.Pending{
			Tag:          tag,
			TorrentName:  match.Torrent.Name,
			TorrentPath:  match.Torrent.Path,
			DownloadPath: match.Candidate.DownloadPath,
			AutoStart:    s.cfg.QBittorrent.AutoStart,
			SkipVerify:   s.cfg.QBittorrent.SkipVerify,
		})
		results = append(results, result)
	}
	return results, nil
}

// SuppressMatch records a rejected match.
func (s *Service) SuppressMatch(ctx context.Context, match reconcile.Match) error {
	return s.engine.Suppress(ctx, match)
}

// Suppressions lists the suppression history.
func (s *Service) Suppressions(ctx context.Context) ([]suppression.Entry, error) {
	return s.history.List(ctx)
}

// ClearSuppressions wipes the suppression history and returns the count.
func (s *Service) ClearSuppressions(ctx context.Context) (int64, error) {
	return s.history.Clear(ctx)
}

// TaxonomyText returns the active taxonomy document.
func (s *Service) TaxonomyText() string {
	return s.taxonomy.Text()
}

// ReloadTaxonomy validates and installs a replacement taxonomy document.
func (s *Service) ReloadTaxonomy(ctx context.Context, text string) error {
	return s.taxonomy.Reload(ctx, text)
}

// MonitorPending returns the monitor's watch list.
func (s *Service) MonitorPending() []monitor.Pending {
	return s.monitor.Pending()
}

// StartMonitor launches the verification monitor.
func (s *Service) StartMonitor(ctx context.Context) {
	s.monitor.Start(ctx)
}

// StopMonitor halts the verification monitor.
func (s *Service) StopMonitor() {
	s.monitor.Stop()
}

// MonitorRunning reports whether the verification monitor is active.
func (s *Service) MonitorRunning() bool {
	return s.monitor.Running()
}
