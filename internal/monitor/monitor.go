// Package monitor watches torrents added by curation until qBittorrent
// finishes verifying them, resuming verified torrents and dropping the
// ones that fail or time out.
package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"curator/internal/services/qbittorrent"
)

// TorrentQuerier is the slice of the qBittorrent client the monitor needs.
type TorrentQuerier interface {
	InfoByTag(ctx context.Context, tag string) ([]qbittorrent.Info, error)
	Resume(ctx context.Context, hashes []string) error
}

// Pending is one torrent awaiting verification, keyed by its unique tag.
type Pending struct {
	Tag          string    `json:"tag"`
	TorrentName  string    `json:"torrent_name"`
	TorrentPath  string    `json:"torrent_path"`
	DownloadPath string    `json:"download_path"`
	AutoStart    bool      `json:"auto_start"`
	SkipVerify   bool      `json:"skip_verify"`
	AddedAt      time.Time `json:"added_at"`
}

// States qBittorrent reports once verification has finished and the
// torrent is waiting to seed.
var verifiedStates = map[string]struct{}{
	"pausedUP":  {},
	"stoppedUP": {},
}

// States that mean the torrent can never verify.
var failedStates = map[string]struct{}{
	"error":        {},
	"missingFiles": {},
}

// Monitor polls qBittorrent for the verification state of registered
// torrents.
type Monitor struct {
	client       TorrentQuerier
	logger       *zap.Logger
	pollInterval time.Duration
	timeout      time.Duration
	now          func() time.Time

	// startStop serializes Start and Stop so a Start cannot add to the
	// WaitGroup while Stop is waiting on it.
	startStop sync.Mutex

	mu      sync.Mutex
	running bool
	pending map[string]Pending

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a monitor polling every pollInterval; entries older than
// timeout are dropped.
func New(client TorrentQuerier, pollInterval, timeout time.Duration, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		client:       client,
		logger:       logger.With(zap.String("component", "verification-monitor")),
		pollInterval: pollInterval,
		timeout:      timeout,
		now:          time.Now,
		pending:      make(map[string]Pending),
	}
}

// Register adds a torrent to the watch list.
func (m *Monitor) Register(p Pending) {
	if p.AddedAt.IsZero() {
		p.AddedAt = m.now()
	}
	m.mu.Lock()
	m.pending[p.Tag] = p
	m.mu.Unlock()
	m.logger.Info("watching torrent verification",
		zap.String("tag", p.Tag),
		zap.String("torrent", p.TorrentName))
}

// Pending returns a snapshot of the watch list, oldest first.
func (m *Monitor) Pending() []Pending {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]Pending, 0, len(m.pending))
	for _, p := range m.pending {
		snapshot = append(snapshot, p)
	}
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].AddedAt.Before(snapshot[j].AddedAt) })
	return snapshot
}

// Running reports whether the polling loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Start launches the polling loop. Starting a running monitor is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.startStop.Lock()
	defer m.startStop.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		m.logger.Info("monitor already running")
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.ctx = runCtx
	m.cancel = cancel
	m.running = true

	m.wg.Add(1)
	go m.loop(runCtx)
}

// Stop cancels the loop and waits for any in-flight poll.
func (m *Monitor) Stop() {
	m.startStop.Lock()
	defer m.startStop.Unlock()

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

func (m *Monitor) loop(ctx context.Context) {
	defer m.wg.Done()

	m.poll(ctx)

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

// poll checks every pending torrent once and prunes the finished ones.
func (m *Monitor) poll(ctx context.Context) {
	for _, p := range m.Pending() {
		if ctx.Err() != nil {
			return
		}
		if m.checkPending(ctx, p) {
			m.mu.Lock()
			delete(m.pending, p.Tag)
			m.mu.Unlock()
		}
	}
}

// checkPending reports whether the entry is finished and should be
// dropped from the watch list.
func (m *Monitor) checkPending(ctx context.Context, p Pending) bool {
	infos, err := m.client.InfoByTag(ctx, p.Tag)
	if err != nil {
		m.logger.Warn("verification query failed; will retry",
			zap.String("tag", p.Tag), zap.Error(err))
		return false
	}
	if len(infos) == 0 {
		m.logger.Info("torrent disappeared from client",
			zap.String("tag", p.Tag), zap.String("torrent", p.TorrentName))
		return true
	}

	info := infos[0]
	if _, verified := verifiedStates[info.State]; verified && info.Progress >= 1.0 {
		if p.AutoStart {
			if err := m.client.Resume(ctx, []string{info.Hash}); err != nil {
				m.logger.Warn("resume after verification failed",
					zap.String("tag", p.Tag), zap.Error(err))
			} else {
				m.logger.Info("torrent verified and resumed",
					zap.String("tag", p.Tag), zap.String("torrent", info.Name))
			}
		} else {
			m.logger.Info("torrent verified",
				zap.String("tag", p.Tag), zap.String("torrent", info.Name))
		}
		return true
	}

	if _, failed := failedStates[info.State]; failed {
		m.logger.Warn("torrent verification failed",
			zap.String("tag", p.Tag),
			zap.String("torrent", info.Name),
			zap.String("state", info.State))
		return true
	}

	if m.now().Sub(p.AddedAt) > m.timeout {
		m.logger.Warn("torrent verification timed out",
			zap.String("tag", p.Tag),
			zap.String("torrent", p.TorrentName),
			zap.Duration("age", m.now().Sub(p.AddedAt)))
		return true
	}
	return false
}
