// Package daemon runs the curator background service: the HTTP API, the
// verification monitor, and the single-instance lock around both.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"curator/internal/config"
)

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg    *config.Config
	logger *zap.Logger
	svc    *Service

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool

	// mu guards ctx and cancel; runContext reads them from handler
	// goroutines while Start and Stop write them.
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool   `json:"running"`
	MonitorRunning bool   `json:"monitor_running"`
	MonitorPending int    `json:"monitor_pending"`
	DatabasePath   string `json:"database_path"`
	LockFilePath   string `json:"lock_file_path"`
	APIBind        string `json:"api_bind"`
}

// New constructs a daemon around an initialized service.
func New(cfg *config.Config, svc *Service, logger *zap.Logger) (*Daemon, error) {
	if cfg == nil || svc == nil || logger == nil {
		return nil, errors.New("daemon requires config, service, and logger")
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		svc:      svc,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, then launches the verification monitor
// and the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another curator daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.ctx = runCtx
	d.cancel = cancel
	d.mu.Unlock()
	d.svc.StartMonitor(runCtx)

	api, err := newAPIServer(d.cfg.Paths.APIBind, d, d.logger)
	if err != nil {
		d.teardown()
		return err
	}
	d.api = api
	if err := d.api.start(runCtx); err != nil {
		d.teardown()
		return err
	}

	d.running.Store(true)
	d.logger.Info("curator daemon started", zap.String("lock", d.lockPath))
	return nil
}

// Stop halts background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.running.Store(false)
	if d.api != nil {
		d.api.stop()
		d.api = nil
	}
	d.svc.StopMonitor()
	d.teardown()
	d.logger.Info("curator daemon stopped")
}

func (d *Daemon) teardown() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", zap.Error(err))
	}
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.ctx = nil
	d.mu.Unlock()
}

// Wait blocks until the supplied context is cancelled, then stops the
// daemon.
func (d *Daemon) Wait(ctx context.Context) {
	<-ctx.Done()
	d.Stop()
}

// Status reports daemon runtime information.
func (d *Daemon) Status() Status {
	return Status{
		Running:        d.running.Load(),
		MonitorRunning: d.svc.MonitorRunning(),
		MonitorPending: len(d.svc.MonitorPending()),
		DatabasePath:   d.cfg.DatabasePath(),
		LockFilePath:   d.lockPath,
		APIBind:        d.cfg.Paths.APIBind,
	}
}

// runContext returns the daemon's long-lived context for operations that
// must outlive a single API request, falling back to Background before
// Start.
func (d *Daemon) runContext() context.Context {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx != nil {
		return d.ctx
	}
	return context.Background()
}
