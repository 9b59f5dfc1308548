package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"curator/internal/daemon"
	"curator/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the curator daemon with its HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			runID := time.Now().UTC().Format("20060102T150405Z")
			logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("curator-%s.log", runID))
			logger, err := logging.New(logging.Options{
				Level:    cfg.Logging.Level,
				Format:   cfg.Logging.Format,
				FilePath: logPath,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logger.Sync()

			rt, err := newRuntime(cfg, logger)
			if err != nil {
				return err
			}
			defer rt.close()

			d, err := daemon.New(cfg, rt.service, logger)
			if err != nil {
				return err
			}
			if err := d.Start(signalCtx); err != nil {
				logger.Error("daemon start failed", zap.Error(err))
				return err
			}
			logger.Info("curator daemon running",
				zap.String("api_bind", cfg.Paths.APIBind),
				zap.String("log_file", logPath))

			d.Wait(signalCtx)
			logger.Info("shutdown requested")
			d.Stop()
			return nil
		},
	}
}
