package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"jee-exam-service/internal/app"
)

// NewFinalizeExpiredCmd finalizes submissions whose paper time limit has passed.
func NewFinalizeExpiredCmd(configPath *string) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "finalize-expired",
		Short: "Finalize submissions past their time limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFinalizeExpired(cmd.Context(), *configPath, interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "repeat every interval until interrupted (0 runs once)")
	return cmd
}

func runFinalizeExpired(ctx context.Context, configPath string, interval time.Duration) error {
	cfg, logger, err := loadConfigAndLogger(configPath)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	deps, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	sweeper := app.NewExpirySweeper(deps.service, deps.deadlines, cfg.Exam.SweepBatch, logger)
	if interval <= 0 {
		return drain(ctx, sweeper, cfg.Exam.SweepBatch, logger)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := drain(ctx, sweeper, cfg.Exam.SweepBatch, logger); err != nil && ctx.Err() == nil {
			logger.Warn("sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// drain sweeps batches until one comes back short.
func drain(ctx context.Context, sweeper *app.ExpirySweeper, batch int, logger *zap.Logger) error {
	if batch <= 0 {
		batch = 100
	}
	total := 0
	for {
		n, err := sweeper.Sweep(ctx)
		total += n
		if err != nil {
			return err
		}
		if n < batch {
			break
		}
	}
	logger.Info("expired submissions finalized", zap.Int("count", total))
	return nil
}
