package collector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"isp-tracker/pkg/config"
	"isp-tracker/pkg/database"
	"isp-tracker/pkg/models"
	"isp-tracker/pkg/speedtest"
)

// resultWriter is the slice of the database layer the sink needs.
type resultWriter interface {
	InsertSpeedResult(ctx context.Context, result *models.SpeedResult) error
	Close() error
}

// Sink persists measurement results. Every failure is terminal for the
// current cycle only: it is logged and swallowed, never propagated, so a
// flaky database can not take the collector down.
type Sink struct {
	cfg *config.Config

	// connect opens a write-scoped database handle; replaced in tests.
	connect func(cfg *config.Config) (resultWriter, error)
}

func NewSink(cfg *config.Config) *Sink {
	return &Sink{
		cfg: cfg,
		connect: func(cfg *config.Config) (resultWriter, error) {
			return database.NewDB(cfg)
		},
	}
}

// Store writes one result, logging through the caller's cycle-scoped
// logger. A nil result (upstream failure) and an incomplete configuration
// both skip the write before any connection is attempted; connection and
// insert errors are logged and dropped.
func (s *Sink) Store(ctx context.Context, logger *slog.Logger, result *models.SpeedResult) {
	if result == nil {
		logger.Info("No data to store")
		return
	}

	if !s.cfg.Complete() {
		logger.Error("Database configuration is incomplete, skipping write. Check environment variables.")
		return
	}

	db, err := s.connect(s.cfg)
	if err != nil {
		logger.Error("Error connecting to database", "error", err)
		return
	}
	defer db.Close()

	if err := db.InsertSpeedResult(ctx, result); err != nil {
		logger.Error("Error inserting speed result", "error", err)
		return
	}

	logger.Info("Successfully stored result",
		"downloadMbps", fmt.Sprintf("%.2f", result.DownloadMbps),
		"uploadMbps", fmt.Sprintf("%.2f", result.UploadMbps),
		"pingMs", result.PingMs)
}

// runner produces one measurement per call.
type runner interface {
	Run(ctx context.Context) (*models.SpeedResult, error)
}

// Service executes full measure-then-store cycles.
type Service struct {
	runner runner
	sink   *Sink
	logger *slog.Logger
}

func NewService(cfg *config.Config, logger *slog.Logger) *Service {
	return &Service{
		runner: speedtest.NewRunner(cfg.ServerID, logger),
		sink:   NewSink(cfg),
		logger: logger,
	}
}

// RunCycle runs one measurement and unconditionally hands the outcome to
// the sink. A measurement failure becomes a nil result so the sink logs
// the skip; nothing propagates to the scheduler.
func (s *Service) RunCycle(ctx context.Context) {
	logger := s.logger.With("cycle", uuid.NewString())
	logger.Info("Starting speed test cycle")

	result, err := s.runner.Run(ctx)
	if err != nil {
		logger.Error("Measurement failed", "error", err)
		result = nil
	}

	s.sink.Store(ctx, logger, result)
	logger.Info("Speed test cycle finished")
}
