// Package retention removes generated forms and their audit rows once they
// are older than the configured retention window.
package retention

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// GenerationPruner deletes audit rows created before cutoff.
type GenerationPruner interface {
	DeleteGenerationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config for the cleanup job
type Config struct {
	OutputDir string
	MaxAge    time.Duration
	// Schedule is a six-field cron expression (with seconds).
	Schedule string
}

// Report summarises one sweep.
type Report struct {
	FilesRemoved int
	RowsRemoved  int64
	Cutoff       time.Time
}

// Manager runs the sweep on a cron schedule.
type Manager struct {
	cfg     Config
	pruner  GenerationPruner
	cron    *cron.Cron
	logger  *zap.Logger
	now     func() time.Time
	mu      sync.Mutex
	running bool
}

func NewManager(cfg Config, pruner GenerationPruner, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		pruner: pruner,
		cron:   cron.New(cron.WithSeconds()),
		logger: logger,
		now:    time.Now,
	}
}

// Start registers the sweep and starts the scheduler. A zero MaxAge keeps
// files forever and Start becomes a no-op.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("retention manager already running")
	}
	if m.cfg.MaxAge <= 0 {
		m.logger.Info("Form retention disabled")
		return nil
	}

	_, err := m.cron.AddFunc(m.cfg.Schedule, func() {
		if _, err := m.Sweep(ctx); err != nil {
			m.logger.Error("Form retention sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", m.cfg.Schedule, err)
	}

	m.cron.Start()
	m.running = true
	m.logger.Info("Form retention started",
		zap.String("schedule", m.cfg.Schedule),
		zap.Duration("max_age", m.cfg.MaxAge))
	return nil
}

// Stop waits for a running sweep to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	<-m.cron.Stop().Done()
	m.running = false
	m.logger.Info("Form retention stopped")
}

// Sweep deletes expired PDFs and leftover temp documents from the output
// directory, then prunes the audit table.
func (m *Manager) Sweep(ctx context.Context) (*Report, error) {
	report := &Report{Cutoff: m.now().Add(-m.cfg.MaxAge)}

	entries, err := os.ReadDir(m.cfg.OutputDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !expirable(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(report.Cutoff) {
			continue
		}
		path := filepath.Join(m.cfg.OutputDir, entry.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		report.FilesRemoved++
	}

	if m.pruner != nil {
		rows, err := m.pruner.DeleteGenerationsBefore(ctx, report.Cutoff)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to prune form generations: %w", err))
		}
		report.RowsRemoved = rows
	}

	m.logger.Info("Form retention sweep finished",
		zap.Int("files_removed", report.FilesRemoved),
		zap.Int64("rows_removed", report.RowsRemoved),
		zap.Time("cutoff", report.Cutoff))

	return report, errors.Join(errs...)
}

func expirable(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".pdf") || strings.HasSuffix(lower, "_temp.docx")
}
