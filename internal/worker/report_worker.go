// Package worker keeps an XLSX report of the stored transactions up to
// date. It reacts to transaction events and also refreshes on a timer, so
// missed events are caught up.
package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/log"
)

// ReportFileName is the workbook kept in the report directory.
const ReportFileName = "fintrack-report.xlsx"

// Lister reads the stored collection.
type Lister interface {
	ListAll(ctx context.Context) []core.Transaction
}

// ReportWorker rewrites the report from storage on each refresh.
type ReportWorker struct {
	repo   Lister
	dir    string
	now    func() time.Time
	logger *log.Logger

	mu      sync.Mutex
	written int64
}

func NewReportWorker(repo Lister, dir string, logger *log.Logger) *ReportWorker {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &ReportWorker{
		repo:   repo,
		dir:    dir,
		now:    time.Now,
		logger: logger.WithComponent(log.ComponentExport),
	}
}

// Path returns the location of the report.
func (w *ReportWorker) Path() string {
	return filepath.Join(w.dir, ReportFileName)
}

// Written returns how many reports have been written.
func (w *ReportWorker) Written() int64 {
	return atomic.LoadInt64(&w.written)
}

// HandleEvent refreshes the report after a mutation. The event only
// signals that storage changed; the report is always rebuilt from storage.
func (w *ReportWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	w.logger.InfoContext(ctx, "Processing transaction event",
		"kind", ev.Kind,
		log.FieldTransactionID, ev.ID)
	return w.Refresh(ctx)
}

// Refresh writes the current collection to the report. The workbook is
// written to a temp file and renamed into place.
func (w *ReportWorker) Refresh(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	txs := w.repo.ListAll(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	tmp, err := os.CreateTemp(w.dir, ".report-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := export.WriteXLSX(tmp, txs, w.now()); err != nil {
		tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmpName, w.Path()); err != nil {
		return fmt.Errorf("replace report: %w", err)
	}

	atomic.AddInt64(&w.written, 1)
	w.logger.InfoContext(ctx, "Report written",
		"path", w.Path(),
		log.FieldCount, len(txs),
		log.FieldOperation, log.OpExport)
	return nil
}

// Run writes a report at startup and then every interval until ctx is
// done. Failed refreshes are logged and retried on the next tick.
func (w *ReportWorker) Run(ctx context.Context, interval time.Duration) error {
	if err := w.Refresh(ctx); err != nil && ctx.Err() == nil {
		w.logger.ErrorContext(ctx, "Startup report failed", log.FieldError, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.Refresh(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "Periodic report failed", log.FieldError, err)
			}
		}
	}
}
