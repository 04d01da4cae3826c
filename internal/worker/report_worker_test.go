package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/kv/memory"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

func newWorker(t *testing.T) (*ReportWorker, *storage.Repository) {
	t.Helper()
	repo := storage.New(memory.New(), storage.WithLogger(log.Discard()))
	w := NewReportWorker(repo, filepath.Join(t.TempDir(), "reports"), log.Discard())
	w.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	return w, repo
}

func reportRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(export.SheetTransactions)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	return rows
}

func TestReportWorker_Refresh(t *testing.T) {
	w, repo := newWorker(t)
	ctx := context.Background()

	if err := w.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if rows := reportRows(t, w.Path()); len(rows) != 1 {
		t.Fatalf("empty report rows = %v, want header only", rows)
	}

	tx := repo.Add(ctx, core.TransactionInput{
		Amount:      core.MoneyFromFloat(42),
		Date:        core.NewDate(2024, 3, 1),
		Description: "Books",
		Type:        core.Expense,
		Category:    "education",
	})
	if err := w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.TransactionCreated, tx)); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	rows := reportRows(t, w.Path())
	if len(rows) != 2 || rows[1][3] != "Books" {
		t.Fatalf("report rows = %v", rows)
	}
	if w.Written() != 2 {
		t.Errorf("Written() = %d, want 2", w.Written())
	}

	entries, err := os.ReadDir(filepath.Dir(w.Path()))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("report directory has %d entries, temp files left behind", len(entries))
	}
}

func TestReportWorker_RefreshCancelled(t *testing.T) {
	w, _ := newWorker(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := w.Refresh(ctx); err == nil {
		t.Fatal("Refresh() with cancelled context should fail")
	}
	if _, err := os.Stat(w.Path()); !os.IsNotExist(err) {
		t.Errorf("no report expected after a cancelled refresh, stat err = %v", err)
	}
}

func TestReportWorker_RunStopsOnCancel(t *testing.T) {
	w, _ := newWorker(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, time.Hour) }()

	deadline := time.Now().Add(5 * time.Second)
	for w.Written() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("startup report was not written")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}
