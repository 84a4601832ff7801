package cli

import (
	"context"
	"testing"

	"khata/internal/config"
	"khata/internal/log"
	"khata/internal/report/xlsx"
)

func TestNewExporterFallsBackToWorkbookFiles(t *testing.T) {
	cfg := &config.Config{ExportDir: t.TempDir(), ReportRowsPerPage: 25}

	exp, err := NewExporter(context.Background(), log.Discard(), cfg)
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}
	fe, ok := exp.(*xlsx.FileExporter)
	if !ok {
		t.Fatalf("expected *xlsx.FileExporter, got %T", exp)
	}
	if fe.Dir != cfg.ExportDir {
		t.Errorf("Dir = %q, want %q", fe.Dir, cfg.ExportDir)
	}
	if fe.Writer.RowsPerPage != 25 {
		t.Errorf("RowsPerPage = %d, want 25", fe.Writer.RowsPerPage)
	}
}

func TestNewExporterRejectsUnreadableCredentials(t *testing.T) {
	cfg := &config.Config{
		GoogleSpreadsheetID:      "sheet",
		GoogleServiceAccountFile: "/nonexistent/sa.json",
		ReportRowsPerPage:        40,
	}

	if _, err := NewExporter(context.Background(), log.Discard(), cfg); err == nil {
		t.Fatal("expected error for unreadable credentials")
	}
}

func TestNewPublisherWithoutURL(t *testing.T) {
	pub, closeFn := NewPublisher(log.Discard(), &config.Config{})

	if pub != nil {
		t.Errorf("expected nil publisher, got %T", pub)
	}
	closeFn()
}

func TestInitStoreMemory(t *testing.T) {
	cfg := config.Load()
	cfg.DataBackend = config.BackendMemory
	cfg.MemorySeedFile = ""

	res := InitStore(context.Background(), log.Discard(), cfg)

	if res.Store == nil {
		t.Fatal("expected a store")
	}
	if err := res.Cleanup(); err != nil {
		t.Errorf("Cleanup() error = %v", err)
	}
}
