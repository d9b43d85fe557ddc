package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileExporterWritesDocument(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	exp := NewFileExporter(dir)
	exp.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	path, err := exp.Export(context.Background(), "  the fix is easy  ")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if filepath.Base(path) != "explanation_20250102_030405.000.txt" {
		t.Fatalf("unexpected file name %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasSuffix(string(data), "\n\nthe fix is easy\n") || !strings.Contains(string(data), "2025-01-02T03:04:05Z") {
		t.Fatalf("unexpected document %q", data)
	}
}

func TestFileExporterRejectsEmpty(t *testing.T) {
	exp := NewFileExporter(t.TempDir())
	if _, err := exp.Export(context.Background(), " \n "); !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestFileExporterCancelled(t *testing.T) {
	exp := NewFileExporter(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := exp.Export(ctx, "text"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
