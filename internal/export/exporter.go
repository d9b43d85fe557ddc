package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ErrEmptyDocument = errors.New("export: nothing to export")

// Exporter saves an explanation as a document and returns where it went.
type Exporter interface {
	Export(ctx context.Context, text string) (string, error)
}

// FileExporter writes plain-text documents into a directory.
type FileExporter struct {
	dir string
	now func() time.Time
}

func NewFileExporter(dir string) *FileExporter {
	return &FileExporter{dir: dir, now: time.Now}
}

func (e *FileExporter) Export(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyDocument
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	ts := e.now()
	name := fmt.Sprintf("explanation_%s.txt", ts.Format("20060102_150405.000"))
	path := filepath.Join(e.dir, name)

	var sb strings.Builder
	sb.WriteString("Error explanation\n")
	sb.WriteString("Generated: " + ts.Format(time.RFC3339) + "\n\n")
	sb.WriteString(text)
	sb.WriteString("\n")

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("write export %s: %w", name, err)
	}
	return path, nil
}
