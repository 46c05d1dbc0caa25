package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/specialistvlad/fraudgrid/internal/ctxlog"
	"github.com/specialistvlad/fraudgrid/internal/model"
	"gopkg.in/yaml.v3"
)

// Supported output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "txt"
)

// BaseName is the file name, without extension, of every written report.
const BaseName = "report"

// Encode renders report in format.
func Encode(format string, report model.Report) ([]byte, error) {
	switch format {
	case FormatJSON:
		b, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case FormatYAML:
		return yaml.Marshal(report)
	case FormatText:
		return []byte(report.Readable + "\n"), nil
	}
	return nil, fmt.Errorf("unsupported report format %q", format)
}

// Writer writes reports into a directory.
type Writer struct {
	Dir     string
	Formats []string
}

// Write renders report in every configured format and returns the written
// paths. Nothing is written if any format is unsupported.
func (w *Writer) Write(ctx context.Context, report model.Report) ([]string, error) {
	encoded := make([][]byte, len(w.Formats))
	for i, format := range w.Formats {
		b, err := Encode(format, report)
		if err != nil {
			return nil, err
		}
		encoded[i] = b
	}

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	paths := make([]string, 0, len(w.Formats))
	for i, format := range w.Formats {
		path := filepath.Join(w.Dir, BaseName+"."+format)
		if err := os.WriteFile(path, encoded[i], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	ctxlog.FromContext(ctx).Info("Reports written.", "dir", w.Dir, "files", len(paths))
	return paths, nil
}
