package infra

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
)

// FileReporter writes the bundle as indented JSON.
type FileReporter struct {
	path string
}

func NewFileReporter(path string) *FileReporter {
	return &FileReporter{path: path}
}

// Report replaces the file atomically so readers never see a partial bundle.
func (r *FileReporter) Report(ctx context.Context, b *domain.Bundle) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return apperror.Wrap(err, apperror.CodeInternalError, "encode insights")
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperror.Wrap(err, apperror.CodeInternalError, "create output directory")
	}

	tmp, err := os.CreateTemp(dir, ".insights-*.json")
	if err != nil {
		return apperror.Wrap(err, apperror.CodeInternalError, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return apperror.Wrap(err, apperror.CodeInternalError, "write insights")
	}
	if err := tmp.Close(); err != nil {
		return apperror.Wrap(err, apperror.CodeInternalError, "write insights")
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return apperror.Wrap(err, apperror.CodeInternalError, "write insights")
	}
	return nil
}
