package interfaces

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	planning "capacity-planner/internal/planning/domain"
)

// Export formats.
const (
	FormatGenerationCSV = "generation_csv"
	FormatInvestmentCSV = "investment_csv"
	FormatXLSX          = "xlsx"
	FormatPDF           = "pdf"
)

// ExportObserver is notified after every artifact write.
type ExportObserver interface {
	ObserveExport(format string, elapsed time.Duration, err error)
}

// Artifacts names the files to write. Empty names are skipped.
type Artifacts struct {
	GenerationCSV string
	InvestmentCSV string
	XLSX          string
	PDF           string
}

// Exporter writes result artifacts under a directory.
type Exporter struct {
	dir      string
	names    Artifacts
	observer ExportObserver
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithExportObserver sets the observer.
func WithExportObserver(o ExportObserver) ExporterOption {
	return func(e *Exporter) { e.observer = o }
}

// NewExporter constructs an exporter writing into dir.
func NewExporter(dir string, names Artifacts, opts ...ExporterOption) (*Exporter, error) {
	if dir == "" {
		return nil, errors.New("exporter: empty output dir")
	}
	e := &Exporter{dir: dir, names: names}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Export writes every configured artifact and returns the written paths.
// It stops at the first failure.
func (e *Exporter) Export(res *planning.Result) ([]string, error) {
	if res == nil {
		return nil, planning.ErrNilResult
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, err
	}
	jobs := []struct {
		format string
		name   string
		render func(*planning.Result) ([]byte, error)
	}{
		{FormatGenerationCSV, e.names.GenerationCSV, csvRenderer(WriteGenerationCSV)},
		{FormatInvestmentCSV, e.names.InvestmentCSV, csvRenderer(WriteInvestmentCSV)},
		{FormatXLSX, e.names.XLSX, BuildResultXLSX},
		{FormatPDF, e.names.PDF, BuildResultPDF},
	}
	var written []string
	for _, job := range jobs {
		if job.name == "" {
			continue
		}
		path := e.resolve(job.name)
		start := time.Now()
		err := writeArtifact(path, job.render, res)
		if e.observer != nil {
			e.observer.ObserveExport(job.format, time.Since(start), err)
		}
		if err != nil {
			return written, fmt.Errorf("export %s: %w", job.format, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func (e *Exporter) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(e.dir, name)
}

func csvRenderer(write func(io.Writer, *planning.Result) error) func(*planning.Result) ([]byte, error) {
	return func(res *planning.Result) ([]byte, error) {
		var buf bytes.Buffer
		if err := write(&buf, res); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

func writeArtifact(path string, render func(*planning.Result) ([]byte, error), res *planning.Result) error {
	data, err := render(res)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
