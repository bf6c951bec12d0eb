package exporter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "acaipulse/internal/errors"
	"acaipulse/internal/format"
	"acaipulse/pkg/contracts/domain"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Recorder receives export events.
type Recorder interface {
	RecordExport(ctx context.Context, format string, rows int)
}

// Options configures an Exporter.
type Options struct {
	Dir       string
	Locale    format.Locale
	Delimiter rune
	// MaxRows rejects larger exports; 0 disables the limit.
	MaxRows int
}

// Exporter writes filtered sales as CSV or XLSX.
type Exporter struct {
	opts     Options
	logger   *slog.Logger
	recorder Recorder
	csv      *CSVWriter
	xlsx     *XLSXWriter
}

// New creates an exporter. logger and recorder may be nil.
func New(opts Options, logger *slog.Logger, recorder Recorder) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Locale.DecimalSep == "" {
		opts.Locale = format.PtBR
	}
	logger = logger.With(slog.String("component", "exporter"))
	return &Exporter{
		opts:     opts,
		logger:   logger,
		recorder: recorder,
		csv:      NewCSVWriter(opts.Dir, opts.Delimiter, logger),
		xlsx:     NewXLSXWriter(opts.Locale, logger),
	}
}

// ParseFormat normalises a format name or file extension.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	}
	return "", apperrors.NewAppValidationError(fmt.Sprintf("unsupported export format %q", s))
}

// ContentType returns the MIME type of a format.
func ContentType(f string) string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName builds a download name stamped with t.
func FileName(f string, t time.Time) string {
	return fmt.Sprintf("vendas_%s.%s", t.Format("20060102_150405"), f)
}

// Write renders sales to out. dash is only used by the XLSX summary
// sheets and may be nil.
func (e *Exporter) Write(ctx context.Context, out io.Writer, f string, sales []domain.Sale, dash *domain.Dashboard) error {
	if e.opts.MaxRows > 0 && len(sales) > e.opts.MaxRows {
		return apperrors.NewExportError(
			fmt.Sprintf("export of %d rows exceeds the limit of %d, narrow the filters", len(sales), e.opts.MaxRows), nil).
			WithContext("rows", len(sales)).
			WithContext("max_rows", e.opts.MaxRows)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	var err error
	switch f {
	case FormatCSV:
		err = e.csv.WriteSales(out, sales, e.opts.Locale)
	case FormatXLSX:
		err = e.xlsx.WriteWorkbook(out, sales, dash)
	default:
		_, err = ParseFormat(f)
		return err
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "export failed", slog.String("format", f), slog.String("error", err.Error()))
		return apperrors.NewExportError(fmt.Sprintf("failed to write %s export", f), err)
	}

	if e.recorder != nil {
		e.recorder.RecordExport(ctx, f, len(sales))
	}
	e.logger.InfoContext(ctx, "export written",
		slog.String("format", f),
		slog.Int("rows", len(sales)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// Save writes an export to path; a relative path is placed under the
// export directory. It returns the path written.
func (e *Exporter) Save(ctx context.Context, path, f string, sales []domain.Sale, dash *domain.Dashboard) (string, error) {
	full := e.csv.resolvePath(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", apperrors.NewExportError("failed to create export directory", err).WithContext("path", full)
	}

	file, err := os.Create(full)
	if err != nil {
		return "", apperrors.NewExportError("failed to create export file", err).WithContext("path", full)
	}

	buf := bufio.NewWriter(file)
	if err := e.Write(ctx, buf, f, sales, dash); err != nil {
		file.Close()
		os.Remove(full)
		return "", err
	}
	if err := buf.Flush(); err != nil {
		file.Close()
		return "", apperrors.NewExportError("failed to flush export file", err).WithContext("path", full)
	}
	if err := file.Close(); err != nil {
		return "", apperrors.NewExportError("failed to close export file", err).WithContext("path", full)
	}
	return full, nil
}
