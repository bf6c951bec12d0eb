package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "acaipulse/internal/errors"
)

// Supported source formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// DetectFormat infers the source format from the file extension.
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// rawTable is the untyped content of a source file.
type rawTable struct {
	header  []string
	records [][]string
	lines   []int // 1-based source line of each record
	format  string
}

func readSource(ctx context.Context, path string, opts Options) (*rawTable, error) {
	switch format := DetectFormat(path); format {
	case FormatXLSX:
		return readXLSX(ctx, path, opts.Sheet)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to open dataset", err).WithContext("path", path)
		}
		defer f.Close()
		return readCSV(ctx, f, opts.Delimiter)
	}
}

func readCSV(ctx context.Context, r io.Reader, delimiter rune) (*rawTable, error) {
	reader := csv.NewReader(r)
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewParsingError("dataset is empty", nil)
		}
		return nil, apperrors.NewParsingError("failed to read header", err)
	}

	table := &rawTable{header: header, format: FormatCSV}
	for n := 1; ; n++ {
		if n%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			line := 0
			if errors.As(err, &parseErr) {
				line = parseErr.Line
			}
			return nil, apperrors.NewParsingError("malformed record", err).WithContext("line", line)
		}
		if isBlank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		table.records = append(table.records, record)
		table.lines = append(table.lines, line)
	}
	return table, nil
}

func readXLSX(ctx context.Context, path, sheet string) (*rawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewParsingError("workbook has no sheets", nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError("dataset is empty", nil)
	}

	table := &rawTable{header: rows[0], format: FormatXLSX}
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		table.records = append(table.records, row)
		table.lines = append(table.lines, i+2)
	}
	return table, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
