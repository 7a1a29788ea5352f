package csvsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	ingest "capacity-planner/internal/ingest/domain"
)

const utf8BOM = "\ufeff"

// ReadTable parses a UTF-8 CSV file with a header row into a raw table.
func ReadTable(path string) (ingest.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return ingest.RawTable{}, err
	}
	defer f.Close()
	return Read(f)
}

// Read parses CSV content from r.
func Read(r io.Reader) (ingest.RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return ingest.RawTable{}, ingest.ErrEmptyFile
	}
	if err != nil {
		return ingest.RawTable{}, fmt.Errorf("read header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		columns[i] = strings.TrimSpace(h)
	}

	var rows [][]any
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ingest.RawTable{}, fmt.Errorf("read record %d: %w", line, err)
		}
		if isBlank(record) {
			continue
		}
		if len(record) != len(columns) {
			return ingest.RawTable{}, &ingest.ValidationError{Column: "*", Row: line, Err: ingest.ErrRaggedRow}
		}
		row := make([]any, len(record))
		for i, cell := range record {
			row[i] = cell
		}
		rows = append(rows, row)
		line++
	}
	return ingest.RawTable{Columns: columns, Rows: rows}, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
