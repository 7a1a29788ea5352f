package xlsxsource

import (
	"errors"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	ingest "capacity-planner/internal/ingest/domain"
)

// ReadTable reads the first worksheet of an .xlsx workbook. Numeric cells
// carrying a date number format are returned as time.Time; everything else
// is returned as the raw cell text.
func ReadTable(path string) (ingest.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return ingest.RawTable{}, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ingest.RawTable{}, ingest.ErrEmptyFile
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return ingest.RawTable{}, err
	}
	if len(rows) == 0 {
		return ingest.RawTable{}, ingest.ErrEmptyFile
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	columns := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		columns[i] = strings.TrimSpace(h)
	}

	styles := map[int]bool{}
	var out [][]any
	for r := 1; r < len(rows); r++ {
		record := rows[r]
		if len(record) == 0 {
			continue
		}
		if len(record) > len(columns) {
			return ingest.RawTable{}, &ingest.ValidationError{Column: "*", Row: len(out), Err: ingest.ErrRaggedRow}
		}
		row := make([]any, len(columns))
		for c := range columns {
			if c >= len(record) {
				row[c] = ""
				continue
			}
			value, err := cellValue(f, sheet, c+1, r+1, record[c], date1904, styles)
			if err != nil {
				return ingest.RawTable{}, err
			}
			row[c] = value
		}
		out = append(out, row)
	}
	return ingest.RawTable{Columns: columns, Rows: out}, nil
}

func cellValue(f *excelize.File, sheet string, col, row int, raw string, date1904 bool, cache map[int]bool) (any, error) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return raw, nil
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		return nil, err
	}
	isDate, ok := cache[styleID]
	if !ok {
		isDate, err = isDateStyle(f, styleID)
		if err != nil {
			return nil, err
		}
		cache[styleID] = isDate
	}
	if !isDate {
		return raw, nil
	}
	ts, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return nil, errors.Join(&ingest.DateParseError{Row: row - 2, Value: raw}, err)
	}
	return ts, nil
}

// Built-in number formats 14-22 and 45-47 are date/time formats.
func isDateStyle(f *excelize.File, styleID int) (bool, error) {
	if styleID == 0 {
		return false, nil
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		return false, err
	}
	if style.CustomNumFmt != nil {
		return isDateFormat(*style.CustomNumFmt), nil
	}
	switch {
	case style.NumFmt >= 14 && style.NumFmt <= 22:
		return true, nil
	case style.NumFmt >= 45 && style.NumFmt <= 47:
		return true, nil
	}
	return false, nil
}

func isDateFormat(format string) bool {
	var b strings.Builder
	quoted := false
	for _, r := range format {
		switch {
		case r == '"':
			quoted = !quoted
		case quoted:
		default:
			b.WriteRune(r)
		}
	}
	lower := strings.ToLower(b.String())
	return strings.ContainsAny(lower, "yd") || strings.Contains(lower, "h:mm") || strings.Contains(lower, "mm:ss")
}
