package interfaces

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	planning "capacity-planner/internal/planning/domain"
)

// TimestampLayout is the timestamp format of exported tables.
const TimestampLayout = "2006-01-02 15:04:05"

// WriteGenerationCSV writes one row per hour: the timestamp (or the hour
// index when the run has none) followed by one generation column per
// technology.
func WriteGenerationCSV(w io.Writer, res *planning.Result) error {
	if res == nil {
		return planning.ErrNilResult
	}
	cw := csv.NewWriter(w)

	header := append([]string{"timestamp"}, res.Technologies...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for t, row := range res.Generation() {
		record := make([]string, 0, len(row.GenerationMW)+1)
		record = append(record, hourLabel(row.Timestamp, t))
		for _, g := range row.GenerationMW {
			record = append(record, fmtFloat(g))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteInvestmentCSV writes technology,new_capacity_mw rows.
func WriteInvestmentCSV(w io.Writer, res *planning.Result) error {
	if res == nil {
		return planning.ErrNilResult
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"technology", "new_capacity_mw"}); err != nil {
		return err
	}
	for _, row := range res.Investments() {
		if err := cw.Write([]string{row.Technology, fmtFloat(row.NewCapacityMW)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func hourLabel(ts time.Time, t int) string {
	if ts.IsZero() {
		return strconv.Itoa(t)
	}
	return ts.Format(TimestampLayout)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
