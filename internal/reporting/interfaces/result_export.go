package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	planning "capacity-planner/internal/planning/domain"
)

const (
	summarySheet    = "summary"
	investmentSheet = "investment"
	generationSheet = "generation"
)

// BuildResultXLSX renders the plan as a workbook with summary, investment
// and hourly generation sheets.
func BuildResultXLSX(res *planning.Result) ([]byte, error) {
	if res == nil {
		return nil, planning.ErrNilResult
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	for _, name := range []string{investmentSheet, generationSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	_ = f.SetCellValue(summarySheet, "A1", "Capacity Expansion Plan")
	summary := [][2]any{
		{"Run", res.RunID},
		{"Solved", formatSolved(res.SolvedAt)},
		{"Hours", len(res.GenerationMW)},
		{"Objective (EUR)", res.ObjectiveEUR},
		{"Investment cost (EUR)", res.CapexCostEUR},
		{"Variable cost (EUR)", res.VarCostEUR},
		{"Curtailment (MWh)", res.TotalCurtailmentMWh()},
	}
	for i, kv := range summary {
		row := i + 3
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), kv[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), kv[1])
	}
	if len(res.IgnoredColumns) > 0 {
		row := len(summary) + 4
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), "Ignored technologies")
		for i, name := range res.IgnoredColumns {
			cell, err := excelize.CoordinatesToCellName(2+i, row)
			if err != nil {
				return nil, err
			}
			_ = f.SetCellValue(summarySheet, cell, name)
		}
	}

	_ = f.SetCellValue(investmentSheet, "A1", "technology")
	_ = f.SetCellValue(investmentSheet, "B1", "existing_mw")
	_ = f.SetCellValue(investmentSheet, "C1", "new_capacity_mw")
	_ = f.SetCellValue(investmentSheet, "D1", "renewable")
	for k, name := range res.Technologies {
		row := k + 2
		_ = f.SetCellValue(investmentSheet, fmt.Sprintf("A%d", row), name)
		_ = f.SetCellValue(investmentSheet, fmt.Sprintf("B%d", row), res.ExistingMW[k])
		_ = f.SetCellValue(investmentSheet, fmt.Sprintf("C%d", row), res.NewCapacityMW[k])
		_ = f.SetCellValue(investmentSheet, fmt.Sprintf("D%d", row), res.Renewable[name])
	}

	header := append([]string{"timestamp", "load_mw"}, res.Technologies...)
	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(generationSheet, cell, h)
	}
	for t, row := range res.Generation() {
		r := t + 2
		if row.Timestamp.IsZero() {
			_ = f.SetCellValue(generationSheet, fmt.Sprintf("A%d", r), t)
		} else {
			_ = f.SetCellValue(generationSheet, fmt.Sprintf("A%d", r), row.Timestamp)
		}
		if t < len(res.LoadMW) {
			_ = f.SetCellValue(generationSheet, fmt.Sprintf("B%d", r), res.LoadMW[t])
		}
		for k, g := range row.GenerationMW {
			cell, err := excelize.CoordinatesToCellName(k+3, r)
			if err != nil {
				return nil, err
			}
			_ = f.SetCellValue(generationSheet, cell, g)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildResultPDF renders a one-page summary of the plan.
func BuildResultPDF(res *planning.Result) ([]byte, error) {
	if res == nil {
		return nil, planning.ErrNilResult
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Capacity Expansion Plan")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Run: %s", res.RunID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Solved: %s", formatSolved(res.SolvedAt)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Hours: %d", len(res.GenerationMW)))
	pdf.Ln(5)
	if len(res.Hours) > 0 {
		pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s",
			res.Hours[0].Format(TimestampLayout), res.Hours[len(res.Hours)-1].Format(TimestampLayout)))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Objective (EUR): %.2f", res.ObjectiveEUR))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Investment cost (EUR): %.2f", res.CapexCostEUR))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Variable cost (EUR): %.2f", res.VarCostEUR))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Curtailment (MWh): %.3f", res.TotalCurtailmentMWh()))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "Technology", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Existing (MW)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "New (MW)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Energy (MWh)", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for k, name := range res.Technologies {
		var energy float64
		for _, row := range res.GenerationMW {
			energy += row[k]
		}
		pdf.CellFormat(50, 6, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.3f", res.ExistingMW[k]), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.3f", res.NewCapacityMW[k]), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.3f", energy), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatSolved(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}
