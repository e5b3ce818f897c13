// Package export renders a user's expenses as downloadable CSV or XLSX files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"finsight/internal/core"

	"github.com/xuri/excelize/v2"
)

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

const sheetName = "Expenses"

var header = []string{"Date", "Category", "Description", "Amount"}

func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename is expenses_YYYY-MM-DD.<ext> for the day of now.
func (f Format) Filename(now time.Time) string {
	return fmt.Sprintf("expenses_%s.%s", now.UTC().Format("2006-01-02"), f)
}

type totals struct {
	sum     core.Money
	count   int
	average core.Money
}

func summarize(expenses []core.Expense) totals {
	var t totals
	for _, e := range expenses {
		t.sum = t.sum.Add(e.Amount)
	}
	t.count = len(expenses)
	t.average = t.sum.Average(t.count)
	return t
}

// Write renders expenses in format f followed by total, count and average rows.
func Write(w io.Writer, f Format, expenses []core.Expense) error {
	switch f {
	case CSV:
		return WriteCSV(w, expenses)
	case XLSX:
		return WriteXLSX(w, expenses)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

func WriteCSV(w io.Writer, expenses []core.Expense) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range expenses {
		row := []string{
			e.Date.UTC().Format("2006-01-02"),
			string(e.Category),
			e.Description,
			e.Amount.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	t := summarize(expenses)
	summary := [][]string{
		{},
		{"Total", "", "", t.sum.String()},
		{"Count", "", "", strconv.Itoa(t.count)},
		{"Average", "", "", t.average.String()},
	}
	if err := cw.WriteAll(summary); err != nil {
		return fmt.Errorf("write csv summary: %w", err)
	}
	return nil
}

func WriteXLSX(w io.Writer, expenses []core.Expense) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("create amount style: %w", err)
	}

	row := []any{}
	for _, h := range header {
		row = append(row, h)
	}
	if err := f.SetSheetRow(sheetName, "A1", &row); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", "D1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	line := 2
	for _, e := range expenses {
		cells := []any{e.Date.UTC().Format("2006-01-02"), string(e.Category), e.Description, e.Amount.Float64()}
		if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", line), &cells); err != nil {
			return fmt.Errorf("write row %d: %w", line, err)
		}
		line++
	}

	t := summarize(expenses)
	line++
	for _, s := range []struct {
		label string
		value any
	}{
		{"Total", t.sum.Float64()},
		{"Count", t.count},
		{"Average", t.average.Float64()},
	} {
		cells := []any{s.label, nil, nil, s.value}
		if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", line), &cells); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", line), fmt.Sprintf("A%d", line), bold); err != nil {
			return fmt.Errorf("style summary: %w", err)
		}
		line++
	}

	if err := f.SetCellStyle(sheetName, "D2", fmt.Sprintf("D%d", line-1), money); err != nil {
		return fmt.Errorf("style amounts: %w", err)
	}
	// The count row is an integer, not money.
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("D%d", line-2), fmt.Sprintf("D%d", line-2), 0); err != nil {
		return fmt.Errorf("style count: %w", err)
	}

	for col, width := range map[string]float64{"A": 12, "B": 15, "C": 40, "D": 12} {
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
