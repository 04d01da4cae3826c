// Package export renders the transaction list as an XLSX workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"fintrack/internal/core"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	SheetTransactions = "Transactions"
	SheetSummary      = "Summary"
	SheetCategories   = "Categories"

	// builtin "#,##0.00"
	numFmtAmount = 4
)

// FileName is the download name for an export made at now.
func FileName(now time.Time) string {
	return fmt.Sprintf("fintrack-%s.xlsx", now.Format(core.DateLayout))
}

type styles struct {
	header int
	amount int
}

// Workbook builds the three-sheet workbook. The caller must Close it.
func Workbook(txs []core.Transaction, now time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetTransactions); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetSummary, SheetCategories} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	steps := []func(*excelize.File, styles) error{
		func(f *excelize.File, st styles) error { return writeTransactions(f, st, core.SortByDate(txs)) },
		func(f *excelize.File, st styles) error { return writeSummary(f, st, core.Summarize(txs, now), now) },
		func(f *excelize.File, st styles) error { return writeCategories(f, st, txs) },
	}
	for _, step := range steps {
		if err := step(f, st); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// WriteXLSX streams the workbook to w.
func WriteXLSX(w io.Writer, txs []core.Transaction, now time.Time) error {
	f, err := Workbook(txs, now)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func newStyles(f *excelize.File) (styles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#F3F4F6"}},
	})
	if err != nil {
		return styles{}, fmt.Errorf("header style: %w", err)
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: numFmtAmount})
	if err != nil {
		return styles{}, fmt.Errorf("amount style: %w", err)
	}
	return styles{header: header, amount: amount}, nil
}

func writeHeader(f *excelize.File, sheet string, st styles, headers ...string) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(sheet, "A1", last, st.header)
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeTransactions(f *excelize.File, st styles, txs []core.Transaction) error {
	sheet := SheetTransactions
	if err := writeHeader(f, sheet, st, "Date", "Type", "Category", "Description", "Amount", "Created", "Updated", "ID"); err != nil {
		return fmt.Errorf("transactions header: %w", err)
	}
	for i, t := range txs {
		row := i + 2
		if err := writeRow(f, sheet, row,
			t.Date.String(),
			string(t.Type),
			t.CategoryInfo().Name,
			t.Description,
			t.Amount.Float64(),
			t.CreatedAt.String(),
			t.UpdatedAt.String(),
			t.ID,
		); err != nil {
			return fmt.Errorf("transactions row %d: %w", row, err)
		}
	}
	if len(txs) > 0 {
		if err := f.SetCellStyle(sheet, "E2", fmt.Sprintf("E%d", len(txs)+1), st.amount); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "C", 16); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "D", "D", 40)
}

func writeSummary(f *excelize.File, st styles, s core.Summary, now time.Time) error {
	sheet := SheetSummary
	if err := writeHeader(f, sheet, st, "Metric", "Value"); err != nil {
		return fmt.Errorf("summary header: %w", err)
	}
	month := now.Format("January 2006")
	rows := []struct {
		label string
		value core.Money
	}{
		{"Total income", s.TotalIncome},
		{"Total expenses", s.TotalExpenses},
		{"Balance", s.Balance},
		{"Income " + month, s.MonthlyIncome},
		{"Expenses " + month, s.MonthlyExpenses},
		{"Net " + month, s.MonthlyNet},
	}
	for i, r := range rows {
		if err := writeRow(f, sheet, i+2, r.label, r.value.Float64()); err != nil {
			return fmt.Errorf("summary row: %w", err)
		}
	}
	countRow := len(rows) + 2
	if err := writeRow(f, sheet, countRow, "Transactions", s.TransactionCount); err != nil {
		return fmt.Errorf("summary row: %w", err)
	}
	if err := f.SetCellStyle(sheet, "B2", fmt.Sprintf("B%d", countRow-1), st.amount); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "A", 28)
}

func writeCategories(f *excelize.File, st styles, txs []core.Transaction) error {
	sheet := SheetCategories
	if err := writeHeader(f, sheet, st, "Type", "Category", "Amount", "Percentage"); err != nil {
		return fmt.Errorf("categories header: %w", err)
	}
	row := 2
	for _, typ := range []core.TransactionType{core.Expense, core.Income} {
		for _, share := range core.CategoryBreakdown(txs, typ, core.BreakdownOptions{OmitZero: true}) {
			if err := writeRow(f, sheet, row, string(typ), share.Category.Name, share.Amount.Float64(), share.Percentage/100); err != nil {
				return fmt.Errorf("categories row %d: %w", row, err)
			}
			row++
		}
	}
	if row > 2 {
		pct, err := f.NewStyle(&excelize.Style{NumFmt: 10}) // 0.00%
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "C2", fmt.Sprintf("C%d", row-1), st.amount); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "D2", fmt.Sprintf("D%d", row-1), pct); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "B", "B", 20)
}
