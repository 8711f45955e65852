// Package report renders the ledger for download.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/madrasa/core/finance"
)

const (
	sheetName  = "Transactions"
	dateLayout = "2006-01-02"
)

var headers = []string{"Date", "Type", "Category", "Description", "Amount"}

// Period bounds the exported transactions; zero values are open ends.
type Period struct {
	From time.Time
	To   time.Time // exclusive
}

func (p Period) String() string {
	from, to := "start", "now"
	if !p.From.IsZero() {
		from = p.From.Format(dateLayout)
	}
	if !p.To.IsZero() {
		to = p.To.AddDate(0, 0, -1).Format(dateLayout)
	}
	return from + " - " + to
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// WriteTransactionsXLSX writes txs as a spreadsheet followed by the income, expense & net totals.
func WriteTransactionsXLSX(w io.Writer, txs []finance.Transaction, period Period) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return errors.Wrap(err, "creating sheet")
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	_ = f.SetColWidth(sheetName, "A", "A", 12)
	_ = f.SetColWidth(sheetName, "B", "C", 16)
	_ = f.SetColWidth(sheetName, "D", "D", 40)
	_ = f.SetColWidth(sheetName, "E", "E", 14)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating total style")
	}

	row := 1
	_ = f.SetCellValue(sheetName, cell("A", row), "Ledger "+period.String())
	_ = f.SetCellStyle(sheetName, cell("A", row), cell("A", row), totalStyle)

	row = 3
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetCellValue(sheetName, cell(col, row), h)
	}
	_ = f.SetCellStyle(sheetName, cell("A", row), cell("E", row), headerStyle)

	var income, expense int64
	for _, tx := range txs {
		row++
		_ = f.SetCellValue(sheetName, cell("A", row), tx.Date.Format(dateLayout))
		_ = f.SetCellValue(sheetName, cell("B", row), string(tx.Type))
		_ = f.SetCellValue(sheetName, cell("C", row), string(tx.Category))
		_ = f.SetCellValue(sheetName, cell("D", row), tx.Description)
		_ = f.SetCellValue(sheetName, cell("E", row), tx.Signed())

		if tx.Type == finance.Expense {
			expense += tx.Amount
		} else {
			income += tx.Amount
		}
	}

	row++
	for _, total := range []struct {
		label string
		value int64
	}{
		{"Total income", income},
		{"Total expenses", expense},
		{"Net", income - expense},
	} {
		row++
		_ = f.SetCellValue(sheetName, cell("D", row), total.label)
		_ = f.SetCellValue(sheetName, cell("E", row), total.value)
		_ = f.SetCellStyle(sheetName, cell("D", row), cell("E", row), totalStyle)
	}

	if err = f.Write(w); err != nil {
		return errors.Wrap(err, "writing spreadsheet")
	}
	return nil
}
