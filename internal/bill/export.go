package bill

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// exportColumns is the header row of the workbook.
var exportColumns = []string{"ID", "Merchant", "Amount", "Date", "Type", "Category", "Source", "Captured At"}

// ExportXLSX renders all captured bills as an XLSX workbook. The rules
// path keeps its raw on-screen date text; the AI path formats its
// resolved timestamp.
func (s *Service) ExportXLSX() ([]byte, error) {
	bills, err := s.db.ListBills()
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Bills"

	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("removing default sheet: %w", err)
	}

	for col, name := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("naming header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}

	for row, b := range bills {
		date := b.DateText
		if date == "" && !b.BilledAt.IsZero() {
			date = b.BilledAt.Format(time.DateTime)
		}
		values := []any{
			b.ID,
			b.Merchant,
			float64(b.Amount) / 100,
			date,
			b.Type,
			b.Category,
			b.Source,
			b.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, fmt.Errorf("naming cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("writing row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serializing workbook: %w", err)
	}
	return buf.Bytes(), nil
}
