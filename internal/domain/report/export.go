package report

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportSummary renders the financial summary for the period as an XLSX
// workbook: one sheet for the summary figures, one for outstanding debts.
func (s *Service) ExportSummary(ctx context.Context, start, end time.Time) ([]byte, error) {
	summary, err := s.Summary(ctx, start, end)
	if err != nil {
		return nil, err
	}
	debts, err := s.OutstandingDebts(ctx, 0)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeSummarySheet(f, headerStyle, summary); err != nil {
		return nil, err
	}
	if err := writeDebtsSheet(f, headerStyle, debts); err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, headerStyle int, summary *Summary) error {
	const sheet = "Summary"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	f.SetActiveSheet(index)

	rows := [][]any{
		{"Period start", summary.Period.StartDate.Format("2006-01-02")},
		{"Period end", summary.Period.EndDate.Format("2006-01-02")},
		{"Revenue total", summary.Revenue.Total},
		{"Payment count", summary.Revenue.Count},
		{"Average payment", summary.Revenue.Average},
		{"Appointments", summary.Appointments.Total},
		{"Outstanding debt total", summary.OutstandingDebts.Total},
		{"Debtor count", summary.OutstandingDebts.Count},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	deviceHeaderRow := len(rows) + 2
	cell, err := excelize.CoordinatesToCellName(1, deviceHeaderRow)
	if err != nil {
		return err
	}
	header := []any{"Device", "Bookings"}
	if err := f.SetSheetRow(sheet, cell, &header); err != nil {
		return err
	}
	endCell, err := excelize.CoordinatesToCellName(len(header), deviceHeaderRow)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, cell, endCell, headerStyle); err != nil {
		return err
	}
	for i, d := range summary.TopDevices {
		cell, err := excelize.CoordinatesToCellName(1, deviceHeaderRow+1+i)
		if err != nil {
			return err
		}
		row := []any{d.DeviceName, d.AppointmentCount}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "A", 24)
}

func writeDebtsSheet(f *excelize.File, headerStyle int, debts *OutstandingDebts) error {
	const sheet = "Outstanding Debts"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	header := []any{"Customer", "Phone", "Debt"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	endCell, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", endCell, headerStyle); err != nil {
		return err
	}

	for i, d := range debts.Customers {
		phone := ""
		if d.Phone != nil {
			phone = *d.Phone
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{d.FullName, phone, d.TotalDebt}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "B", 24)
}
