package journal

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Attempts"

var exportColumns = []string{"ID", "Created", "Profile", "Name", "Email", "Slot start", "Slot end", "Status", "Error"}

// WriteXLSX writes entries as a spreadsheet to w.
func WriteXLSX(w io.Writer, entries []Entry, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeRow(f, 1, toCells(exportColumns)); err != nil {
		return err
	}
	for i, e := range entries {
		row := []any{
			e.ID,
			e.CreatedAt.In(loc).Format("2006-01-02 15:04"),
			e.ProfileID,
			e.Name,
			e.Email,
			e.SlotStart.In(loc).Format("2006-01-02 15:04"),
			e.SlotEnd.In(loc).Format("2006-01-02 15:04"),
			e.Status,
			e.Error,
		}
		if err := writeRow(f, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheetName, "A", "I", 20); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func toCells(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
