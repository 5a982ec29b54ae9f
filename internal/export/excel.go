// Package export renders attendance history as downloadable CSV and Excel
// files, the two formats the portal offers.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

var attendanceColumns = []string{"Date", "Clock In", "Clock Out", "Duration", "Status"}

// Row is one rendered attendance line. Duration is the already-formatted net
// duration or the "-" placeholder for open sessions.
type Row struct {
	Date     string
	ClockIn  string
	ClockOut string
	Duration string
	Status   string
}

// WriteXLSX writes an attendance workbook with a bold header row.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Attendance"
	f.SetSheetName("Sheet1", sheet)

	for i, col := range attendanceColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(attendanceColumns), 1)
		_ = f.SetCellStyle(sheet, startCell, endCell, style)
	}

	for rowIdx, row := range rows {
		values := []string{row.Date, row.ClockIn, row.ClockOut, row.Duration, row.Status}
		for colIdx, val := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
