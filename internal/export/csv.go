package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes attendance history as CSV with a header row.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(attendanceColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write([]string{row.Date, row.ClockIn, row.ClockOut, row.Duration, row.Status}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
