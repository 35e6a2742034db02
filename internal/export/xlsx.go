// Package export writes stored results as a spreadsheet.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"marketing-quiz-service/internal/domain"
)

// SheetName is the worksheet holding the results.
const SheetName = "Results"

// Header is the first row of the sheet.
var Header = []string{"ID", "Full Name", "Email", "Roll Number", "Score", "Percentage", "Badge", "Submitted At"}

// WriteXLSX writes one row per record, in the order given, below Header.
func WriteXLSX(w io.Writer, records []domain.ResultRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			r.ID,
			r.FullName,
			r.EmailID,
			r.RollNumber,
			r.Score,
			r.Percentage,
			string(r.Badge),
			r.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := f.SetSheetRow(SheetName, axis, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(SheetName, "B", "D", 24); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
