package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	apperrors "drinklog/internal/errors"
	"drinklog/internal/models"
)

var columnWidths = []float64{12, 18, 18, 8, 8, 8, 30}

// Workbook renders records, in the given order, as a single-sheet xlsx
// workbook with a localized header row. Absent prices are written as 0.
func Workbook(records []models.Drink, opts Options) (*File, error) {
	if len(records) == 0 {
		return nil, apperrors.ErrNothingToExport
	}
	lbl := LabelsFor(opts.Locale)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", lbl.Sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(lbl.Columns))
	for i, c := range lbl.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(lbl.Sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, d := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := row(d)
		if err := f.SetSheetRow(lbl.Sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	for i, w := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(lbl.Sheet, col, col, w); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return &File{
		Name:        FileName(opts.DisplayName, records, opts.Locale, string(FormatXLSX)),
		ContentType: FormatXLSX.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}
