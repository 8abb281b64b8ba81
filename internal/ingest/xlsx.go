package ingest

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/replenlab/eoq-engine/internal/domain"
)

// ParseXLSX reads batch rows from the first sheet of an XLSX workbook. The
// first row is treated as the header, same as the CSV path.
func ParseXLSX(path string) ([]domain.InputRow, []domain.RejectedRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("xlsx file %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("xlsx file %s has no header row", path)
	}

	return rowsFromRecords(rows[0], rows[1:])
}
