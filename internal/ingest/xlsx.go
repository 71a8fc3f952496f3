package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/groundwater-hmpi-service/internal/domain"
)

// ReadXLSX reads the first worksheet of an OOXML workbook. The first row is
// the header. Cell values are taken raw, without number formatting.
func ReadXLSX(r io.Reader) ([]domain.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []domain.RawRow{}, nil
	}

	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return []domain.RawRow{}, nil
	}

	header := records[0]
	rows := make([]domain.RawRow, 0, len(records)-1)
	for _, record := range records[1:] {
		if row := buildRow(header, record); row != nil {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
