package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Excel renders t as a single-sheet workbook: title row, header row, data
// rows and an optional bold totals row. Numbers stay numeric cells.
func Excel(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Sheet
	if sheet == "" {
		sheet = "Rapor"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
		Alignment: &excelize.Alignment{Horizontal: "center", WrapText: true},
	})
	if err != nil {
		return nil, err
	}

	last, err := excelize.ColumnNumberToName(max(len(t.Headers), 1))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellValue(sheet, "A1", t.Title); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", bold); err != nil {
		return nil, err
	}

	if err := setRow(f, sheet, 2, toAny(t.Headers)); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A2", fmt.Sprintf("%s2", last), header); err != nil {
		return nil, err
	}

	n := 3
	for _, row := range t.Rows {
		if err := setRow(f, sheet, n, row); err != nil {
			return nil, err
		}
		n++
	}
	if t.Footer != nil {
		if err := setRow(f, sheet, n, t.Footer); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", n), fmt.Sprintf("%s%d", last, n), bold); err != nil {
			return nil, err
		}
	}

	for i, w := range t.Widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, col, col, float64(4+w*5)); err != nil {
			return nil, err
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      2,
		TopLeftCell: "A3",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, n int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
