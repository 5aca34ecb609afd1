package service

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const comparisonSheet = "会場比較"

// ExportMatrix renders m as a single-sheet workbook: category and label
// columns followed by one column per venue.
func ExportMatrix(m *ComparisonMatrix) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(comparisonSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	naStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#999999", Italic: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	_ = f.SetColWidth(comparisonSheet, "A", "A", 18)
	_ = f.SetColWidth(comparisonSheet, "B", "B", 22)
	if len(m.Columns) > 0 {
		first, _ := excelize.ColumnNumberToName(3)
		last, _ := excelize.ColumnNumberToName(2 + len(m.Columns))
		_ = f.SetColWidth(comparisonSheet, first, last, 28)
	}

	header := []interface{}{"カテゴリ", "項目"}
	for _, col := range m.Columns {
		header = append(header, col.Name)
	}
	if err := f.SetSheetRow(comparisonSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(header), 1)
	_ = f.SetCellStyle(comparisonSheet, "A1", lastHeader, headerStyle)

	for i, row := range m.Rows {
		r := i + 2
		values := []interface{}{row.Category, row.Label}
		for _, cell := range row.Values {
			values = append(values, cell.Display)
		}
		start, _ := excelize.CoordinatesToCellName(1, r)
		if err := f.SetSheetRow(comparisonSheet, start, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", r, err)
		}
		for j, cell := range row.Values {
			if cell.IsNA() {
				name, _ := excelize.CoordinatesToCellName(3+j, r)
				_ = f.SetCellStyle(comparisonSheet, name, name, naStyle)
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}
