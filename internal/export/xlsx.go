package export

import (
	"io"
	"strconv"

	excelize "github.com/xuri/excelize/v2"

	"npay-compare/internal/compare/model"
)

const SheetName = "비교결과"

// WriteXLSX writes the same table as WriteCSV into a single-sheet workbook,
// keeping numeric cells numeric.
func WriteXLSX(w io.Writer, res model.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}

	header := Header(res)
	if err := setRow(f, 1, toCells(header)); err != nil {
		return err
	}

	for i, rec := range Records(res) {
		cells := make([]interface{}, len(rec))
		for j, v := range rec {
			if j < 2 || v == "" {
				cells[j] = v
				continue
			}
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				cells[j] = n
			} else {
				cells[j] = v
			}
		}
		if err := setRow(f, i+2, cells); err != nil {
			return err
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}

func setRow(f *excelize.File, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(SheetName, cell, &cells)
}

func toCells(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
