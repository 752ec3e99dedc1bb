package export

import (
	"fmt"
	"strconv"

	"npay-compare/internal/compare/model"
)

const (
	colItemName   = "항목명"
	colItemCode   = "항목코드"
	colDifference = "최대가격차"
	colPercent    = "가격차이율(%)"
)

// Header is [item name, item code, <hospital names...>, price difference, difference %].
func Header(res model.Result) []string {
	h := make([]string, 0, len(res.Hospitals)+4)
	h = append(h, colItemName, colItemCode)
	for _, ref := range res.Hospitals {
		h = append(h, ref.Name)
	}
	return append(h, colDifference, colPercent)
}

// Records renders one line per row; hospital prices sit under their own column
// and are blank where the item was not matched.
// Row prices follow res.Hospitals order, so columns are filled by position and a
// repeated hospital id fills each of its columns.
func Records(res model.Result) [][]string {
	out := make([][]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		rec := make([]string, len(res.Hospitals)+4)
		rec[0] = row.ItemName
		rec[1] = row.ItemCode
		next := 0
		for i, ref := range res.Hospitals {
			if next < len(row.Hospitals) && row.Hospitals[next].HospitalID == ref.Code {
				rec[2+i] = formatAmount(row.Hospitals[next].Price)
				next++
			}
		}
		rec[len(rec)-2] = formatAmount(row.PriceDifference)
		rec[len(rec)-1] = fmt.Sprintf("%.2f", row.PriceDifferencePercent)
		out = append(out, rec)
	}
	return out
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
