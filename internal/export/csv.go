package export

import (
	"encoding/csv"
	"io"

	"npay-compare/internal/compare/model"
)

// utf8BOM makes Excel open the Korean headers correctly.
const utf8BOM = "\uFEFF"

func WriteCSV(w io.Writer, res model.Result) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(res)); err != nil {
		return err
	}
	if err := cw.WriteAll(Records(res)); err != nil {
		return err
	}
	return cw.Error()
}
