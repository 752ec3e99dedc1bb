package fileio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// readCSV reads CSV with headerRow (1-based), auto-detecting encoding and converting to UTF-8.
// Portal downloads come as EUC-KR/CP949 or UTF-8 (with or without BOM).
func readCSV(r io.Reader, headerRow int) ([]map[string]string, error) {
	br := bufio.NewReader(r)

	// Peek a bit to detect encoding
	peek, _ := br.Peek(4096)
	var dec io.Reader = br
	if bytes.HasPrefix(peek, bom) {
		_, _ = br.Discard(len(bom))
	} else if enc := detectLegacy(peek); enc != nil {
		dec = transform.NewReader(br, enc.NewDecoder())
	}

	cr := csv.NewReader(dec)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	h := pickHeader(rows, headerRow)
	return rowsToMaps(rows, h, headerRow), nil
}

// detectLegacy returns nil for UTF-8 input. Anything else is EUC-KR (CP949) unless
// chardet is confident it is a Latin code page.
func detectLegacy(peek []byte) encoding.Encoding {
	if validUTF8Prefix(peek) {
		return nil
	}
	if det, err := chardet.NewTextDetector().DetectBest(peek); err == nil && det != nil {
		switch strings.ToLower(det.Charset) {
		case "iso-8859-1", "windows-1252":
			if det.Confidence >= 80 {
				return charmap.Windows1252
			}
		}
	}
	return korean.EUCKR
}

// validUTF8Prefix tolerates a rune cut in half at the end of the peek window.
func validUTF8Prefix(b []byte) bool {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return true
		}
		b = b[:len(b)-1]
	}
	return utf8.Valid(b)
}
