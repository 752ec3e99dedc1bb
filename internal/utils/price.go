package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var rxLeadingNumber = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)`)

// ParsePrice parses portal amounts such as "500,000", " 12 000 ", "45000원" or "1,234.5".
// Commas are thousands separators here, never decimal marks. Anything that does not start
// with a number yields (0, false).
func ParsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	// thousands separators and spaces, NBSP/NNBSP included
	repl := strings.NewReplacer(",", "", " ", "", "\u00A0", "", "\u202F", "", "\t", "")
	s = repl.Replace(s)

	num := rxLeadingNumber.FindString(s)
	if num == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// PriceOrZero is ParsePrice with the failure case collapsed to 0.
func PriceOrZero(s string) float64 {
	f, _ := ParsePrice(s)
	return f
}
