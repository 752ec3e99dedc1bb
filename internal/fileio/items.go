package fileio

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"npay-compare/internal/compare/model"
)

// ItemMapping names the dataset columns. Each entry may list alternatives separated by "|".
type ItemMapping struct {
	HospitalIDKey   string
	HospitalNameKey string
	CodeKey         string
	NameKey         string
	PriceKey        string
	UnitKey         string
}

// DefaultItemMapping covers the portal's Korean file headers and the API field names.
var DefaultItemMapping = ItemMapping{
	HospitalIDKey:   "암호화요양기호|요양기관기호|ykiho|org_cd",
	HospitalNameKey: "요양기관명|yadmNm|org_nm",
	CodeKey:         "비급여코드|항목코드|npayCd|apc_cd",
	NameKey:         "비급여명|항목명|npayKorNm|apc_nm",
	PriceKey:        "금액|curAmt|price",
	UnitKey:         "단위|med_rnk_unit",
}

var rxNonWord = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// normHeaderKey: lower case, punctuation and repeated spaces collapsed.
func normHeaderKey(s string) string {
	s = strings.ToLower(normalizeCell(s))
	s = rxNonWord.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// resolveKey finds the real header for the wanted name: as-is first, then normalized,
// then the longest containment either way.
func resolveKey(rec map[string]string, want string) string {
	want = strings.TrimSpace(want)
	if want == "" {
		return ""
	}
	alts := strings.Split(want, "|")
	for i := range alts {
		alts[i] = strings.TrimSpace(alts[i])
	}

	for _, a := range alts {
		if _, ok := rec[a]; ok {
			return a
		}
	}

	nAlts := make([]string, 0, len(alts))
	for _, a := range alts {
		if n := normHeaderKey(a); n != "" {
			nAlts = append(nAlts, n)
		}
	}

	bestKey := ""
	bestScore := 0
	for k := range rec {
		nk := normHeaderKey(k)
		if nk == "" {
			continue
		}
		for _, n := range nAlts {
			if nk == n {
				return k
			}
		}
		score := 0
		for _, n := range nAlts {
			if strings.Contains(nk, n) || strings.Contains(n, nk) {
				score = max(score, len(n))
			}
		}
		// ties break on the header name so map order does not leak
		if score > bestScore || (score == bestScore && score > 0 && k < bestKey) {
			bestScore, bestKey = score, k
		}
	}
	return bestKey
}

// ItemsFromMaps maps dataset rows to Items. Rows without an item name are skipped.
func ItemsFromMaps(maps []map[string]string, m ItemMapping) []model.Item {
	items := make([]model.Item, 0, len(maps))
	if len(maps) == 0 {
		return items
	}
	first := maps[0]
	idKey := resolveKey(first, m.HospitalIDKey)
	hnKey := resolveKey(first, m.HospitalNameKey)
	codeKey := resolveKey(first, m.CodeKey)
	nameKey := resolveKey(first, m.NameKey)
	priceKey := resolveKey(first, m.PriceKey)
	unitKey := resolveKey(first, m.UnitKey)

	for _, rec := range maps {
		name := strings.TrimSpace(rec[nameKey])
		if nameKey == "" || name == "" {
			continue
		}
		items = append(items, model.Item{
			HospitalID:   lookup(rec, idKey),
			HospitalName: lookup(rec, hnKey),
			Code:         lookup(rec, codeKey),
			Name:         name,
			Price:        model.PriceFromString(lookup(rec, priceKey)),
			Unit:         lookup(rec, unitKey),
		})
	}
	return items
}

func lookup(rec map[string]string, key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimSpace(rec[key])
}

// FileFeed serves items loaded from a dataset file.
type FileFeed struct {
	items []model.Item
}

func NewFileFeed(items []model.Item) *FileFeed {
	return &FileFeed{items: items}
}

// LoadFeed reads a .csv/.xls/.xlsx dataset from disk.
func LoadFeed(path string, headerRow int, m ItemMapping) (*FileFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	maps, err := ReadAnyMaps(f, path, headerRow)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return NewFileFeed(ItemsFromMaps(maps, m)), nil
}

func (f *FileFeed) Len() int { return len(f.items) }

// FetchItems returns the items of the requested hospitals in file order.
func (f *FileFeed) FetchItems(_ context.Context, hospitalIDs []string) ([]model.Item, error) {
	want := make(map[string]struct{}, len(hospitalIDs))
	for _, id := range hospitalIDs {
		want[id] = struct{}{}
	}
	out := make([]model.Item, 0)
	for _, it := range f.items {
		if _, ok := want[it.HospitalID]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}
