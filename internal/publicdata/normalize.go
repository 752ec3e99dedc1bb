package publicdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"npay-compare/internal/compare/model"
)

// envelope is the common data.go.kr JSON wrapper.
type envelope struct {
	Response struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			Items json.RawMessage `json:"items"`
		} `json:"body"`
	} `json:"response"`
}

func decodeEnvelope(b []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode upstream response: %w", err)
	}
	if code := env.Response.Header.ResultCode; code != "00" {
		return nil, &ResultCodeError{Code: code, Message: env.Response.Header.ResultMsg}
	}
	return &env, nil
}

// decodeRecords flattens the shapes "items" takes in practice: an array, a single
// object, {"item": [...]}, {"item": {...}} or an empty string/null.
func decodeRecords(raw json.RawMessage) ([]map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte(`""`)) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return flattenRecords(v), nil
}

func flattenRecords(v any) []map[string]any {
	switch t := v.(type) {
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, e := range t {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		if inner, ok := t["item"]; ok && len(t) == 1 {
			return flattenRecords(inner)
		}
		return []map[string]any{t}
	default:
		return nil
	}
}

// field returns the first present key as text; upstream names win over legacy ones.
func field(rec map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			return strings.TrimSpace(t), true
		case json.Number:
			return t.String(), true
		case float64:
			return fmt.Sprintf("%v", t), true
		case bool:
			return fmt.Sprintf("%t", t), true
		}
	}
	return "", false
}

func str(rec map[string]any, keys ...string) string {
	s, _ := field(rec, keys...)
	return s
}

func normalizeItem(rec map[string]any) model.Item {
	it := model.Item{
		HospitalID:   str(rec, "ykiho", "org_cd"),
		HospitalName: str(rec, "yadmNm", "org_nm"),
		Name:         str(rec, "npayKorNm", "apc_nm"),
		Code:         str(rec, "npayCd", "apc_cd"),
		Unit:         str(rec, "med_rnk_unit"),
		ReportedAt:   str(rec, "adtFrDd", "rpt_ym"),
	}
	for _, k := range []string{"curAmt", "price"} {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		if n, isNum := v.(json.Number); isNum {
			f, _ := n.Float64()
			it.Price = model.PriceFromFloat(f)
		} else {
			s, _ := field(rec, k)
			it.Price = model.PriceFromString(s)
		}
		break
	}
	return it
}

func normalizeHospital(rec map[string]any) model.Hospital {
	return model.Hospital{
		ID:   str(rec, "ykiho", "org_cd"),
		Name: str(rec, "yadmNm", "org_nm"),
		Sido: str(rec, "sidoCdNm", "si"),
		Sggu: str(rec, "sgguCdNm", "gun"),
	}
}

// NormalizeItems maps a raw "items" payload into Items. Records without a hospital
// id are attributed to fallbackID (the ykiho the request was made for).
func NormalizeItems(raw json.RawMessage, fallbackID string) ([]model.Item, error) {
	recs, err := decodeRecords(raw)
	if err != nil {
		return nil, err
	}
	out := make([]model.Item, 0, len(recs))
	for _, r := range recs {
		it := normalizeItem(r)
		if it.HospitalID == "" {
			it.HospitalID = fallbackID
		}
		out = append(out, it)
	}
	return out, nil
}

func NormalizeHospitals(raw json.RawMessage) ([]model.Hospital, error) {
	recs, err := decodeRecords(raw)
	if err != nil {
		return nil, err
	}
	out := make([]model.Hospital, 0, len(recs))
	for _, r := range recs {
		out = append(out, normalizeHospital(r))
	}
	return out, nil
}
