package model

import (
	"bytes"
	"encoding/json"
	"strconv"

	"npay-compare/internal/utils"
)

// Price is an upstream amount that may arrive as a JSON number or as a
// comma-formatted string ("500,000").
type Price struct {
	raw     string
	numeric bool
}

func PriceFromFloat(f float64) Price {
	return Price{raw: strconv.FormatFloat(f, 'f', -1, 64), numeric: true}
}

func PriceFromString(s string) Price { return Price{raw: s} }

// Float returns the numeric value; absent or unparseable prices are 0.
func (p Price) Float() float64 {
	if p.numeric {
		f, err := strconv.ParseFloat(p.raw, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return utils.PriceOrZero(p.raw)
}

func (p Price) IsZero() bool { return p.raw == "" }

func (p Price) String() string { return p.raw }

func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*p = Price{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = Price{raw: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*p = Price{raw: n.String(), numeric: true}
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	if p.raw == "" {
		return []byte("null"), nil
	}
	if p.numeric {
		return []byte(p.raw), nil
	}
	return json.Marshal(p.raw)
}

// Item is one non-covered price line of one hospital.
type Item struct {
	HospitalID   string `json:"org_cd"`
	HospitalName string `json:"org_nm"`
	Code         string `json:"apc_cd"`
	Name         string `json:"apc_nm"`
	Price        Price  `json:"price"`
	Unit         string `json:"med_rnk_unit,omitempty"`
	ReportedAt   string `json:"rpt_ym,omitempty"`
}

type Hospital struct {
	ID   string `json:"org_cd"`
	Name string `json:"org_nm"`
	Sido string `json:"si"`
	Sggu string `json:"gun"`
}

// HospitalQuery filters the hospital directory (sidoCd, sgguCd, yadmNm upstream).
type HospitalQuery struct {
	Sido   string
	Sggu   string
	Search string
}

// ItemGroup maps hospital id to its items in arrival order.
type ItemGroup map[string][]Item

type HospitalPrice struct {
	HospitalID string  `json:"code"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Unit       string  `json:"unit,omitempty"`
}

type ComparisonRow struct {
	ItemName               string          `json:"item_name"`
	ItemCode               string          `json:"item_code"`
	Hospitals              []HospitalPrice `json:"hospitals"`
	PriceDifference        float64         `json:"price_difference"`
	PriceDifferencePercent float64         `json:"price_difference_percentage"`
}

type HospitalRef struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Result struct {
	Rows         []ComparisonRow `json:"results"`
	TotalResults int             `json:"totalResults"`
	Hospitals    []HospitalRef   `json:"hospitals"`
}
