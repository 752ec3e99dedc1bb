package publicdata

import "npay-compare/internal/compare/model"

// SampleItems is the development stand-in for a hospital whose price list could not be fetched.
func SampleItems(ykiho string) []model.Item {
	return []model.Item{
		{
			HospitalID:   ykiho,
			HospitalName: "샘플병원",
			Name:         "MRI 진단료",
			Code:         "HE1180000",
			Price:        model.PriceFromFloat(500000),
			Unit:         "1회",
		},
		{
			HospitalID:   ykiho,
			HospitalName: "샘플병원",
			Name:         "CT 진단료",
			Code:         "HE1190000",
			Price:        model.PriceFromFloat(300000),
			Unit:         "1회",
		},
	}
}
