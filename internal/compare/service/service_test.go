package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"npay-compare/internal/compare/model"
)

func TestCompare_ExactCodeScenario(t *testing.T) {
	items := []model.Item{
		item("H1", "A1", "MRI 진단료", 500000),
		item("H2", "A1", "MRI", 450000),
	}
	res, err := Compare(items, []string{"H1", "H2"}, []string{"서울병원", "부산병원"})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 1, res.TotalResults)

	row := res.Rows[0]
	assert.Equal(t, "MRI 진단료", row.ItemName)
	assert.Equal(t, "A1", row.ItemCode)
	require.Len(t, row.Hospitals, 2)
	assert.Equal(t, "서울병원", row.Hospitals[0].Name)
	assert.Equal(t, "부산병원", row.Hospitals[1].Name)
	assert.Equal(t, 50000.0, row.PriceDifference)
	assert.InDelta(t, 11.11, row.PriceDifferencePercent, 0.01)
}

func TestCompare_NoMatchRowDropped(t *testing.T) {
	items := []model.Item{
		item("H1", "A2", "CT 진단료", 300000),
		item("H1", "A1", "MRI 진단료", 500000),
		item("H2", "Z9", "CT진단료", 300000),
		item("H2", "A1", "MRI", 400000),
	}
	res, err := Compare(items, []string{"H1", "H2"}, nil)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "A1", res.Rows[0].ItemCode)
	for _, r := range res.Rows {
		assert.GreaterOrEqual(t, len(r.Hospitals), 2)
	}
}

func TestCompare_TooFewHospitals(t *testing.T) {
	for _, ids := range [][]string{nil, {"H1"}} {
		_, err := Compare([]model.Item{item("H1", "A1", "MRI", 1)}, ids, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTooFewHospitals)
		var ie *InputError
		assert.True(t, errors.As(err, &ie))
	}
}

func TestCompare_NameFallsBackToID(t *testing.T) {
	items := []model.Item{item("H1", "A1", "MRI", 100), item("H2", "A1", "MRI", 200), item("H3", "A1", "MRI", 300)}
	res, err := Compare(items, []string{"H1", "H2", "H3"}, []string{"첫째", ""})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	names := []string{}
	for _, h := range res.Rows[0].Hospitals {
		names = append(names, h.Name)
	}
	assert.Equal(t, []string{"첫째", "H2", "H3"}, names)
	assert.Equal(t, []model.HospitalRef{
		{Code: "H1", Name: "첫째"},
		{Code: "H2", Name: "H2"},
		{Code: "H3", Name: "H3"},
	}, res.Hospitals)
	assert.Equal(t, 200.0, res.Rows[0].PriceDifference)
	assert.InDelta(t, 200.0, res.Rows[0].PriceDifferencePercent, 1e-9)
}

func TestCompare_MissingHospitalOmitted(t *testing.T) {
	items := []model.Item{item("H1", "A1", "MRI", 100), item("H3", "A1", "MRI", 150)}
	res, err := Compare(items, []string{"H1", "H2", "H3"}, nil)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	hs := res.Rows[0].Hospitals
	require.Len(t, hs, 2)
	assert.Equal(t, "H1", hs[0].HospitalID)
	assert.Equal(t, "H3", hs[1].HospitalID)
}

func TestCompare_DuplicateReferenceItemsSkipped(t *testing.T) {
	items := []model.Item{
		item("H1", "A1", "MRI", 100),
		item("H1", "A1", "MRI", 999),
		item("H1", "A1", "MRI 조영제", 120),
		item("H2", "A1", "MRI", 200),
	}
	res, err := Compare(items, []string{"H1", "H2"}, nil)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	for _, r := range res.Rows {
		assert.NotEqual(t, 999.0, r.Hospitals[0].Price)
	}
}

func TestCompare_SortedDescStable(t *testing.T) {
	items := []model.Item{
		item("H1", "A", "a", 100),
		item("H1", "B", "b", 100),
		item("H1", "C", "c", 100),
		item("H1", "D", "d", 100),
		item("H2", "A", "a", 110), // 10%
		item("H2", "B", "b", 150), // 50%
		item("H2", "C", "c", 110), // 10%
		item("H2", "D", "d", 100), // 0%
	}
	res, err := Compare(items, []string{"H1", "H2"}, nil)
	require.NoError(t, err)
	codes := []string{}
	for _, r := range res.Rows {
		codes = append(codes, r.ItemCode)
	}
	assert.Equal(t, []string{"B", "A", "C", "D"}, codes)
}

func TestCompare_ZeroMinPrice(t *testing.T) {
	items := []model.Item{
		{HospitalID: "H1", Code: "A", Name: "a", Price: model.PriceFromString("문의")},
		item("H2", "A", "a", 5000),
	}
	res, err := Compare(items, []string{"H1", "H2"}, nil)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 0.0, res.Rows[0].Hospitals[0].Price)
	assert.Equal(t, 5000.0, res.Rows[0].PriceDifference)
	assert.Equal(t, 0.0, res.Rows[0].PriceDifferencePercent)
}

func TestCompare_CommaFormattedPrice(t *testing.T) {
	items := []model.Item{
		{HospitalID: "H1", Code: "A", Name: "a", Price: model.PriceFromString("1,000")},
		{HospitalID: "H2", Code: "A", Name: "a", Price: model.PriceFromString("1,500")},
	}
	res, err := Compare(items, []string{"H1", "H2"}, nil)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 500.0, res.Rows[0].PriceDifference)
	assert.InDelta(t, 50.0, res.Rows[0].PriceDifferencePercent, 1e-9)
}

func TestCompare_EmptyReferenceHospital(t *testing.T) {
	res, err := Compare([]model.Item{item("H2", "A", "a", 1)}, []string{"H1", "H2"}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Equal(t, 0, res.TotalResults)
}

type fakeFeed struct {
	items []model.Item
	err   error
	calls int
}

func (f *fakeFeed) FetchItems(_ context.Context, _ []string) ([]model.Item, error) {
	f.calls++
	return f.items, f.err
}

type statusErr struct{ code int }

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", e.code) }
func (e statusErr) StatusCode() int { return e.code }

func TestService_Compare(t *testing.T) {
	feed := &fakeFeed{items: []model.Item{item("H1", "A1", "MRI", 100), item("H2", "A1", "MRI", 120)}}
	svc := NewService(feed, zerolog.Nop())

	res, err := svc.Compare(context.Background(), []string{"H1", "H2"}, []string{"가", "나"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalResults)
	assert.Equal(t, 1, feed.calls)
}

func TestService_PreconditionBeforeFetch(t *testing.T) {
	feed := &fakeFeed{}
	svc := NewService(feed, zerolog.Nop())
	_, err := svc.Compare(context.Background(), []string{"H1"}, nil)
	assert.ErrorIs(t, err, ErrTooFewHospitals)
	assert.Equal(t, 0, feed.calls)
}

func TestService_FeedFailureAborts(t *testing.T) {
	feed := &fakeFeed{err: fmt.Errorf("get items: %w", statusErr{code: 503})}
	svc := NewService(feed, zerolog.Nop())
	_, err := svc.Compare(context.Background(), []string{"H1", "H2"}, nil)

	var fe *FeedError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 503, fe.Status)
	assert.Contains(t, err.Error(), "503")

	feed.err = errors.New("dial tcp: timeout")
	_, err = svc.Compare(context.Background(), []string{"H1", "H2"}, nil)
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 0, fe.Status)
}

func TestService_WithMatcher(t *testing.T) {
	feed := &fakeFeed{items: []model.Item{item("H1", "A2", "CT 진단료", 300000), item("H2", "Z9", "CT진단료", 330000)}}
	svc := NewService(feed, zerolog.Nop())

	res, err := svc.Compare(context.Background(), []string{"H1", "H2"}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Rows)

	res, err = svc.WithMatcher(Matcher{Threshold: 0.3, Weights: DefaultWeights}).Compare(context.Background(), []string{"H1", "H2"}, nil)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 1)
}
