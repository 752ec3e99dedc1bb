package cache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"npay-compare/internal/compare/model"
	"npay-compare/internal/publicdata"
)

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	b, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(b))

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	_, err = c.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemory_NoTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	_, err := c.Get(ctx, "k")
	assert.NoError(t, err)
}

type countingSource struct {
	calls [][]string
	items []model.Item
	err   error
}

func (s *countingSource) FetchItems(_ context.Context, ids []string) ([]model.Item, error) {
	s.calls = append(s.calls, ids)
	if s.err != nil {
		return nil, s.err
	}
	var out []model.Item
	for _, it := range s.items {
		for _, id := range ids {
			if it.HospitalID == id {
				out = append(out, it)
			}
		}
	}
	return out, nil
}

func TestItemFeed_CachesPerHospital(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{items: []model.Item{
		{HospitalID: "H1", Code: "A", Name: "a", Price: model.PriceFromString("1,000")},
		{HospitalID: "H2", Code: "A", Name: "a", Price: model.PriceFromFloat(1200)},
	}}
	feed := NewItemFeed(src, NewMemory(), time.Hour, zerolog.Nop())

	items, err := feed.FetchItems(ctx, []string{"H1", "H2"})
	require.NoError(t, err)
	require.Len(t, items, 2)

	items, err = feed.FetchItems(ctx, []string{"H2", "H3", "H1"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "H2", items[0].HospitalID)
	assert.Equal(t, 1000.0, items[1].Price.Float())

	require.Len(t, src.calls, 2)
	assert.Equal(t, []string{"H3"}, src.calls[1])

	// H3 had no items; the empty answer is cached too
	_, err = feed.FetchItems(ctx, []string{"H3"})
	require.NoError(t, err)
	assert.Len(t, src.calls, 2)
}

func TestItemFeed_SourceErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	feed := NewItemFeed(&countingSource{err: boom}, NewMemory(), time.Hour, zerolog.Nop())
	_, err := feed.FetchItems(context.Background(), []string{"H1"})
	assert.ErrorIs(t, err, boom)
}

func TestItemFeed_SampleItemsNotCached(t *testing.T) {
	var down atomic.Bool
	down.Store(true)
	portal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, `{"response":{"header":{"resultCode":"00"},"body":{"items":{"item":{"npayCd":"R1","npayKorNm":"MRI","curAmt":"480000"}}}}}`)
	}))
	defer portal.Close()

	ctx := context.Background()
	client := publicdata.NewClient(publicdata.Config{APIKey: "k", BaseURL: portal.URL}, zerolog.Nop())
	feed := publicdata.NewSampleFallback(NewItemFeed(client, NewMemory(), time.Hour, zerolog.Nop()), zerolog.Nop())

	items, err := feed.FetchItems(ctx, []string{"H1"})
	require.NoError(t, err)
	require.NotEmpty(t, items)
	assert.Equal(t, publicdata.SampleItems("H1")[0].Code, items[0].Code)

	down.Store(false)
	items, err = feed.FetchItems(ctx, []string{"H1"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "R1", items[0].Code)
	assert.Equal(t, "H1", items[0].HospitalID)
	assert.Equal(t, 480000.0, items[0].Price.Float())
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, error) { return nil, errors.New("conn refused") }
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("conn refused")
}

func TestItemFeed_BrokenCacheBypassed(t *testing.T) {
	src := &countingSource{items: []model.Item{{HospitalID: "H1", Code: "A"}}}
	feed := NewItemFeed(src, brokenCache{}, time.Hour, zerolog.Nop())
	items, err := feed.FetchItems(context.Background(), []string{"H1"})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

type hospitalSource struct{ calls int }

func (s *hospitalSource) SearchHospitals(_ context.Context, q model.HospitalQuery) ([]model.Hospital, error) {
	s.calls++
	return []model.Hospital{{ID: "H1", Name: "서울병원", Sido: q.Sido}}, nil
}

func TestHospitalDirectory_Caches(t *testing.T) {
	ctx := context.Background()
	src := &hospitalSource{}
	dir := NewHospitalDirectory(src, NewMemory(), time.Minute, zerolog.Nop())

	q := model.HospitalQuery{Sido: "110000", Search: "서울"}
	hs, err := dir.SearchHospitals(ctx, q)
	require.NoError(t, err)
	require.Len(t, hs, 1)

	hs, err = dir.SearchHospitals(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "110000", hs[0].Sido)
	assert.Equal(t, 1, src.calls)

	_, err = dir.SearchHospitals(ctx, model.HospitalQuery{Sido: "260000"})
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}
