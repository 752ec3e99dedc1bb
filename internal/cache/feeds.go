package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"npay-compare/internal/compare/model"
)

const keyPrefix = "npay:"

type ItemSource interface {
	FetchItems(ctx context.Context, hospitalIDs []string) ([]model.Item, error)
}

type HospitalSource interface {
	SearchHospitals(ctx context.Context, q model.HospitalQuery) ([]model.Hospital, error)
}

// ItemFeed caches price lists per hospital in front of an ItemSource.
// Cache failures are logged and bypassed; source failures are returned as is.
type ItemFeed struct {
	next  ItemSource
	cache Cache
	ttl   time.Duration
	log   zerolog.Logger
}

func NewItemFeed(next ItemSource, c Cache, ttl time.Duration, logger zerolog.Logger) *ItemFeed {
	return &ItemFeed{next: next, cache: c, ttl: ttl, log: logger}
}

func itemsKey(id string) string { return keyPrefix + "items:" + id }

func (f *ItemFeed) FetchItems(ctx context.Context, hospitalIDs []string) ([]model.Item, error) {
	byHospital := make(map[string][]model.Item, len(hospitalIDs))
	var missing []string
	seen := make(map[string]struct{}, len(hospitalIDs))

	for _, id := range hospitalIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		b, err := f.cache.Get(ctx, itemsKey(id))
		if err != nil {
			if !errors.Is(err, ErrMiss) {
				f.log.Warn().Err(err).Str("ykiho", id).Msg("item cache read failed")
			}
			missing = append(missing, id)
			continue
		}
		var items []model.Item
		if err := json.Unmarshal(b, &items); err != nil {
			missing = append(missing, id)
			continue
		}
		byHospital[id] = items
	}

	if len(missing) > 0 {
		fresh, err := f.next.FetchItems(ctx, missing)
		if err != nil {
			return nil, err
		}
		got := make(map[string][]model.Item, len(missing))
		for _, id := range missing {
			got[id] = []model.Item{}
		}
		for _, it := range fresh {
			got[it.HospitalID] = append(got[it.HospitalID], it)
		}
		for id, items := range got {
			byHospital[id] = items
			b, err := json.Marshal(items)
			if err != nil {
				continue
			}
			if err := f.cache.Set(ctx, itemsKey(id), b, f.ttl); err != nil {
				f.log.Warn().Err(err).Str("ykiho", id).Msg("item cache write failed")
			}
		}
	}

	out := make([]model.Item, 0)
	emitted := make(map[string]struct{}, len(hospitalIDs))
	for _, id := range hospitalIDs {
		if _, ok := emitted[id]; ok {
			continue
		}
		emitted[id] = struct{}{}
		out = append(out, byHospital[id]...)
	}
	return out, nil
}

// HospitalDirectory caches hospital search answers by query.
type HospitalDirectory struct {
	next  HospitalSource
	cache Cache
	ttl   time.Duration
	log   zerolog.Logger
}

func NewHospitalDirectory(next HospitalSource, c Cache, ttl time.Duration, logger zerolog.Logger) *HospitalDirectory {
	return &HospitalDirectory{next: next, cache: c, ttl: ttl, log: logger}
}

func hospitalsKey(q model.HospitalQuery) string {
	return keyPrefix + "hospitals:" + strings.Join([]string{q.Sido, q.Sggu, strings.ToLower(q.Search)}, "|")
}

func (d *HospitalDirectory) SearchHospitals(ctx context.Context, q model.HospitalQuery) ([]model.Hospital, error) {
	key := hospitalsKey(q)
	if b, err := d.cache.Get(ctx, key); err == nil {
		var hs []model.Hospital
		if json.Unmarshal(b, &hs) == nil {
			return hs, nil
		}
	} else if !errors.Is(err, ErrMiss) {
		d.log.Warn().Err(err).Msg("hospital cache read failed")
	}

	hs, err := d.next.SearchHospitals(ctx, q)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(hs); err == nil {
		if err := d.cache.Set(ctx, key, b, d.ttl); err != nil {
			d.log.Warn().Err(err).Msg("hospital cache write failed")
		}
	}
	return hs, nil
}
