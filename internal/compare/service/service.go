package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"npay-compare/internal/compare/model"
)

// ItemFeed returns the non-covered items of the given hospitals in one batch.
type ItemFeed interface {
	FetchItems(ctx context.Context, hospitalIDs []string) ([]model.Item, error)
}

// GroupByHospital buckets items by hospital id, keeping arrival order.
func GroupByHospital(items []model.Item) model.ItemGroup {
	g := make(model.ItemGroup)
	for _, it := range items {
		g[it.HospitalID] = append(g[it.HospitalID], it)
	}
	return g
}

// Compare runs the comparison with DefaultMatcher.
func Compare(items []model.Item, hospitalIDs, hospitalNames []string) (model.Result, error) {
	return DefaultMatcher.Compare(items, hospitalIDs, hospitalNames)
}

// Compare aligns the first hospital's items against every other hospital and
// ranks the rows by relative price spread.
func (m Matcher) Compare(items []model.Item, hospitalIDs, hospitalNames []string) (model.Result, error) {
	if len(hospitalIDs) < 2 {
		return model.Result{}, &InputError{Err: ErrTooFewHospitals}
	}

	groups := GroupByHospital(items)
	refs := hospitalRefs(hospitalIDs, hospitalNames)

	seen := make(map[string]struct{})
	rows := make([]model.ComparisonRow, 0)

	for _, base := range groups[hospitalIDs[0]] {
		key := base.Code + "\x00" + base.Name
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		row := model.ComparisonRow{ItemName: base.Name, ItemCode: base.Code}
		for i, id := range hospitalIDs {
			matched := base
			if i > 0 {
				mt, ok := m.Match(base, groups[id])
				if !ok {
					continue
				}
				matched = mt.Item
			}
			row.Hospitals = append(row.Hospitals, model.HospitalPrice{
				HospitalID: id,
				Name:       refs[i].Name,
				Price:      matched.Price.Float(),
				Unit:       matched.Unit,
			})
		}

		if len(row.Hospitals) < 2 {
			continue
		}
		row.PriceDifference, row.PriceDifferencePercent = priceSpread(row.Hospitals)
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].PriceDifferencePercent > rows[j].PriceDifferencePercent
	})

	return model.Result{Rows: rows, TotalResults: len(rows), Hospitals: refs}, nil
}

func priceSpread(hs []model.HospitalPrice) (diff, pct float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, h := range hs {
		lo = math.Min(lo, h.Price)
		hi = math.Max(hi, h.Price)
	}
	diff = hi - lo
	if lo > 0 {
		pct = diff / lo * 100
	}
	return diff, pct
}

func hospitalRefs(ids, names []string) []model.HospitalRef {
	out := make([]model.HospitalRef, len(ids))
	for i, id := range ids {
		name := id
		if i < len(names) && strings.TrimSpace(names[i]) != "" {
			name = names[i]
		}
		out[i] = model.HospitalRef{Code: id, Name: name}
	}
	return out
}

// Service fetches the item feed once per request and runs the comparison over it.
type Service struct {
	feed    ItemFeed
	matcher Matcher
	log     zerolog.Logger
}

func NewService(feed ItemFeed, logger zerolog.Logger) *Service {
	return &Service{feed: feed, matcher: DefaultMatcher, log: logger}
}

// WithMatcher returns a copy using a custom threshold/weights.
func (s *Service) WithMatcher(m Matcher) *Service {
	cp := *s
	cp.matcher = m
	return &cp
}

func (s *Service) Compare(ctx context.Context, hospitalIDs, hospitalNames []string) (model.Result, error) {
	if len(hospitalIDs) < 2 {
		return model.Result{}, &InputError{Err: ErrTooFewHospitals}
	}
	start := time.Now()

	items, err := s.feed.FetchItems(ctx, hospitalIDs)
	if err != nil {
		fe := newFeedError(err)
		s.log.Error().Err(err).Int("upstream_status", fe.Status).Strs("hospitals", hospitalIDs).Msg("item feed failed")
		return model.Result{}, fe
	}

	res, err := s.matcher.Compare(items, hospitalIDs, hospitalNames)
	if err != nil {
		return model.Result{}, err
	}

	s.log.Info().
		Int("hospitals", len(hospitalIDs)).
		Int("items", len(items)).
		Int("rows", res.TotalResults).
		Dur("elapsed", time.Since(start)).
		Msg("compare done")
	return res, nil
}
