package publicdata

import (
	"context"

	"github.com/rs/zerolog"

	"npay-compare/internal/compare/model"
)

type ItemSource interface {
	FetchItems(ctx context.Context, hospitalIDs []string) ([]model.Item, error)
}

// SampleFallback substitutes SampleItems for each hospital whose fetch failed.
// Development only. It must wrap any cache, never sit beneath one, so that
// sample prices are never stored under a real hospital key.
type SampleFallback struct {
	next ItemSource
	log  zerolog.Logger
}

func NewSampleFallback(next ItemSource, logger zerolog.Logger) *SampleFallback {
	return &SampleFallback{next: next, log: logger.With().Str("component", "sample_fallback").Logger()}
}

func (f *SampleFallback) FetchItems(ctx context.Context, hospitalIDs []string) ([]model.Item, error) {
	all := make([]model.Item, 0)
	for _, id := range hospitalIDs {
		items, err := f.next.FetchItems(ctx, []string{id})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.log.Warn().Err(err).Str("ykiho", id).Msg("item fetch failed, using sample items")
			all = append(all, SampleItems(id)...)
			continue
		}
		all = append(all, items...)
	}
	return all, nil
}
