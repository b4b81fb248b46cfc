package catalog

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Source provides fresh vehicle data, typically the Wargaming encyclopedia.
type Source interface {
	FetchAll(ctx context.Context) ([]Vehicle, error)
}

// Store persists refreshed vehicles.
type Store interface {
	Count(ctx context.Context) (int, error)
	Upsert(ctx context.Context, vehicles []Vehicle) error
}

// Refresher periodically re-seeds the tanks table from the external API.
type Refresher struct {
	source   Source
	store    Store
	interval time.Duration
	logger   zerolog.Logger
}

func NewRefresher(source Source, store Store, interval time.Duration, logger zerolog.Logger) *Refresher {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Refresher{
		source:   source,
		store:    store,
		interval: interval,
		logger:   logger.With().Str("component", "catalog_refresher").Logger(),
	}
}

// Run blocks until context cancellation. The startup pass only fetches when
// the catalog is empty, so restarts stay cheap.
func (r *Refresher) Run(ctx context.Context) error {
	if r.source == nil {
		r.logger.Info().Msg("no vehicle source configured, refresher idle")
		<-ctx.Done()
		return ctx.Err()
	}

	count, err := r.store.Count(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("catalog count failed")
	} else if count == 0 {
		r.refresh(ctx)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	vehicles, err := r.source.FetchAll(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("catalog fetch failed")
		return
	}
	if err := r.store.Upsert(ctx, vehicles); err != nil {
		r.logger.Warn().Err(err).Msg("catalog upsert failed")
		return
	}
	r.logger.Info().Int("vehicles", len(vehicles)).Msg("catalog refreshed")
}
