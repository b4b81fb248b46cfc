package trivia

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// GenerationWorker keeps the daily question set populated: once at startup
// and then on every tick, so the bank rolls over shortly after midnight.
type GenerationWorker struct {
	svc      *Service
	interval time.Duration
	logger   zerolog.Logger
}

func NewGenerationWorker(svc *Service, interval time.Duration, logger zerolog.Logger) *GenerationWorker {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GenerationWorker{
		svc:      svc,
		interval: interval,
		logger:   logger.With().Str("component", "generation_worker").Logger(),
	}
}

// Run blocks until context cancellation. Every iteration is independently
// guarded; a failed pass never takes the worker down.
func (w *GenerationWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *GenerationWorker) tick(ctx context.Context) {
	if err := w.svc.EnsureToday(ctx); err != nil {
		w.logger.Warn().Err(err).Msg("question generation pass failed")
	}
}

// DecayWorker triggers the inactivity decay. The runner's per-day guard makes
// a generous tick interval safe.
type DecayWorker struct {
	svc      *Service
	interval time.Duration
	logger   zerolog.Logger
}

func NewDecayWorker(svc *Service, interval time.Duration, logger zerolog.Logger) *DecayWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &DecayWorker{
		svc:      svc,
		interval: interval,
		logger:   logger.With().Str("component", "decay_worker").Logger(),
	}
}

// Run blocks until context cancellation.
func (w *DecayWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *DecayWorker) tick(ctx context.Context) {
	digest, err := w.svc.ApplyDecay(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("decay pass failed")
		return
	}
	if len(digest) > 0 {
		w.logger.Info().Int("players", len(digest)).Msg("decay digest recorded")
	}
}
