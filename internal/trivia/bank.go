package trivia

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wotclan/tanktrivia/internal/catalog"
	"github.com/wotclan/tanktrivia/internal/db/repository"
)

// BankConfig tunes daily question generation.
type BankConfig struct {
	QuestionsPerDay int
	PoolSize        int
	// MaxUniquePages is the sliding window of recently drawn catalog pages
	// excluded from the next draw, to keep questions varied across days.
	MaxUniquePages int
	// RecheckDelay is how long after a generation pass the bank re-invokes
	// itself once, re-syncing any slot that failed to persist.
	RecheckDelay time.Duration
}

// Bank generates and caches the fixed-size daily question set. Generation is
// idempotent per calendar day: when rows already exist for today they are
// loaded instead of regenerated.
type Bank struct {
	cfg       BankConfig
	vehicles  vehicleStore
	questions questionStore
	logger    zerolog.Logger
	now       func() time.Time
	rng       *rand.Rand

	// genMu serializes whole generation passes: the worker tick, the delayed
	// re-sync and any manual EnsureToday may fire concurrently, and both the
	// rng and the check-then-insert per slot need a single writer.
	genMu sync.Mutex

	mu          sync.RWMutex
	day         time.Time
	cache       []DailyQuestion
	recentPages []int
}

func NewBank(cfg BankConfig, vehicles vehicleStore, questions questionStore, logger zerolog.Logger) *Bank {
	if cfg.QuestionsPerDay <= 0 {
		cfg.QuestionsPerDay = 3
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 4
	}
	if cfg.MaxUniquePages <= 0 {
		cfg.MaxUniquePages = 10
	}
	if cfg.RecheckDelay <= 0 {
		cfg.RecheckDelay = 30 * time.Second
	}
	return &Bank{
		cfg:       cfg,
		vehicles:  vehicles,
		questions: questions,
		logger:    logger.With().Str("component", "question_bank").Logger(),
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// EnsureToday makes sure today's questions exist in storage and in the cache.
func (b *Bank) EnsureToday(ctx context.Context) error {
	return b.ensure(ctx, true)
}

// Question returns the cached question for a slot, if the cache covers today
// and the slot is populated.
func (b *Bank) Question(slot int) (DailyQuestion, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.day.Equal(DateOnly(b.now())) {
		return DailyQuestion{}, false
	}
	for _, q := range b.cache {
		if q.Slot == slot {
			return q, true
		}
	}
	return DailyQuestion{}, false
}

// Ready reports whether the cache holds a full question set for today.
func (b *Bank) Ready() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.day.Equal(DateOnly(b.now())) && len(b.cache) == b.cfg.QuestionsPerDay
}

func (b *Bank) ensure(ctx context.Context, resync bool) error {
	b.genMu.Lock()
	defer b.genMu.Unlock()

	today := DateOnly(b.now())

	rows, err := b.questions.ListForDate(ctx, today)
	if err != nil {
		return fmt.Errorf("list today's questions: %w", err)
	}

	existing := make(map[int]bool)
	for _, row := range rows {
		existing[row.Slot] = true
	}

	if len(existing) < b.cfg.QuestionsPerDay {
		b.generate(ctx, today, existing)
		if resync {
			// One delayed self re-invocation tolerates partial persistence
			// failures without crashing anything: slots that made it to
			// storage take the load path, the rest get another attempt.
			time.AfterFunc(b.cfg.RecheckDelay, func() {
				if err := b.ensure(context.Background(), false); err != nil {
					b.logger.Warn().Err(err).Msg("question re-sync failed")
				}
			})
		}
		if rows, err = b.questions.ListForDate(ctx, today); err != nil {
			return fmt.Errorf("reload today's questions: %w", err)
		}
	}

	cache, err := b.build(ctx, rows)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.day = today
	b.cache = cache
	b.mu.Unlock()

	b.logger.Info().Int("slots", len(cache)).Str("date", today.Format("2006-01-02")).Msg("daily questions ready")
	return nil
}

// generate fills the missing slots. Per-slot failures are logged and skipped;
// the re-sync pass picks them up.
func (b *Bank) generate(ctx context.Context, today time.Time, existing map[int]bool) {
	total, err := b.vehicles.Count(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("count vehicles failed")
		return
	}
	pageCount := total / b.cfg.PoolSize
	if pageCount == 0 {
		b.logger.Warn().Int("vehicles", total).Msg("catalog too small to generate questions")
		return
	}

	for slot := 0; slot < b.cfg.QuestionsPerDay; slot++ {
		if existing[slot] {
			continue
		}
		if err := b.generateSlot(ctx, today, slot, pageCount); err != nil {
			b.logger.Warn().Err(err).Int("slot", slot).Msg("slot generation failed, continuing")
			if err := b.questions.DeleteSlot(ctx, today, slot); err != nil {
				b.logger.Warn().Err(err).Int("slot", slot).Msg("slot cleanup failed")
			}
		}
	}
}

func (b *Bank) generateSlot(ctx context.Context, today time.Time, slot, pageCount int) error {
	page := b.drawPage(pageCount)

	pool, err := b.vehicles.Page(ctx, page*b.cfg.PoolSize, b.cfg.PoolSize)
	if err != nil {
		return fmt.Errorf("fetch pool page %d: %w", page, err)
	}
	if len(pool) < b.cfg.PoolSize {
		return fmt.Errorf("page %d holds %d vehicles, need %d", page, len(pool), b.cfg.PoolSize)
	}

	answerIdx := b.rng.Intn(len(pool))
	ammoSlot := b.rng.Intn(catalog.AmmoSlots)

	candidates := make([]repository.QuestionRow, 0, len(pool))
	for i, v := range pool {
		row := repository.QuestionRow{
			ID:     uuid.New(),
			Date:   today,
			Slot:   slot,
			TankID: v.ID,
		}
		if i == answerIdx {
			s := ammoSlot
			row.AmmoSlot = &s
		}
		candidates = append(candidates, row)
	}

	if err := b.questions.InsertSlot(ctx, candidates); err != nil {
		return err
	}
	b.commitPage(page)
	return nil
}

// drawPage picks a page outside the recently-used window, falling back to
// any page once every page is excluded.
func (b *Bank) drawPage(pageCount int) int {
	b.mu.Lock()
	recent := append([]int(nil), b.recentPages...)
	b.mu.Unlock()

	used := make(map[int]bool, len(recent))
	for _, p := range recent {
		used[p] = true
	}

	fresh := make([]int, 0, pageCount)
	for p := 0; p < pageCount; p++ {
		if !used[p] {
			fresh = append(fresh, p)
		}
	}
	if len(fresh) == 0 {
		return b.rng.Intn(pageCount)
	}
	return fresh[b.rng.Intn(len(fresh))]
}

func (b *Bank) commitPage(page int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recentPages = append(b.recentPages, page)
	if len(b.recentPages) > b.cfg.MaxUniquePages {
		b.recentPages = b.recentPages[len(b.recentPages)-b.cfg.MaxUniquePages:]
	}
}

// build reconstructs the in-memory questions from persisted candidate rows.
func (b *Bank) build(ctx context.Context, rows []repository.QuestionRow) ([]DailyQuestion, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]int, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.TankID)
	}
	vehicles, err := b.vehicles.ByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load question vehicles: %w", err)
	}
	byID := make(map[int]catalog.Vehicle, len(vehicles))
	for _, v := range vehicles {
		byID[v.ID] = v
	}

	grouped := make(map[int][]repository.QuestionRow)
	for _, row := range rows {
		grouped[row.Slot] = append(grouped[row.Slot], row)
	}

	var cache []DailyQuestion
	for slot := 0; slot < b.cfg.QuestionsPerDay; slot++ {
		slotRows, ok := grouped[slot]
		if !ok {
			continue
		}
		q := DailyQuestion{Slot: slot}
		for _, row := range slotRows {
			v, known := byID[row.TankID]
			if !known {
				b.logger.Warn().Int("tank_id", row.TankID).Msg("question references unknown tank")
				continue
			}
			q.Pool = append(q.Pool, v)
			if row.AmmoSlot != nil {
				q.Answer = &SelectedAnswer{QuestionID: row.ID, Vehicle: v, AmmoSlot: *row.AmmoSlot}
			}
		}
		cache = append(cache, q)
	}
	return cache, nil
}
