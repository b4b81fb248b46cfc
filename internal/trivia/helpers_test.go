package trivia

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wotclan/tanktrivia/internal/catalog"
	"github.com/wotclan/tanktrivia/internal/db/repository"
)

func testVehicle(id int, name string, avgDamage int) catalog.Vehicle {
	v := catalog.Vehicle{ID: id, Name: name}
	for i := 0; i < catalog.AmmoSlots; i++ {
		v.Ammo[i] = catalog.Ammo{
			Type:   catalog.AmmoAP,
			Damage: [3]int{avgDamage - 30, avgDamage + 10*i, avgDamage + 50},
		}
	}
	return v
}

type stubAnswerStore struct {
	mu         sync.Mutex
	inserted   []repository.AnswerRecord
	latest     map[uuid.UUID]*repository.AnswerRecord
	perDay     map[uuid.UUID]int
	all        []repository.PlayerAnswer
	failNext   error
	failLatest error
}

func newStubAnswerStore() *stubAnswerStore {
	return &stubAnswerStore{
		latest: make(map[uuid.UUID]*repository.AnswerRecord),
		perDay: make(map[uuid.UUID]int),
	}
}

func (s *stubAnswerStore) Insert(_ context.Context, rec repository.AnswerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	s.inserted = append(s.inserted, rec)
	r := rec
	s.latest[rec.PlayerID] = &r
	return nil
}

func (s *stubAnswerStore) Latest(_ context.Context, playerID uuid.UUID) (*repository.AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[playerID], nil
}

func (s *stubAnswerStore) CountQuestionsForDate(_ context.Context, playerID uuid.UUID, _ time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.perDay[playerID], nil
}

func (s *stubAnswerStore) LatestPerPlayer(_ context.Context) ([]repository.PlayerAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLatest != nil {
		err := s.failLatest
		s.failLatest = nil
		return nil, err
	}
	return s.all, nil
}

func (s *stubAnswerStore) insertedRecords() []repository.AnswerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repository.AnswerRecord(nil), s.inserted...)
}

type stubStreakStore struct {
	mu      sync.Mutex
	streaks map[string]*repository.WinStreak
}

func newStubStreakStore() *stubStreakStore {
	return &stubStreakStore{streaks: make(map[string]*repository.WinStreak)}
}

func (s *stubStreakStore) key(playerID uuid.UUID, month string) string {
	return playerID.String() + ":" + month
}

func (s *stubStreakStore) Get(_ context.Context, playerID uuid.UUID, month string) (*repository.WinStreak, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.streaks[s.key(playerID, month)]; ok {
		copied := *st
		return &copied, nil
	}
	return nil, nil
}

func (s *stubStreakStore) Upsert(_ context.Context, streak repository.WinStreak) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := streak
	s.streaks[s.key(streak.PlayerID, streak.Month)] = &copied
	return nil
}

type stubVehicleStore struct {
	vehicles []catalog.Vehicle
}

func (s *stubVehicleStore) Count(_ context.Context) (int, error) {
	return len(s.vehicles), nil
}

func (s *stubVehicleStore) Page(_ context.Context, offset, limit int) ([]catalog.Vehicle, error) {
	if offset >= len(s.vehicles) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.vehicles) {
		end = len(s.vehicles)
	}
	return s.vehicles[offset:end], nil
}

func (s *stubVehicleStore) ByIDs(_ context.Context, ids []int) ([]catalog.Vehicle, error) {
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []catalog.Vehicle
	for _, v := range s.vehicles {
		if want[v.ID] {
			out = append(out, v)
		}
	}
	return out, nil
}

type stubQuestionStore struct {
	mu       sync.Mutex
	rows     []repository.QuestionRow
	inserts  int
	failSlot int
	failErr  error
}

func (s *stubQuestionStore) ListForDate(_ context.Context, date time.Time) ([]repository.QuestionRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.QuestionRow
	for _, r := range s.rows {
		if r.Date.Equal(date) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubQuestionStore) InsertSlot(_ context.Context, candidates []repository.QuestionRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil && len(candidates) > 0 && candidates[0].Slot == s.failSlot {
		err := s.failErr
		s.failErr = nil
		return err
	}
	s.inserts++
	s.rows = append(s.rows, candidates...)
	return nil
}

func (s *stubQuestionStore) DeleteSlot(_ context.Context, date time.Time, slot int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rows[:0]
	for _, r := range s.rows {
		if !(r.Date.Equal(date) && r.Slot == slot) {
			kept = append(kept, r)
		}
	}
	s.rows = kept
	return nil
}

func (s *stubQuestionStore) insertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts
}

type stubPlayerStore struct {
	mu      sync.Mutex
	players map[string]repository.Player
}

func newStubPlayerStore() *stubPlayerStore {
	return &stubPlayerStore{players: make(map[string]repository.Player)}
}

func (s *stubPlayerStore) GetOrCreate(_ context.Context, name string) (repository.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[name]; ok {
		return p, nil
	}
	p := repository.Player{ID: uuid.New(), Name: name}
	s.players[name] = p
	return p, nil
}

type stubFlags struct {
	disabled map[string]bool
}

func (s *stubFlags) Enabled(_ context.Context, name string) bool {
	if s.disabled == nil {
		return true
	}
	return !s.disabled[name]
}

type stubDecayState struct {
	mu       sync.Mutex
	acquired map[string]bool
	digest   []DecayEntry
	saved    bool
}

func newStubDecayState() *stubDecayState {
	return &stubDecayState{acquired: make(map[string]bool)}
}

func (s *stubDecayState) AcquireRun(_ context.Context, runDate time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := runDate.Format("2006-01-02")
	if s.acquired[key] {
		return false, nil
	}
	s.acquired[key] = true
	return true, nil
}

func (s *stubDecayState) SaveDigest(_ context.Context, _ time.Time, entries []DecayEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = true
	s.digest = append([]DecayEntry(nil), entries...)
	return nil
}

// stubMessenger feeds scripted clicks into the answer window and records
// everything sent back.
type stubMessenger struct {
	mu      sync.Mutex
	clicks  chan Click
	acks    []AckKind
	results []ResultView
	notices []string
	done    chan struct{}
}

func newStubMessenger() *stubMessenger {
	return &stubMessenger{
		clicks: make(chan Click, 8),
		done:   make(chan struct{}),
	}
}

func (m *stubMessenger) SendQuestion(_ context.Context, _ Handle, _ QuestionView) (<-chan Click, func(), error) {
	return m.clicks, func() {}, nil
}

func (m *stubMessenger) ClickAck(_ context.Context, _ Click, ack AckKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acks = append(m.acks, ack)
}

func (m *stubMessenger) SendResult(_ context.Context, _ Handle, view ResultView) error {
	m.mu.Lock()
	m.results = append(m.results, view)
	m.mu.Unlock()
	close(m.done)
	return nil
}

func (m *stubMessenger) Notify(_ context.Context, _ Handle, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, text)
}

func (m *stubMessenger) lastResult() (ResultView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.results) == 0 {
		return ResultView{}, false
	}
	return m.results[len(m.results)-1], true
}
