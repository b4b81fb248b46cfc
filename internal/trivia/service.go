package trivia

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig groups the gameplay constants the service needs directly.
type ServiceConfig struct {
	QuestionsPerDay  int
	PoolSize         int
	QuestionDuration time.Duration
	FlagName         string
}

// Service is the trivia engine facade: it composes the question bank,
// session manager, collector, scoring engine and decay runner, and exposes
// the combined public operations. Constructed once at process start; no
// hidden global state.
type Service struct {
	cfg       ServiceConfig
	bank      *Bank
	sessions  *SessionManager
	scoring   *ScoringEngine
	decay     *DecayRunner
	players   playerStore
	answers   answerStore
	flags     featureFlags
	messenger Messenger
	logger    zerolog.Logger
	now       func() time.Time

	// sessionCtx outlives individual interactions but not the process; its
	// cancellation is the shutdown path of every open answer window.
	sessionCtx   context.Context
	stopSessions context.CancelFunc
}

func NewService(
	cfg ServiceConfig,
	bank *Bank,
	sessions *SessionManager,
	scoring *ScoringEngine,
	decay *DecayRunner,
	players playerStore,
	answers answerStore,
	flags featureFlags,
	messenger Messenger,
	logger zerolog.Logger,
) *Service {
	if cfg.QuestionsPerDay <= 0 {
		cfg.QuestionsPerDay = 3
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 4
	}
	if cfg.QuestionDuration <= 0 {
		cfg.QuestionDuration = 30 * time.Second
	}
	if cfg.FlagName == "" {
		cfg.FlagName = "trivia"
	}
	sessionCtx, stopSessions := context.WithCancel(context.Background())
	return &Service{
		cfg:       cfg,
		bank:      bank,
		sessions:  sessions,
		scoring:   scoring,
		decay:     decay,
		players:   players,
		answers:   answers,
		flags:     flags,
		messenger: messenger,
		logger:    logger.With().Str("component", "trivia").Logger(),
		now:       time.Now,

		sessionCtx:   sessionCtx,
		stopSessions: stopSessions,
	}
}

// Shutdown ends every open answer window early; each in-flight session
// finalizes with whatever answer was recorded at that point.
func (s *Service) Shutdown() {
	s.stopSessions()
}

// EnsureToday delegates to the question bank.
func (s *Service) EnsureToday(ctx context.Context) error {
	return s.bank.EnsureToday(ctx)
}

// ApplyDecay delegates to the decay runner.
func (s *Service) ApplyDecay(ctx context.Context) ([]DecayEntry, error) {
	digest, err := s.decay.Run(ctx)
	if err == nil {
		metricDecayApplied.Add(float64(len(digest)))
	}
	return digest, err
}

// Play opens a session for the player and runs the question asynchronously.
// Expected rejections come back as ErrDisabled, ErrDailyLimitReached,
// ErrAlreadyPlaying or ErrDataUnavailable; the caller maps them to ephemeral
// notices. On success the answer window is already running.
func (s *Service) Play(ctx context.Context, playerName string, handle Handle) error {
	if !s.flags.Enabled(ctx, s.cfg.FlagName) {
		metricRejections.WithLabelValues("disabled").Inc()
		return ErrDisabled
	}

	player, err := s.players.GetOrCreate(ctx, playerName)
	if err != nil {
		return fmt.Errorf("resolve player: %w", err)
	}

	today := DateOnly(s.now())
	answered, err := s.answers.CountQuestionsForDate(ctx, player.ID, today)
	if err != nil {
		return fmt.Errorf("count today's answers: %w", err)
	}
	if answered >= s.cfg.QuestionsPerDay {
		metricRejections.WithLabelValues("daily_limit").Inc()
		return ErrDailyLimitReached
	}

	question, ok := s.bank.Question(answered)
	if !ok || len(question.Pool) < s.cfg.PoolSize || question.Answer == nil {
		metricRejections.WithLabelValues("data_unavailable").Inc()
		return ErrDataUnavailable
	}

	session := &Session{
		PlayerName:    playerName,
		Player:        player,
		QuestionIndex: answered,
		Handle:        handle,
		StartedAt:     s.now(),
	}
	if err := s.sessions.Start(session); err != nil {
		metricRejections.WithLabelValues("already_playing").Inc()
		return err
	}

	view := QuestionView{
		Slot:     question.Slot,
		Prompt:   s.prompt(question),
		ImageURL: question.Answer.Vehicle.ImageURL,
		Pool:     question.Pool,
		Duration: s.cfg.QuestionDuration,
	}
	clicks, stop, err := s.messenger.SendQuestion(ctx, handle, view)
	if err != nil {
		s.sessions.End(playerName)
		return fmt.Errorf("send question: %w", err)
	}

	metricSessionsStarted.Inc()
	// The interaction context dies with the command reply; the window and
	// scoring run on the service lifetime instead.
	go s.runSession(s.sessionCtx, session, question, clicks, stop)
	return nil
}

func (s *Service) runSession(ctx context.Context, session *Session, question DailyQuestion, clicks <-chan Click, stop func()) {
	defer s.sessions.End(session.PlayerName)
	defer stop()

	collector := NewCollector(s.cfg.QuestionDuration)
	pending := collector.Collect(ctx, clicks, func(click Click, ack AckKind) {
		s.messenger.ClickAck(ctx, click, ack)
	})

	rec, err := s.scoring.Score(ctx, session, question, pending)
	if err != nil {
		// Logged and surfaced, never re-thrown past the session boundary.
		s.logger.Error().Err(err).Str("player", session.PlayerName).Msg("scoring failed")
		s.messenger.Notify(ctx, session.Handle, "Something went wrong saving your answer, please try again later.")
		return
	}

	outcome := "wrong"
	if rec.Correct {
		outcome = "correct"
	}
	if pending == nil {
		outcome = "unanswered"
	}
	metricAnswersScored.WithLabelValues(outcome).Inc()

	view := ResultView{
		PlayerName: session.PlayerName,
		Correct:    rec.Correct,
		Answered:   pending != nil,
		AnswerName: question.Answer.Vehicle.Name,
		AmmoSlot:   question.Answer.AmmoSlot,
		Elo:        rec.Elo,
		Streak:     s.scoring.CurrentStreak(ctx, session.Player.ID, rec.Date),
	}
	if pending != nil {
		view.ResponseTime = pending.ResponseTime
	}
	if err := s.messenger.SendResult(ctx, session.Handle, view); err != nil {
		s.logger.Warn().Err(err).Str("player", session.PlayerName).Msg("result delivery failed")
	}
}

func (s *Service) prompt(q DailyQuestion) string {
	ammo := q.Answer.Vehicle.Ammo[q.Answer.AmmoSlot]
	return fmt.Sprintf("Which tank fires %s shells averaging %d damage?", ammo.Type, ammo.Average())
}
