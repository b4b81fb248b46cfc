package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/wotclan/tanktrivia/internal/catalog"
	catalogapi "github.com/wotclan/tanktrivia/internal/catalog/external"
	"github.com/wotclan/tanktrivia/internal/config"
	"github.com/wotclan/tanktrivia/internal/db/repository"
	"github.com/wotclan/tanktrivia/internal/discord"
	"github.com/wotclan/tanktrivia/internal/flags"
	"github.com/wotclan/tanktrivia/internal/logging"
	"github.com/wotclan/tanktrivia/internal/report"
	"github.com/wotclan/tanktrivia/internal/server"
	"github.com/wotclan/tanktrivia/internal/trivia"
)

// Application aggregates shared infrastructure (DB, cache, Discord, HTTP).
// Everything is constructed once here and passed by reference; there is no
// hidden global state.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool   *pgxpool.Pool
	redis  *redis.Client
	bot    *discord.Bot
	http   *http.Server
	trivia *trivia.Service

	genWorker   *trivia.GenerationWorker
	decayWorker *trivia.DecayWorker
	refresher   *catalog.Refresher
	bgCancels   []context.CancelFunc
}

// New bootstraps config, logger, Postgres, Redis, the Discord bot and the
// ops HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	vehicleRepo := repository.NewVehicleRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	playerRepo := repository.NewPlayerRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	streakRepo := repository.NewStreakRepository(pool)

	flagStore := flags.NewStore(redisClient, "", logger)
	decayState := trivia.NewRedisDecayState(redisClient, "")

	bank := trivia.NewBank(trivia.BankConfig{
		QuestionsPerDay: cfg.Trivia.QuestionsPerDay,
		PoolSize:        cfg.Trivia.PoolSize,
		MaxUniquePages:  cfg.Trivia.MaxUniquePages,
		RecheckDelay:    cfg.Trivia.GenerationRecheck,
	}, vehicleRepo, questionRepo, logger)

	scoring := trivia.NewScoringEngine(trivia.ScoringConfig{
		BaseGain:       50,
		BasePenalty:    25,
		RatingSlope:    0.001,
		SpeedBonus:     0.25,
		BonusTimeLimit: cfg.Trivia.BonusTimeLimit,
	}, answerRepo, streakRepo, logger)

	decay := trivia.NewDecayRunner(trivia.DecayConfig{
		Rate:  cfg.Trivia.DecayRate,
		Grace: cfg.Trivia.DecayGrace,
	}, answerRepo, decayState, logger)

	reports := report.NewBuilder(
		answerRepo, playerRepo, questionRepo, streakRepo, vehicleRepo,
		decayState, redisClient, cfg.Trivia.ScoreboardCacheTTL, logger,
	)

	// The bot doubles as the Messenger, so it exists before the service and
	// gets the service injected afterwards.
	bot, err := discord.NewBot(cfg.Discord.BotToken, cfg.Discord.GuildID, nil, reports, logger)
	if err != nil {
		return nil, fmt.Errorf("build discord bot: %w", err)
	}

	triviaSvc := trivia.NewService(trivia.ServiceConfig{
		QuestionsPerDay:  cfg.Trivia.QuestionsPerDay,
		PoolSize:         cfg.Trivia.PoolSize,
		QuestionDuration: cfg.Trivia.QuestionDuration,
	}, bank, trivia.NewSessionManager(), scoring, decay, playerRepo, answerRepo, flagStore, bot, logger)
	bot.SetGame(triviaSvc)

	var source catalog.Source
	if cfg.Wargaming.ApplicationID != "" {
		source = catalogapi.NewWargamingClient(cfg.Wargaming.Realm, cfg.Wargaming.ApplicationID,
			&http.Client{Timeout: cfg.Wargaming.HTTPTimeout})
	} else {
		logger.Warn().Msg("WG_APPLICATION_ID not set, catalog refresh disabled")
	}

	return &Application{
		cfg:         cfg,
		logger:      logger,
		pool:        pool,
		redis:       redisClient,
		bot:         bot,
		trivia:      triviaSvc,
		http:        server.NewHTTPServer(cfg, logger, pool, redisClient, reports),
		genWorker:   trivia.NewGenerationWorker(triviaSvc, cfg.Trivia.GenerationRecheck*10, logger),
		decayWorker: trivia.NewDecayWorker(triviaSvc, cfg.Trivia.DecayInterval, logger),
		refresher:   catalog.NewRefresher(source, vehicleRepo, cfg.Wargaming.RefreshInterval, logger),
		bgCancels:   make([]context.CancelFunc, 0, 3),
	}, nil
}

// Run connects Discord, starts the HTTP server and background workers, and
// waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	if err := a.bot.Open(ctx); err != nil {
		return err
	}

	a.startBackgroundWorkers(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.logger.Error().Err(err).Msg("http server failed")
		return err
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-ctx.Done():
		a.logger.Info().Msg("context cancelled, shutting down")
	}

	return a.shutdown()
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	run := func(name string, fn func(context.Context) error) {
		workerCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := fn(workerCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Str("worker", name).Msg("worker stopped")
			}
		}()
	}
	run("catalog_refresher", a.refresher.Run)
	run("question_generation", a.genWorker.Run)
	run("inactivity_decay", a.decayWorker.Run)
}

func (a *Application) shutdown() error {
	for _, cancel := range a.bgCancels {
		cancel()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn().Err(err).Msg("http shutdown failed")
	}
	a.trivia.Shutdown()
	if err := a.bot.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("discord close failed")
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("redis close failed")
	}
	a.logger.Info().Msg("shutdown complete")
	return nil
}
