package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"tank-trivia"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8090"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres  Postgres
	Redis     Redis
	Discord   Discord
	Wargaming Wargaming
	Trivia    Trivia
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Redis holds cache + coordination configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Discord holds bot credentials and the guild commands register against.
type Discord struct {
	BotToken string `env:"DISCORD_BOT_TOKEN,notEmpty"`
	GuildID  string `env:"DISCORD_GUILD_ID"`
}

// Wargaming configures the encyclopedia API used to refresh the tank catalog.
type Wargaming struct {
	ApplicationID   string        `env:"WG_APPLICATION_ID"`
	Realm           string        `env:"WG_REALM" envDefault:"eu"`
	HTTPTimeout     time.Duration `env:"WG_HTTP_TIMEOUT" envDefault:"10s"`
	RefreshInterval time.Duration `env:"WG_REFRESH_INTERVAL" envDefault:"24h"`
}

// Trivia groups gameplay constants.
type Trivia struct {
	QuestionsPerDay    int           `env:"TRIVIA_QUESTIONS_PER_DAY" envDefault:"3"`
	PoolSize           int           `env:"TRIVIA_POOL_SIZE" envDefault:"4"`
	QuestionDuration   time.Duration `env:"TRIVIA_QUESTION_DURATION" envDefault:"30s"`
	BonusTimeLimit     time.Duration `env:"TRIVIA_BONUS_TIME_LIMIT" envDefault:"10s"`
	MaxUniquePages     int           `env:"TRIVIA_MAX_UNIQUE_PAGES" envDefault:"10"`
	DecayRate          float64       `env:"TRIVIA_DECAY_RATE" envDefault:"0.018"`
	DecayGrace         time.Duration `env:"TRIVIA_DECAY_GRACE" envDefault:"24h"`
	DecayInterval      time.Duration `env:"TRIVIA_DECAY_INTERVAL" envDefault:"1h"`
	GenerationRecheck  time.Duration `env:"TRIVIA_GENERATION_RECHECK" envDefault:"30s"`
	ScoreboardCacheTTL time.Duration `env:"TRIVIA_SCOREBOARD_CACHE_TTL" envDefault:"1m"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
