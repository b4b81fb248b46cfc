package flags

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Store reads feature flags from Redis. Unset flags are enabled; Redis
// trouble fails open so a cache outage never silently kills the game.
type Store struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

func NewStore(client *redis.Client, prefix string, logger zerolog.Logger) *Store {
	if prefix == "" {
		prefix = "flag"
	}
	return &Store{
		client: client,
		prefix: prefix,
		logger: logger.With().Str("component", "flags").Logger(),
	}
}

func (s *Store) key(name string) string {
	return fmt.Sprintf("%s:%s", s.prefix, name)
}

// Enabled reports whether the named flag is on.
func (s *Store) Enabled(ctx context.Context, name string) bool {
	val, err := s.client.Get(ctx, s.key(name)).Result()
	if err == redis.Nil {
		return true
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("flag", name).Msg("flag lookup failed, assuming enabled")
		return true
	}
	return val != "0" && val != "false" && val != "off"
}

// Set flips a flag.
func (s *Store) Set(ctx context.Context, name string, enabled bool) error {
	val := "1"
	if !enabled {
		val = "0"
	}
	if err := s.client.Set(ctx, s.key(name), val, 0).Err(); err != nil {
		return fmt.Errorf("set flag %s: %w", name, err)
	}
	return nil
}
