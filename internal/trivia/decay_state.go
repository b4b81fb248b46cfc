package trivia

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	decayRunTTL    = 48 * time.Hour
	decayDigestTTL = 72 * time.Hour
)

// RedisDecayState keeps the per-day decay run marker and the run digest in
// Redis. The SetNX marker is a best-effort guard against double runs, not a
// distributed lock; single-process deployment is assumed.
type RedisDecayState struct {
	client *redis.Client
	prefix string
}

var _ decayState = (*RedisDecayState)(nil)

func NewRedisDecayState(client *redis.Client, prefix string) *RedisDecayState {
	if prefix == "" {
		prefix = "trivia"
	}
	return &RedisDecayState{client: client, prefix: prefix}
}

// AcquireRun marks the run date, returning false when today's run already
// happened.
func (s *RedisDecayState) AcquireRun(ctx context.Context, runDate time.Time) (bool, error) {
	key := fmt.Sprintf("%s:decay:run:%s", s.prefix, runDate.Format("2006-01-02"))
	acquired, err := s.client.SetNX(ctx, key, "1", decayRunTTL).Result()
	if err != nil {
		return false, fmt.Errorf("mark decay run: %w", err)
	}
	return acquired, nil
}

// SaveDigest stores the digest keyed by the covered day.
func (s *RedisDecayState) SaveDigest(ctx context.Context, coveredDate time.Time, entries []DecayEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal decay digest: %w", err)
	}
	key := fmt.Sprintf("%s:decay:digest:%s", s.prefix, coveredDate.Format("2006-01-02"))
	return s.client.Set(ctx, key, data, decayDigestTTL).Err()
}

// LoadDigest returns the digest recorded for a covered day, or nil.
func (s *RedisDecayState) LoadDigest(ctx context.Context, coveredDate time.Time) ([]DecayEntry, error) {
	key := fmt.Sprintf("%s:decay:digest:%s", s.prefix, coveredDate.Format("2006-01-02"))
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load decay digest: %w", err)
	}
	var entries []DecayEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode decay digest: %w", err)
	}
	return entries, nil
}
