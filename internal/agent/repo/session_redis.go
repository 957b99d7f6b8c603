package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
	errx "github.com/ai-tutor-orchestrator/server/internal/core/error"
	logx "github.com/ai-tutor-orchestrator/server/pkg/logger"
)

type RedisSessionRepository struct {
	rdb      redis.Cmdable
	ttl      time.Duration
	maxTurns int
}

// NewRedisSessionRepository keeps at most maxTurns turns per session (0 keeps all).
func NewRedisSessionRepository(rdb redis.Cmdable, ttl time.Duration, maxTurns int) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, ttl: ttl, maxTurns: maxTurns}
}

func (r *RedisSessionRepository) sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:turns", sessionID)
}

func (r *RedisSessionRepository) AppendTurn(ctx context.Context, sessionID string, turn model.SessionTurn) error {
	b, err := json.Marshal(turn)
	if err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to marshal session turn")
		return fmt.Errorf("marshal session turn: %w", err)
	}
	key := r.sessionKey(sessionID)

	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, key, b)
	if r.maxTurns > 0 {
		pipe.LTrim(ctx, key, int64(-r.maxTurns), -1)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to append session turn to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSessionRepository) LoadTurns(ctx context.Context, sessionID string) ([]model.SessionTurn, error) {
	key := r.sessionKey(sessionID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.SessionTurn{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session turns from redis")
		return nil, errx.WrapRedis(err)
	}

	turns := make([]model.SessionTurn, 0, len(rows))
	for i, s := range rows {
		var t model.SessionTurn
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			logx.Error().Err(err).Str("sessionID", sessionID).Int("index", i).Msg("failed to unmarshal session turn")
			return nil, fmt.Errorf("unmarshal session turn at index %d: %w", i, err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

var _ model.SessionRepository = (*RedisSessionRepository)(nil)
