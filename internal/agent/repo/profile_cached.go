package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
	logx "github.com/ai-tutor-orchestrator/server/pkg/logger"
)

// CachedProfileRepository is a Redis read-through cache in front of another repository.
// Cache failures degrade to the backing store; misses for unknown users are not cached.
type CachedProfileRepository struct {
	next model.ProfileRepository
	rdb  redis.Cmdable
	ttl  time.Duration
}

func NewCachedProfileRepository(next model.ProfileRepository, rdb redis.Cmdable, ttl time.Duration) *CachedProfileRepository {
	return &CachedProfileRepository{next: next, rdb: rdb, ttl: ttl}
}

func (r *CachedProfileRepository) profileKey(userID string) string {
	return fmt.Sprintf("profile:%s", userID)
}

func (r *CachedProfileRepository) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	key := r.profileKey(userID)

	raw, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p model.UserProfile
		uerr := json.Unmarshal(raw, &p)
		if uerr == nil {
			return &p, nil
		}
		logx.Warn().Err(uerr).Str("key", key).Msg("dropping undecodable cached profile")
	case errors.Is(err, redis.Nil):
	default:
		logx.Warn().Err(err).Str("key", key).Msg("profile cache read failed; using backing store")
	}

	p, err := r.next.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if b, merr := json.Marshal(p); merr == nil {
		if serr := r.rdb.Set(ctx, key, b, r.ttl).Err(); serr != nil {
			logx.Warn().Err(serr).Str("key", key).Msg("profile cache write failed")
		}
	}
	return p, nil
}

var _ model.ProfileRepository = (*CachedProfileRepository)(nil)
