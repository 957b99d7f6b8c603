package repo

import (
	"context"
	"fmt"
	"sync"

	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
)

// MemoryProfileRepository serves profiles from a fixed in-process map.
type MemoryProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]model.UserProfile
}

func NewMemoryProfileRepository(profiles ...model.UserProfile) *MemoryProfileRepository {
	r := &MemoryProfileRepository{profiles: make(map[string]model.UserProfile, len(profiles))}
	for _, p := range profiles {
		r.profiles[p.UserID] = p
	}
	return r
}

func (r *MemoryProfileRepository) GetProfile(_ context.Context, userID string) (*model.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrProfileNotFound, userID)
	}
	return &p, nil
}

// Put inserts or replaces a profile.
func (r *MemoryProfileRepository) Put(p model.UserProfile) {
	r.mu.Lock()
	r.profiles[p.UserID] = p
	r.mu.Unlock()
}

var _ model.ProfileRepository = (*MemoryProfileRepository)(nil)
