package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type profileRepository struct {
	mu       sync.RWMutex
	profiles map[string]*model.HairProfile
}

func newProfileRepository() *profileRepository {
	return &profileRepository{
		profiles: make(map[string]*model.HairProfile),
	}
}

func copyProfile(p *model.HairProfile) *model.HairProfile {
	copied := *p
	return &copied
}

func (r *profileRepository) Get(ctx context.Context, userID string) (*model.HairProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "profile not found", goerr.V(model.UserIDKey, userID))
	}
	return copyProfile(p), nil
}

func (r *profileRepository) Put(ctx context.Context, profile *model.HairProfile) (*model.HairProfile, error) {
	if profile.UserID == "" {
		return nil, goerr.Wrap(model.ErrValidation, "user ID is required to save profile")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	saved := copyProfile(profile)
	saved.UpdatedAt = time.Now().UTC()
	r.profiles[saved.UserID] = saved

	return copyProfile(saved), nil
}
