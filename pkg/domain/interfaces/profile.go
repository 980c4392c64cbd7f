package interfaces

import (
	"context"

	"github.com/hairlab/stylist/pkg/domain/model"
)

// ProfileRepository stores one HairProfile per user
type ProfileRepository interface {
	// Get returns model.ErrNotFound when the user has no profile
	Get(ctx context.Context, userID string) (*model.HairProfile, error)

	// Put creates or replaces the profile and sets UpdatedAt
	Put(ctx context.Context, profile *model.HairProfile) (*model.HairProfile, error)
}
