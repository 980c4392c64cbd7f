package usecase

import (
	"context"

	"github.com/hairlab/stylist/pkg/domain/interfaces"
	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type ProfileUseCase struct {
	repo interfaces.Repository
}

func NewProfileUseCase(repo interfaces.Repository) *ProfileUseCase {
	return &ProfileUseCase{repo: repo}
}

func (uc *ProfileUseCase) Get(ctx context.Context, userID string) (*model.HairProfile, error) {
	profile, err := uc.repo.Profile().Get(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get hair profile", goerr.V(model.UserIDKey, userID))
	}
	return profile, nil
}

// Update replaces the hair profile of profile.UserID after validating it
func (uc *ProfileUseCase) Update(ctx context.Context, profile *model.HairProfile) (*model.HairProfile, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	saved, err := uc.repo.Profile().Put(ctx, profile)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to save hair profile", goerr.V(model.UserIDKey, profile.UserID))
	}
	return saved, nil
}
