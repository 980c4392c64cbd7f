package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/hairlab/stylist/pkg/repository/memory"
	"github.com/hairlab/stylist/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func TestProfileUseCase(t *testing.T) {
	uc := gt.R1(usecase.New(memory.New())).NoError(t)
	ctx := context.Background()

	t.Run("missing profile is not found", func(t *testing.T) {
		_, err := uc.Profile.Get(ctx, "alice")
		gt.True(t, errors.Is(err, model.ErrNotFound))
	})

	t.Run("update then get", func(t *testing.T) {
		saved := gt.R1(uc.Profile.Update(ctx, &model.HairProfile{
			UserID:       "alice",
			FullName:     "Alice Nguyen",
			Email:        "alice@example.com",
			HairStyle:    "bob",
			HairQuality:  "thick",
			HairLength:   "medium",
			HairColor:    "black",
			HairTexture:  "wavy",
			HairConcerns: "frizz",
		})).NoError(t)
		gt.False(t, saved.UpdatedAt.IsZero())

		got := gt.R1(uc.Profile.Get(ctx, "alice")).NoError(t)
		gt.Value(t, got.HairStyle).Equal("bob")
		gt.Value(t, got.HairConcerns).Equal("frizz")
	})

	t.Run("rejects invalid profile", func(t *testing.T) {
		testCases := []struct {
			name   string
			modify func(p *model.HairProfile)
		}{
			{"short style", func(p *model.HairProfile) { p.HairStyle = "b" }},
			{"missing color", func(p *model.HairProfile) { p.HairColor = "" }},
			{"short concerns", func(p *model.HairProfile) { p.HairConcerns = "no" }},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				p := &model.HairProfile{
					UserID:      "bob",
					HairStyle:   "pixie",
					HairQuality: "fine",
					HairLength:  "short",
					HairColor:   "blonde",
					HairTexture: "straight",
				}
				tc.modify(p)

				_, err := uc.Profile.Update(ctx, p)
				gt.True(t, errors.Is(err, model.ErrValidation))
			})
		}

		_, err := uc.Profile.Get(ctx, "bob")
		gt.True(t, errors.Is(err, model.ErrNotFound))
	})
}
