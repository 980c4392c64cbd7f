package http

import (
	"net/http"
	"time"

	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/hairlab/stylist/pkg/domain/model/auth"
)

type profileRequest struct {
	FullName     string `json:"full_name" validate:"max=200"`
	Email        string `json:"email" validate:"omitempty,email"`
	Phone        string `json:"phone" validate:"omitempty,max=32"`
	HairStyle    string `json:"hair_style" validate:"required"`
	HairQuality  string `json:"hair_quality" validate:"required"`
	HairLength   string `json:"hair_length" validate:"required"`
	HairColor    string `json:"hair_color" validate:"required"`
	HairTexture  string `json:"hair_texture" validate:"required"`
	HairConcerns string `json:"hair_concerns"`
}

type profileResponse struct {
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	HairStyle    string    `json:"hair_style"`
	HairQuality  string    `json:"hair_quality"`
	HairLength   string    `json:"hair_length"`
	HairColor    string    `json:"hair_color"`
	HairTexture  string    `json:"hair_texture"`
	HairConcerns string    `json:"hair_concerns"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toProfileResponse(p *model.HairProfile) profileResponse {
	return profileResponse{
		FullName:     p.FullName,
		Email:        p.Email,
		Phone:        p.Phone,
		HairStyle:    p.HairStyle,
		HairQuality:  p.HairQuality,
		HairLength:   p.HairLength,
		HairColor:    p.HairColor,
		HairTexture:  p.HairTexture,
		HairConcerns: p.HairConcerns,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (s *Server) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)

	profile, err := s.uc.Profile.Get(ctx, user.ID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toProfileResponse(profile))
}

func (s *Server) putProfileHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)

	var req profileRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	saved, err := s.uc.Profile.Update(ctx, &model.HairProfile{
		UserID:       user.ID,
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		HairStyle:    req.HairStyle,
		HairQuality:  req.HairQuality,
		HairLength:   req.HairLength,
		HairColor:    req.HairColor,
		HairTexture:  req.HairTexture,
		HairConcerns: req.HairConcerns,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toProfileResponse(saved))
}
