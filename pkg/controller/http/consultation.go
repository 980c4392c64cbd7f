package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/hairlab/stylist/pkg/domain/model/auth"
	"github.com/hairlab/stylist/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
)

const defaultListLimit = 50

type consultRequest struct {
	ImageRef   string            `json:"image_ref" validate:"required"`
	Attributes map[string]string `json:"attributes" validate:"required_without=UseProfile"`
	Preference string            `json:"preference" validate:"max=2000"`
	UseProfile bool              `json:"use_profile"`
}

type recommendationResponse struct {
	RecordID    string    `json:"record_id,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	StyleName   string    `json:"style_name"`
	Description string    `json:"description"`
	Confidence  float64   `json:"confidence"`
	Products    []string  `json:"products"`
	GeneratedAt time.Time `json:"generated_at"`
	SavedAt     time.Time `json:"saved_at,omitzero"`
}

func toRecommendationResponse(rec *model.Recommendation) recommendationResponse {
	products := rec.Products
	if products == nil {
		products = []string{}
	}
	return recommendationResponse{
		RecordID:    rec.RecordID.String(),
		Fingerprint: rec.RequestFingerprint.String(),
		StyleName:   rec.StyleName,
		Description: rec.Description,
		Confidence:  rec.Confidence.Float64(),
		Products:    products,
		GeneratedAt: rec.GeneratedAt,
		SavedAt:     rec.SavedAt,
	}
}

type acceptResponse struct {
	RecordID       string                 `json:"record_id"`
	Queued         bool                   `json:"queued"`
	Recommendation recommendationResponse `json:"recommendation"`
}

func (s *Server) consultHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)

	var req consultRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := s.uc.Consultation.Consult(ctx, usecase.ConsultInput{
		UserID:     user.ID,
		ImageRef:   req.ImageRef,
		Attributes: req.Attributes,
		Preference: req.Preference,
		UseProfile: req.UseProfile,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, toRecommendationResponse(result.Recommendation))
}

func (s *Server) acceptHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)
	fp := model.Fingerprint(chi.URLParam(r, "fingerprint"))

	result, err := s.uc.Consultation.Accept(ctx, user.ID, fp)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	status := http.StatusCreated
	if result.Queued {
		status = http.StatusAccepted
	}
	writeJSON(ctx, w, status, acceptResponse{
		RecordID:       result.RecordID.String(),
		Queued:         result.Queued,
		Recommendation: toRecommendationResponse(result.Recommendation),
	})
}

func (s *Server) invalidateHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)
	fp := model.Fingerprint(chi.URLParam(r, "fingerprint"))

	if err := s.uc.Consultation.Invalidate(ctx, user.ID, fp); err != nil {
		writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listRecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(ctx, w, goerr.Wrap(model.ErrValidation, "limit must be a positive integer", goerr.V("limit", v)))
			return
		}
		limit = n
	}

	recs, err := s.uc.Consultation.List(ctx, user.ID, limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	resp := make([]recommendationResponse, len(recs))
	for i, rec := range recs {
		resp[i] = toRecommendationResponse(rec)
	}
	writeJSON(ctx, w, http.StatusOK, map[string]any{"recommendations": resp})
}

func (s *Server) getRecommendationHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)

	rec, err := s.uc.Consultation.Get(ctx, user.ID, model.RecordID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toRecommendationResponse(rec))
}

func (s *Server) deleteRecommendationHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)

	if err := s.uc.Consultation.Delete(ctx, user.ID, model.RecordID(chi.URLParam(r, "id"))); err != nil {
		writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
