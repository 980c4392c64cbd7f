package http

import (
	"net/http"

	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/hairlab/stylist/pkg/domain/model/auth"
	"github.com/hairlab/stylist/pkg/service/imagestore"
	"github.com/hairlab/stylist/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

// multipart overhead on top of the image itself
const uploadOverhead = 1 << 20

func (s *Server) uploadImageHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, imagestore.MaxImageSize+uploadOverhead)
	if err := r.ParseMultipartForm(imagestore.MaxImageSize); err != nil {
		writeError(ctx, w, goerr.Wrap(model.ErrValidation, "invalid multipart upload", goerr.V("cause", err.Error())))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(ctx, w, goerr.Wrap(model.ErrValidation, "image field is required", goerr.V("cause", err.Error())))
		return
	}
	defer safe.Close(ctx, file)

	ref, err := s.uc.Consultation.UploadImage(ctx, user.ID, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, map[string]string{"image_ref": ref})
}
