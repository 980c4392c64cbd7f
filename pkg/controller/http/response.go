package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/hairlab/stylist/pkg/usecase"
	"github.com/hairlab/stylist/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
)

const maxJSONBodySize = 1 << 20

// statusClientClosedRequest is reported when the client went away before the response. It stays
// below 500 so the error is not sent to Sentry.
const statusClientClosedRequest = 499

// statusOf maps domain errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, errUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrGatewayPermanent):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrGatewayTransient),
		errors.Is(err, model.ErrPersistence),
		errors.Is(err, usecase.ErrGatewayNotConfigured),
		errors.Is(err, usecase.ErrImageStoreNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	errutil.HandleHTTP(ctx, w, err, statusOf(err))
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeBody reads a JSON body into out and runs struct validation on it
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return goerr.Wrap(model.ErrValidation, "invalid request body", goerr.V("cause", err.Error()))
	}

	if err := s.validate.Struct(out); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fields := make([]string, 0, len(ve))
			for _, fe := range ve {
				fields = append(fields, fe.Field()+" failed "+fe.Tag())
			}
			return goerr.Wrap(model.ErrValidation, "request validation failed: "+strings.Join(fields, ", "))
		}
		return goerr.Wrap(model.ErrValidation, "request validation failed", goerr.V("cause", err.Error()))
	}
	return nil
}
