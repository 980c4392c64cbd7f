package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func transientError(cause error, msg string, opts ...goerr.Option) error {
	return goerr.Wrap(errors.Join(model.ErrGatewayTransient, cause), msg, opts...)
}

func permanentError(cause error, msg string, opts ...goerr.Option) error {
	if cause == nil {
		return goerr.Wrap(model.ErrGatewayPermanent, msg, opts...)
	}
	return goerr.Wrap(errors.Join(model.ErrGatewayPermanent, cause), msg, opts...)
}

// classify wraps a raw backend error with ErrGatewayTransient or ErrGatewayPermanent. Errors
// that are already classified are returned as is. Unknown errors are transient.
func classify(err error, msg string, opts ...goerr.Option) error {
	if errors.Is(err, model.ErrGatewayTransient) || errors.Is(err, model.ErrGatewayPermanent) {
		return err
	}
	if isPermanent(err) {
		return permanentError(err, msg, opts...)
	}
	return transientError(err, msg, opts...)
}

func isPermanent(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return isPermanentHTTPStatus(apiErr.Code)
	}

	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.ResourceExhausted, codes.InvalidArgument, codes.PermissionDenied,
			codes.Unauthenticated, codes.NotFound, codes.FailedPrecondition, codes.Unimplemented:
			return true
		default:
			return false
		}
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"quota", "resource exhausted", "resource_exhausted", "error 429", "status 429"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func isPermanentHTTPStatus(code int) bool {
	switch {
	case code == http.StatusRequestTimeout:
		return false
	case code == http.StatusTooManyRequests:
		return true
	case code >= 400 && code < 500:
		return true
	default:
		return false
	}
}
