package errutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/hairlab/stylist/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Handle logs err with its goerr values and stack, and forwards it to Sentry when a client is configured.
func Handle(ctx context.Context, err error, msg string) {
	if err == nil {
		return
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error(msg,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error(msg, "error", err.Error())
	}

	if hub := sentry.CurrentHub(); hub.Client() != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("message", msg)
			if ge != nil {
				scope.SetContext("goerr", sentryContext(ge.Values()))
			}
			hub.CaptureException(err)
		})
	}
}

// sentryContext copies goerr values into a Sentry context. Sentry serializes contexts as JSON,
// so values that are not plain data are rendered with their string form.
func sentryContext(values map[string]any) sentry.Context {
	ctx := make(sentry.Context, len(values))
	for k, v := range values {
		switch v.(type) {
		case string, bool, int, int64, float64, nil:
			ctx[k] = v
		default:
			ctx[k] = fmt.Sprint(v)
		}
	}
	return ctx
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleHTTP writes a JSON error body with statusCode. 5xx errors are logged and reported and
// their details are not exposed to the client; 4xx are logged at warn level only.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		return
	}

	message := err.Error()
	if statusCode >= http.StatusInternalServerError {
		Handle(ctx, err, "HTTP error")
		message = http.StatusText(statusCode)
	} else {
		logging.From(ctx).Warn("HTTP client error", "status", statusCode, "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message})
}
