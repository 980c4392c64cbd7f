package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/hairlab/stylist/pkg/domain/model/auth"
	"github.com/hairlab/stylist/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// TokenVerifier turns a bearer ID token into the calling user
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*auth.User, error)
}

var errUnauthenticated = goerr.New("authentication required")

// authMiddleware puts the authenticated user into the request context. In no-auth mode every
// request runs as noAuthUserID.
func authMiddleware(verifier TokenVerifier, noAuthUserID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if verifier == nil {
				if noAuthUserID == "" {
					writeError(ctx, w, goerr.Wrap(errUnauthenticated, "no authentication configured"))
					return
				}
				user := &auth.User{ID: noAuthUserID}
				next.ServeHTTP(w, r.WithContext(withUser(ctx, user)))
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeError(ctx, w, goerr.Wrap(errUnauthenticated, "missing bearer token"))
				return
			}

			user, err := verifier.Verify(ctx, strings.TrimSpace(token))
			if err != nil {
				writeError(ctx, w, goerr.Wrap(errUnauthenticated, "invalid ID token", goerr.V("cause", err.Error())))
				return
			}

			next.ServeHTTP(w, r.WithContext(withUser(ctx, user)))
		})
	}
}

func withUser(ctx context.Context, user *auth.User) context.Context {
	ctx = auth.ContextWithUser(ctx, user)
	return logging.With(ctx, logging.From(ctx).With("user_id", user.ID))
}

// requireProductAdmin rejects catalog changes from users outside the admin list. An empty list
// lets any authenticated user change the catalog.
func (s *Server) requireProductAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.productAdmins) > 0 {
			user := auth.UserFromContext(r.Context())
			if _, ok := s.productAdmins[user.ID]; !ok {
				writeError(r.Context(), w, goerr.Wrap(model.ErrAccessDenied, "catalog changes are restricted", goerr.V("user_id", user.ID)))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
