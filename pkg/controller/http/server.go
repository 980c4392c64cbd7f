package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/hairlab/stylist/pkg/usecase"
	"github.com/hairlab/stylist/pkg/utils/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	router        *chi.Mux
	uc            *usecase.UseCases
	verifier      TokenVerifier
	noAuthUserID  string
	productAdmins map[string]struct{}
	validate      *validator.Validate
}

type Options func(*Server)

// WithVerifier requires a valid bearer ID token on every /api request
func WithVerifier(v TokenVerifier) Options {
	return func(s *Server) {
		s.verifier = v
	}
}

// WithNoAuth treats every request as coming from userID. For local development only.
func WithNoAuth(userID string) Options {
	return func(s *Server) {
		s.noAuthUserID = userID
	}
}

// WithProductAdmins restricts catalog changes to the given user IDs
func WithProductAdmins(userIDs ...string) Options {
	return func(s *Server) {
		for _, id := range userIDs {
			s.productAdmins[id] = struct{}{}
		}
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:        r,
		uc:            uc,
		productAdmins: make(map[string]struct{}),
		validate:      newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(s.verifier, s.noAuthUserID))

		r.Route("/consultations", func(r chi.Router) {
			r.Post("/", s.consultHandler)
			r.Post("/{fingerprint}/accept", s.acceptHandler)
			r.Delete("/{fingerprint}", s.invalidateHandler)
		})

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/", s.listRecommendationsHandler)
			r.Get("/{id}", s.getRecommendationHandler)
			r.Delete("/{id}", s.deleteRecommendationHandler)
		})

		r.Get("/profile", s.getProfileHandler)
		r.Put("/profile", s.putProfileHandler)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.listProductsHandler)
			r.Get("/{id}", s.getProductHandler)

			r.Group(func(r chi.Router) {
				r.Use(s.requireProductAdmin)
				r.Post("/", s.createProductHandler)
				r.Put("/{id}", s.updateProductHandler)
				r.Delete("/{id}", s.deleteProductHandler)
			})
		})

		r.Post("/images", s.uploadImageHandler)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := logging.From(r.Context()).With("request_id", middleware.GetReqID(r.Context()))
		r = r.WithContext(logging.With(r.Context(), logger))

		defer func() {
			logger.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
