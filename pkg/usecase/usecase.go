package usecase

import (
	"time"

	"github.com/hairlab/stylist/pkg/domain/interfaces"
	"github.com/hairlab/stylist/pkg/service/builder"
	"github.com/hairlab/stylist/pkg/service/cache"
	"github.com/m-mizutani/goerr/v2"
)

type UseCases struct {
	repo         interfaces.Repository
	gateway      interfaces.Gateway
	cache        interfaces.RecommendationCache
	builder      *builder.Builder
	notifier     interfaces.Notifier
	imageStore   interfaces.ImageStore
	pendingLimit int
	now          func() time.Time

	Consultation *ConsultationUseCase
	Profile      *ProfileUseCase
	Product      *ProductUseCase
}

type Option func(*UseCases)

func WithGateway(gw interfaces.Gateway) Option {
	return func(uc *UseCases) {
		uc.gateway = gw
	}
}

func WithCache(c interfaces.RecommendationCache) Option {
	return func(uc *UseCases) {
		uc.cache = c
	}
}

func WithBuilder(b *builder.Builder) Option {
	return func(uc *UseCases) {
		uc.builder = b
	}
}

// WithNotifier is told about every accepted recommendation
func WithNotifier(n interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = n
	}
}

func WithImageStore(s interfaces.ImageStore) Option {
	return func(uc *UseCases) {
		uc.imageStore = s
	}
}

// WithPendingQueue keeps up to limit accepted recommendations in memory when the store is
// unavailable, to be saved later by FlushPending. Zero disables queueing.
func WithPendingQueue(limit int) Option {
	return func(uc *UseCases) {
		uc.pendingLimit = limit
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, opts ...Option) (*UseCases, error) {
	if repo == nil {
		return nil, goerr.New("repository is required")
	}

	uc := &UseCases{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.builder == nil {
		uc.builder = builder.New()
	}
	if uc.cache == nil {
		c, err := cache.New()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create recommendation cache")
		}
		uc.cache = c
	}

	uc.Consultation = NewConsultationUseCase(uc)
	uc.Profile = NewProfileUseCase(repo)
	uc.Product = NewProductUseCase(repo)

	return uc, nil
}
