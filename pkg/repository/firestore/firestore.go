package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/hairlab/stylist/pkg/domain/interfaces"
	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// ErrNotFound is returned when a document does not exist
var ErrNotFound = model.ErrNotFound

type Firestore struct {
	client         *firestore.Client
	recommendation *recommendationRepository
	profile        *profileRepository
	product        *productRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix isolates all top-level collections, used by tests sharing one database
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.recommendation.collectionPrefix = prefix
		f.profile.collectionPrefix = prefix
		f.product.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:         client,
		recommendation: newRecommendationRepository(client),
		profile:        newProfileRepository(client),
		product:        newProductRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Recommendation() interfaces.RecommendationRepository {
	return f.recommendation
}

func (f *Firestore) Profile() interfaces.ProfileRepository {
	return f.profile
}

func (f *Firestore) Product() interfaces.ProductRepository {
	return f.product
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// persistenceError marks a store failure as model.ErrPersistence while keeping the cause
func persistenceError(cause error, msg string, opts ...goerr.Option) error {
	return goerr.Wrap(errors.Join(model.ErrPersistence, cause), msg, opts...)
}

func usersCollection(prefix string) string {
	if prefix != "" {
		return prefix + "_users"
	}
	return "users"
}
