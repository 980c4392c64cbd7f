package interfaces

import (
	"context"
	"iter"

	"github.com/hairlab/stylist/pkg/domain/model"
)

// RecommendationRepository persists accepted recommendations. Implementations wrap remote store
// failures with model.ErrPersistence.
type RecommendationRepository interface {
	// Save stores rec and returns its RecordID. A new ID is assigned when rec.RecordID is empty.
	Save(ctx context.Context, rec *model.Recommendation) (model.RecordID, error)

	// Get retrieves one recommendation of the user. Returns model.ErrNotFound when missing.
	Get(ctx context.Context, userID string, id model.RecordID) (*model.Recommendation, error)

	// List yields the user's recommendations ordered by SavedAt descending. The sequence is lazy
	// and finite; ranging over it again re-reads the store.
	List(ctx context.Context, userID string) iter.Seq2[*model.Recommendation, error]

	// Delete removes one recommendation. Returns model.ErrNotFound when missing.
	Delete(ctx context.Context, userID string, id model.RecordID) error
}
