package memory

import (
	"cmp"
	"context"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type recommendationRepository struct {
	mu    sync.RWMutex
	users map[string]map[model.RecordID]*model.Recommendation
}

func newRecommendationRepository() *recommendationRepository {
	return &recommendationRepository{
		users: make(map[string]map[model.RecordID]*model.Recommendation),
	}
}

func (r *recommendationRepository) Save(ctx context.Context, rec *model.Recommendation) (model.RecordID, error) {
	if rec.UserID == "" {
		return "", goerr.Wrap(model.ErrValidation, "user ID is required to save recommendation")
	}

	saved := rec.Clone()
	if saved.RecordID == "" {
		saved.RecordID = model.NewRecordID()
	}
	if saved.SavedAt.IsZero() {
		saved.SavedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	records, ok := r.users[saved.UserID]
	if !ok {
		records = make(map[model.RecordID]*model.Recommendation)
		r.users[saved.UserID] = records
	}
	records[saved.RecordID] = saved

	return saved.RecordID, nil
}

func (r *recommendationRepository) Get(ctx context.Context, userID string, id model.RecordID) (*model.Recommendation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.users[userID][id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "recommendation not found",
			goerr.V(model.UserIDKey, userID),
			goerr.V(model.RecordIDKey, id))
	}
	return rec.Clone(), nil
}

// List takes a snapshot each time the sequence is ranged over
func (r *recommendationRepository) List(ctx context.Context, userID string) iter.Seq2[*model.Recommendation, error] {
	return func(yield func(*model.Recommendation, error) bool) {
		r.mu.RLock()
		records := make([]*model.Recommendation, 0, len(r.users[userID]))
		for _, rec := range r.users[userID] {
			records = append(records, rec.Clone())
		}
		r.mu.RUnlock()

		slices.SortFunc(records, func(a, b *model.Recommendation) int {
			if c := b.SavedAt.Compare(a.SavedAt); c != 0 {
				return c
			}
			return cmp.Compare(a.RecordID, b.RecordID)
		})

		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				yield(nil, goerr.Wrap(err, "listing recommendations interrupted"))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func (r *recommendationRepository) Delete(ctx context.Context, userID string, id model.RecordID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID][id]; !ok {
		return goerr.Wrap(ErrNotFound, "recommendation not found",
			goerr.V(model.UserIDKey, userID),
			goerr.V(model.RecordIDKey, id))
	}
	delete(r.users[userID], id)
	return nil
}
