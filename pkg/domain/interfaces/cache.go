package interfaces

import (
	"context"

	"github.com/hairlab/stylist/pkg/domain/model"
)

// ComputeFunc produces a recommendation on cache miss
type ComputeFunc func(ctx context.Context, req *model.ConsultationRequest) (*model.Recommendation, error)

// RecommendationCache memoizes gateway responses by request fingerprint
type RecommendationCache interface {
	// GetOrCompute returns the live entry for req or runs compute. At most one compute per
	// fingerprint runs at a time; concurrent callers share its result.
	GetOrCompute(ctx context.Context, req *model.ConsultationRequest, compute ComputeFunc) (*model.Recommendation, error)

	// Lookup returns the live entry for fp, or model.ErrNotFound
	Lookup(ctx context.Context, fp model.Fingerprint) (*model.Recommendation, error)

	// Invalidate removes the entry for fp immediately
	Invalidate(ctx context.Context, fp model.Fingerprint)
}

// CacheStore is an optional second-level store behind RecommendationCache that survives restarts
type CacheStore interface {
	// Get returns model.ErrNotFound on miss. Expired entries may be returned; the caller checks.
	Get(ctx context.Context, fp model.Fingerprint) (*model.CacheEntry, error)
	Put(ctx context.Context, entry *model.CacheEntry) error
	Delete(ctx context.Context, fp model.Fingerprint) error
}
