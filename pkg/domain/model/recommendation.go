package model

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hairlab/stylist/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// RecordID is a UUID-based identifier of a persisted Recommendation
type RecordID string

// NewRecordID generates a new UUID v4 RecordID
func NewRecordID() RecordID {
	return RecordID(uuid.New().String())
}

func (id RecordID) String() string {
	return string(id)
}

// Recommendation is a hairstyle suggestion produced by the AI gateway. It is owned by the cache
// until the user accepts it; RecordID and SavedAt are set when it is persisted.
type Recommendation struct {
	RecordID           RecordID
	UserID             string
	RequestFingerprint Fingerprint
	StyleName          string
	Description        string
	Confidence         types.Confidence
	Products           []string // names of catalog products suggested alongside the style
	GeneratedAt        time.Time
	SavedAt            time.Time
}

// Validate checks the fields the gateway is required to produce
func (r *Recommendation) Validate() error {
	if strings.TrimSpace(r.StyleName) == "" {
		return goerr.New("style name is required", goerr.V(FingerprintKey, r.RequestFingerprint))
	}
	if err := r.Confidence.Validate(); err != nil {
		return goerr.Wrap(err, "invalid confidence", goerr.V(FingerprintKey, r.RequestFingerprint))
	}
	return nil
}

// Clone returns a deep copy
func (r *Recommendation) Clone() *Recommendation {
	if r == nil {
		return nil
	}
	c := *r
	c.Products = slices.Clone(r.Products)
	return &c
}

// CacheEntry is a memoized gateway response for one fingerprint
type CacheEntry struct {
	Fingerprint    Fingerprint
	Recommendation *Recommendation
	ExpiresAt      time.Time
}

// Expired reports whether the entry must no longer be served at now
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
