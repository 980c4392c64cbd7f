package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/hairlab/stylist/pkg/domain/interfaces"
	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/hairlab/stylist/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite"
)

// CacheStore keeps recommendation cache entries in a local SQLite file so memoized
// responses survive restarts.
type CacheStore struct {
	db *sql.DB
}

var _ interfaces.CacheStore = (*CacheStore)(nil)

const createCacheTable = `
CREATE TABLE IF NOT EXISTS cache_entries (
	fingerprint TEXT NOT NULL PRIMARY KEY,
	recommendation BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS cache_entries_expires_at ON cache_entries (expires_at);
`

// New opens (or creates) the database at dbPath. Use ":memory:" for a private in-memory store.
func New(dbPath string) (*CacheStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open cache db", goerr.V("path", dbPath))
	}
	// single writer; also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createCacheTable); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to migrate cache db", goerr.V("path", dbPath))
	}

	return &CacheStore{db: db}, nil
}

// cachedRecommendation is the JSON form of model.Recommendation in the blob column
type cachedRecommendation struct {
	UserID             string    `json:"user_id"`
	RequestFingerprint string    `json:"request_fingerprint"`
	StyleName          string    `json:"style_name"`
	Description        string    `json:"description"`
	Confidence         float64   `json:"confidence"`
	Products           []string  `json:"products"`
	GeneratedAt        time.Time `json:"generated_at"`
}

func (s *CacheStore) Get(ctx context.Context, fp model.Fingerprint) (*model.CacheEntry, error) {
	var (
		blob      []byte
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT recommendation, expires_at FROM cache_entries WHERE fingerprint = ?`,
		string(fp),
	).Scan(&blob, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(model.ErrNotFound, "cache entry not found", goerr.V(model.FingerprintKey, fp))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query cache entry", goerr.V(model.FingerprintKey, fp))
	}

	var cached cachedRecommendation
	if err := json.Unmarshal(blob, &cached); err != nil {
		return nil, goerr.Wrap(err, "failed to decode cache entry", goerr.V(model.FingerprintKey, fp))
	}

	return &model.CacheEntry{
		Fingerprint: fp,
		Recommendation: &model.Recommendation{
			UserID:             cached.UserID,
			RequestFingerprint: model.Fingerprint(cached.RequestFingerprint),
			StyleName:          cached.StyleName,
			Description:        cached.Description,
			Confidence:         types.Confidence(cached.Confidence),
			Products:           cached.Products,
			GeneratedAt:        cached.GeneratedAt,
		},
		ExpiresAt: time.Unix(0, expiresAt).UTC(),
	}, nil
}

func (s *CacheStore) Put(ctx context.Context, entry *model.CacheEntry) error {
	rec := entry.Recommendation
	if rec == nil {
		return goerr.New("cache entry has no recommendation", goerr.V(model.FingerprintKey, entry.Fingerprint))
	}

	blob, err := json.Marshal(cachedRecommendation{
		UserID:             rec.UserID,
		RequestFingerprint: string(rec.RequestFingerprint),
		StyleName:          rec.StyleName,
		Description:        rec.Description,
		Confidence:         rec.Confidence.Float64(),
		Products:           rec.Products,
		GeneratedAt:        rec.GeneratedAt,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to encode cache entry", goerr.V(model.FingerprintKey, entry.Fingerprint))
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache_entries (fingerprint, recommendation, expires_at) VALUES (?, ?, ?)`,
		string(entry.Fingerprint), blob, entry.ExpiresAt.UnixNano(),
	); err != nil {
		return goerr.Wrap(err, "failed to write cache entry", goerr.V(model.FingerprintKey, entry.Fingerprint))
	}
	return nil
}

func (s *CacheStore) Delete(ctx context.Context, fp model.Fingerprint) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE fingerprint = ?`, string(fp)); err != nil {
		return goerr.Wrap(err, "failed to delete cache entry", goerr.V(model.FingerprintKey, fp))
	}
	return nil
}

// Prune removes entries that expired before now and returns how many were removed
func (s *CacheStore) Prune(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at <= ?`, now.UnixNano())
	if err != nil {
		return 0, goerr.Wrap(err, "failed to prune cache entries")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count pruned cache entries")
	}
	return n, nil
}

func (s *CacheStore) Close() error {
	return s.db.Close()
}
