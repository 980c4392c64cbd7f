package usecase

import (
	"context"
	"errors"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/hairlab/stylist/pkg/utils/async"
	"github.com/hairlab/stylist/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// ConsultInput is one consultation submitted by a user
type ConsultInput struct {
	UserID     string
	ImageRef   string
	Attributes map[string]string
	Preference string

	// UseProfile fills attributes missing from Attributes with the user's stored hair profile
	UseProfile bool
}

// ConsultResult carries the fingerprint the client passes back to Accept
type ConsultResult struct {
	Fingerprint    model.Fingerprint
	Recommendation *model.Recommendation
}

// AcceptResult describes the outcome of accepting a recommendation. Queued is true when the
// store was unavailable and the save waits in the pending queue.
type AcceptResult struct {
	RecordID       model.RecordID
	Recommendation *model.Recommendation
	Queued         bool
}

type ConsultationUseCase struct {
	uc *UseCases

	// flushMu serializes FlushPending. mu guards pending and flushing and is never held across a save.
	flushMu  sync.Mutex
	mu       sync.Mutex
	pending  []*model.Recommendation
	flushing int
}

func NewConsultationUseCase(uc *UseCases) *ConsultationUseCase {
	return &ConsultationUseCase{uc: uc}
}

// Consult returns a recommendation for the input, served from cache when an identical request
// was answered within the TTL.
func (c *ConsultationUseCase) Consult(ctx context.Context, in ConsultInput) (*ConsultResult, error) {
	if c.uc.gateway == nil {
		return nil, goerr.Wrap(ErrGatewayNotConfigured, "cannot consult")
	}

	attrs := in.Attributes
	if in.UseProfile {
		attrs = c.mergeProfile(ctx, in.UserID, in.Attributes)
	}

	req, err := c.uc.builder.Build(in.UserID, in.ImageRef, attrs, in.Preference)
	if err != nil {
		return nil, err
	}

	logger := logging.From(ctx).With("fingerprint", req.Fingerprint(), "user_id", req.UserID())
	ctx = logging.With(ctx, logger)

	rec, err := c.uc.cache.GetOrCompute(ctx, req, c.uc.gateway.Consult)
	if err != nil {
		return nil, goerr.Wrap(err, "consultation failed", goerr.V(model.FingerprintKey, req.Fingerprint()))
	}

	logger.Info("consultation answered", "style", rec.StyleName, "confidence", rec.Confidence.Float64())
	return &ConsultResult{
		Fingerprint:    req.Fingerprint(),
		Recommendation: rec,
	}, nil
}

// mergeProfile adds stored profile attributes under the explicit ones. A missing or unreadable
// profile leaves the attributes unchanged.
func (c *ConsultationUseCase) mergeProfile(ctx context.Context, userID string, explicit map[string]string) map[string]string {
	profile, err := c.uc.repo.Profile().Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			logging.From(ctx).Warn("failed to load hair profile, consulting without it",
				"user_id", userID,
				"error", err)
		}
		return explicit
	}

	merged := profile.Attributes()
	maps.Copy(merged, explicit)
	return merged
}

// Accept persists the live cached recommendation for fp on behalf of userID
func (c *ConsultationUseCase) Accept(ctx context.Context, userID string, fp model.Fingerprint) (*AcceptResult, error) {
	cached, err := c.uc.cache.Lookup(ctx, fp)
	if err != nil {
		return nil, goerr.Wrap(err, "recommendation is not available to accept",
			goerr.V(model.UserIDKey, userID),
			goerr.V(model.FingerprintKey, fp))
	}
	if cached.UserID != userID {
		return nil, goerr.Wrap(model.ErrAccessDenied, "recommendation belongs to another user",
			goerr.V(model.UserIDKey, userID),
			goerr.V(model.FingerprintKey, fp))
	}

	rec := cached.Clone()
	rec.RecordID = model.NewRecordID()
	rec.SavedAt = c.uc.now()

	id, err := c.uc.repo.Recommendation().Save(ctx, rec)
	if err != nil {
		if errors.Is(err, model.ErrPersistence) && c.uc.pendingLimit > 0 {
			if qerr := c.enqueue(rec); qerr != nil {
				acceptedTotal.WithLabelValues("failed").Inc()
				return nil, goerr.Wrap(errors.Join(qerr, err), "failed to save recommendation",
					goerr.V(model.RecordIDKey, rec.RecordID))
			}

			logging.From(ctx).Warn("store unavailable, recommendation queued for later save",
				"record_id", rec.RecordID,
				"error", err)
			acceptedTotal.WithLabelValues("queued").Inc()
			return &AcceptResult{RecordID: rec.RecordID, Recommendation: rec, Queued: true}, nil
		}

		acceptedTotal.WithLabelValues("failed").Inc()
		return nil, goerr.Wrap(err, "failed to save recommendation", goerr.V(model.RecordIDKey, rec.RecordID))
	}

	rec.RecordID = id
	acceptedTotal.WithLabelValues("saved").Inc()
	c.notifyAccepted(ctx, rec)

	return &AcceptResult{RecordID: id, Recommendation: rec}, nil
}

func (c *ConsultationUseCase) enqueue(rec *model.Recommendation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	queued := len(c.pending) + c.flushing
	if queued >= c.uc.pendingLimit {
		return goerr.Wrap(ErrPendingQueueFull, "cannot queue recommendation", goerr.V(PendingCountKey, queued))
	}
	c.pending = append(c.pending, rec)
	pendingSaves.Set(float64(queued + 1))
	return nil
}

// FlushPending saves queued recommendations in acceptance order. It stops at the first failure,
// keeping that record and the rest queued ahead of anything enqueued meanwhile, and returns how
// many were saved.
func (c *ConsultationUseCase) FlushPending(ctx context.Context) (int, error) {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.Lock()
	batch := c.pending
	c.pending = nil
	c.flushing = len(batch)
	c.mu.Unlock()

	for i, rec := range batch {
		if _, err := c.uc.repo.Recommendation().Save(ctx, rec); err != nil {
			c.mu.Lock()
			c.pending = append(slices.Clone(batch[i:]), c.pending...)
			c.flushing = 0
			remaining := len(c.pending)
			c.mu.Unlock()

			pendingSaves.Set(float64(remaining))
			return i, goerr.Wrap(err, "failed to flush pending recommendation",
				goerr.V(model.RecordIDKey, rec.RecordID),
				goerr.V(PendingCountKey, remaining))
		}

		c.mu.Lock()
		c.flushing--
		pendingSaves.Set(float64(len(c.pending) + c.flushing))
		c.mu.Unlock()

		c.notifyAccepted(ctx, rec)
	}

	return len(batch), nil
}

// PendingCount returns the number of queued saves, including those a running flush has not
// finished yet
func (c *ConsultationUseCase) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending) + c.flushing
}

func (c *ConsultationUseCase) notifyAccepted(ctx context.Context, rec *model.Recommendation) {
	if c.uc.notifier == nil {
		return
	}
	notified := rec.Clone()
	async.Dispatch(ctx, func(ctx context.Context) error {
		return c.uc.notifier.NotifyAccepted(ctx, notified)
	})
}

// List returns up to limit saved recommendations of the user, newest first. limit <= 0 means all.
func (c *ConsultationUseCase) List(ctx context.Context, userID string, limit int) ([]*model.Recommendation, error) {
	recs := []*model.Recommendation{}
	for rec, err := range c.uc.repo.Recommendation().List(ctx, userID) {
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list recommendations", goerr.V(model.UserIDKey, userID))
		}
		recs = append(recs, rec)
		if limit > 0 && len(recs) >= limit {
			break
		}
	}
	return recs, nil
}

func (c *ConsultationUseCase) Get(ctx context.Context, userID string, id model.RecordID) (*model.Recommendation, error) {
	rec, err := c.uc.repo.Recommendation().Get(ctx, userID, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get recommendation")
	}
	return rec, nil
}

func (c *ConsultationUseCase) Delete(ctx context.Context, userID string, id model.RecordID) error {
	if err := c.uc.repo.Recommendation().Delete(ctx, userID, id); err != nil {
		return goerr.Wrap(err, "failed to delete recommendation")
	}
	return nil
}

// Invalidate drops the cached recommendation for fp so the next identical consultation asks the
// AI backend again. Only the owner may invalidate a live entry.
func (c *ConsultationUseCase) Invalidate(ctx context.Context, userID string, fp model.Fingerprint) error {
	cached, err := c.uc.cache.Lookup(ctx, fp)
	switch {
	case err == nil && cached.UserID != userID:
		return goerr.Wrap(model.ErrAccessDenied, "recommendation belongs to another user",
			goerr.V(model.UserIDKey, userID),
			goerr.V(model.FingerprintKey, fp))
	case err != nil && !errors.Is(err, model.ErrNotFound):
		return goerr.Wrap(err, "failed to look up cached recommendation", goerr.V(model.FingerprintKey, fp))
	}

	c.uc.cache.Invalidate(ctx, fp)
	return nil
}

// UploadImage stores a user photo and returns the reference to pass as ConsultInput.ImageRef
func (c *ConsultationUseCase) UploadImage(ctx context.Context, userID, contentType string, r io.Reader) (string, error) {
	if c.uc.imageStore == nil {
		return "", goerr.Wrap(ErrImageStoreNotConfigured, "cannot upload image")
	}

	ref, err := c.uc.imageStore.Upload(ctx, userID, contentType, r)
	if err != nil {
		return "", goerr.Wrap(err, "failed to upload image", goerr.V(model.UserIDKey, userID))
	}
	return ref, nil
}
