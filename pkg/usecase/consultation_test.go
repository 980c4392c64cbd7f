package usecase_test

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hairlab/stylist/pkg/domain/interfaces"
	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/hairlab/stylist/pkg/repository/memory"
	"github.com/hairlab/stylist/pkg/service/imagestore"
	"github.com/hairlab/stylist/pkg/usecase"
	"github.com/hairlab/stylist/pkg/utils/async"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

type mockGateway struct {
	calls   atomic.Int32
	lastReq atomic.Pointer[model.ConsultationRequest]
	err     error
}

func (m *mockGateway) Consult(ctx context.Context, req *model.ConsultationRequest) (*model.Recommendation, error) {
	m.calls.Add(1)
	m.lastReq.Store(req)
	if m.err != nil {
		return nil, m.err
	}
	return &model.Recommendation{
		UserID:             req.UserID(),
		RequestFingerprint: req.Fingerprint(),
		StyleName:          "Layered Bob",
		Description:        "Soft layers framing the face",
		Confidence:         0.87,
		Products:           []string{"Volume Lift Shampoo"},
		GeneratedAt:        time.Now().UTC(),
	}, nil
}

type mockNotifier struct {
	mu       sync.Mutex
	accepted []*model.Recommendation
}

func (m *mockNotifier) NotifyAccepted(ctx context.Context, rec *model.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accepted = append(m.accepted, rec)
	return nil
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accepted)
}

// flakyRepository fails recommendation saves with a persistence error while down is set.
// An armed gate holds the next save until it is released.
type flakyRepository struct {
	*memory.Memory
	down atomic.Bool
	gate atomic.Pointer[saveGate]
}

type saveGate struct {
	entered chan struct{}
	release chan struct{}
}

func (r *flakyRepository) armGate() *saveGate {
	g := &saveGate{entered: make(chan struct{}), release: make(chan struct{})}
	r.gate.Store(g)
	return g
}

func (r *flakyRepository) Recommendation() interfaces.RecommendationRepository {
	return &flakyRecommendations{RecommendationRepository: r.Memory.Recommendation(), down: &r.down, gate: &r.gate}
}

type flakyRecommendations struct {
	interfaces.RecommendationRepository
	down *atomic.Bool
	gate *atomic.Pointer[saveGate]
}

func (r *flakyRecommendations) Save(ctx context.Context, rec *model.Recommendation) (model.RecordID, error) {
	if g := r.gate.Swap(nil); g != nil {
		close(g.entered)
		<-g.release
	}
	if r.down.Load() {
		return "", goerr.Wrap(errors.Join(model.ErrPersistence, errors.New("connection refused")), "store unavailable")
	}
	return r.RecommendationRepository.Save(ctx, rec)
}

func (r *flakyRecommendations) List(ctx context.Context, userID string) iter.Seq2[*model.Recommendation, error] {
	return r.RecommendationRepository.List(ctx, userID)
}

func newConsultation(t *testing.T, repo interfaces.Repository, gw interfaces.Gateway, opts ...usecase.Option) *usecase.UseCases {
	t.Helper()
	opts = append([]usecase.Option{usecase.WithGateway(gw)}, opts...)
	uc, err := usecase.New(repo, opts...)
	gt.NoError(t, err)
	return uc
}

func consultInput(userID string) usecase.ConsultInput {
	return usecase.ConsultInput{
		UserID:     userID,
		ImageRef:   "gs://photos/users/" + userID + "/images/front.jpg",
		Attributes: map[string]string{"hair_length": "medium", "face_shape": "oval"},
		Preference: "low maintenance",
	}
}

func TestConsultationUseCase_Consult(t *testing.T) {
	t.Run("identical consultations call the gateway once", func(t *testing.T) {
		gw := &mockGateway{}
		uc := newConsultation(t, memory.New(), gw)
		ctx := context.Background()

		first := gt.R1(uc.Consultation.Consult(ctx, consultInput("alice"))).NoError(t)
		second := gt.R1(uc.Consultation.Consult(ctx, consultInput("alice"))).NoError(t)

		gt.Value(t, gw.calls.Load()).Equal(int32(1))
		gt.Value(t, first.Fingerprint).Equal(second.Fingerprint)
		gt.Value(t, second.Recommendation.StyleName).Equal("Layered Bob")
	})

	t.Run("different users get separate entries", func(t *testing.T) {
		gw := &mockGateway{}
		uc := newConsultation(t, memory.New(), gw)
		ctx := context.Background()

		a := gt.R1(uc.Consultation.Consult(ctx, consultInput("alice"))).NoError(t)
		b := gt.R1(uc.Consultation.Consult(ctx, consultInput("bob"))).NoError(t)

		gt.Value(t, gw.calls.Load()).Equal(int32(2))
		gt.Value(t, a.Fingerprint == b.Fingerprint).Equal(false)
	})

	t.Run("invalid input does not reach the gateway", func(t *testing.T) {
		gw := &mockGateway{}
		uc := newConsultation(t, memory.New(), gw)

		in := consultInput("alice")
		in.ImageRef = "  "
		_, err := uc.Consultation.Consult(context.Background(), in)
		gt.True(t, errors.Is(err, model.ErrValidation))
		gt.Value(t, gw.calls.Load()).Equal(int32(0))
	})

	t.Run("gateway errors keep their classification", func(t *testing.T) {
		gw := &mockGateway{err: goerr.Wrap(model.ErrGatewayPermanent, "quota exceeded")}
		uc := newConsultation(t, memory.New(), gw)

		_, err := uc.Consultation.Consult(context.Background(), consultInput("alice"))
		gt.True(t, errors.Is(err, model.ErrGatewayPermanent))
	})

	t.Run("fails without gateway", func(t *testing.T) {
		uc, err := usecase.New(memory.New())
		gt.NoError(t, err)

		_, err = uc.Consultation.Consult(context.Background(), consultInput("alice"))
		gt.True(t, errors.Is(err, usecase.ErrGatewayNotConfigured))
	})

	t.Run("merges stored profile under explicit attributes", func(t *testing.T) {
		repo := memory.New()
		ctx := context.Background()
		_, err := repo.Profile().Put(ctx, &model.HairProfile{
			UserID:      "alice",
			HairStyle:   "pixie",
			HairQuality: "fine",
			HairLength:  "short",
			HairColor:   "brown",
			HairTexture: "straight",
		})
		gt.NoError(t, err)

		gw := &mockGateway{}
		uc := newConsultation(t, repo, gw)

		in := consultInput("alice")
		in.UseProfile = true
		gt.R1(uc.Consultation.Consult(ctx, in)).NoError(t)

		attrs := gw.lastReq.Load().Attributes()
		gt.Value(t, attrs["hair_length"]).Equal("medium")
		gt.Value(t, attrs["hair_style"]).Equal("pixie")
		gt.Value(t, attrs["face_shape"]).Equal("oval")
	})

	t.Run("missing profile is ignored", func(t *testing.T) {
		gw := &mockGateway{}
		uc := newConsultation(t, memory.New(), gw)

		in := consultInput("alice")
		in.UseProfile = true
		gt.R1(uc.Consultation.Consult(context.Background(), in)).NoError(t)
		gt.A(t, gw.lastReq.Load().AttributeKeys()).Length(2)
	})
}

func TestConsultationUseCase_Accept(t *testing.T) {
	t.Run("saves the cached recommendation and notifies", func(t *testing.T) {
		repo := memory.New()
		notifier := &mockNotifier{}
		uc := newConsultation(t, repo, &mockGateway{}, usecase.WithNotifier(notifier))
		ctx := context.Background()

		res := gt.R1(uc.Consultation.Consult(ctx, consultInput("alice"))).NoError(t)
		accepted := gt.R1(uc.Consultation.Accept(ctx, "alice", res.Fingerprint)).NoError(t)
		gt.False(t, accepted.Queued)
		gt.Value(t, accepted.RecordID).NotEqual(model.RecordID(""))

		saved := gt.R1(uc.Consultation.Get(ctx, "alice", accepted.RecordID)).NoError(t)
		gt.Value(t, saved.StyleName).Equal("Layered Bob")
		gt.Value(t, saved.RequestFingerprint).Equal(res.Fingerprint)
		gt.False(t, saved.SavedAt.IsZero())

		async.Wait()
		gt.Value(t, notifier.count()).Equal(1)
	})

	t.Run("unknown fingerprint is not found", func(t *testing.T) {
		uc := newConsultation(t, memory.New(), &mockGateway{})

		_, err := uc.Consultation.Accept(context.Background(), "alice", model.Fingerprint("deadbeef"))
		gt.True(t, errors.Is(err, model.ErrNotFound))
	})

	t.Run("another user cannot accept", func(t *testing.T) {
		uc := newConsultation(t, memory.New(), &mockGateway{})
		ctx := context.Background()

		res := gt.R1(uc.Consultation.Consult(ctx, consultInput("alice"))).NoError(t)
		_, err := uc.Consultation.Accept(ctx, "mallory", res.Fingerprint)
		gt.True(t, errors.Is(err, model.ErrAccessDenied))
	})

	t.Run("surfaces persistence error without pending queue", func(t *testing.T) {
		repo := &flakyRepository{Memory: memory.New()}
		uc := newConsultation(t, repo, &mockGateway{})
		ctx := context.Background()

		res := gt.R1(uc.Consultation.Consult(ctx, consultInput("alice"))).NoError(t)
		repo.down.Store(true)

		_, err := uc.Consultation.Accept(ctx, "alice", res.Fingerprint)
		gt.True(t, errors.Is(err, model.ErrPersistence))
		gt.Value(t, uc.Consultation.PendingCount()).Equal(0)
	})

	t.Run("queues on persistence error and flushes later", func(t *testing.T) {
		repo := &flakyRepository{Memory: memory.New()}
		notifier := &mockNotifier{}
		uc := newConsultation(t, repo, &mockGateway{},
			usecase.WithPendingQueue(10),
			usecase.WithNotifier(notifier),
		)
		ctx := context.Background()

		res := gt.R1(uc.Consultation.Consult(ctx, consultInput("alice"))).NoError(t)
		repo.down.Store(true)

		accepted := gt.R1(uc.Consultation.Accept(ctx, "alice", res.Fingerprint)).NoError(t)
		gt.True(t, accepted.Queued)
		gt.Value(t, uc.Consultation.PendingCount()).Equal(1)

		flushed, err := uc.Consultation.FlushPending(ctx)
		gt.True(t, errors.Is(err, model.ErrPersistence))
		gt.Value(t, flushed).Equal(0)
		gt.Value(t, uc.Consultation.PendingCount()).Equal(1)

		repo.down.Store(false)
		flushed = gt.R1(uc.Consultation.FlushPending(ctx)).NoError(t)
		gt.Value(t, flushed).Equal(1)
		gt.Value(t, uc.Consultation.PendingCount()).Equal(0)

		saved := gt.R1(uc.Consultation.Get(ctx, "alice", accepted.RecordID)).NoError(t)
		gt.Value(t, saved.StyleName).Equal("Layered Bob")

		async.Wait()
		gt.Value(t, notifier.count()).Equal(1)
	})

	t.Run("queues while a flush is saving", func(t *testing.T) {
		repo := &flakyRepository{Memory: memory.New()}
		uc := newConsultation(t, repo, &mockGateway{}, usecase.WithPendingQueue(10))
		ctx := context.Background()

		a := gt.R1(uc.Consultation.Consult(ctx, consultInput("alice"))).NoError(t)
		b := gt.R1(uc.Consultation.Consult(ctx, consultInput("bob"))).NoError(t)
		repo.down.Store(true)
		gt.True(t, gt.R1(uc.Consultation.Accept(ctx, "alice", a.Fingerprint)).NoError(t).Queued)

		gate := repo.armGate()
		type flushResult struct {
			n   int
			err error
		}
		flushDone := make(chan flushResult, 1)
		go func() {
			n, err := uc.Consultation.FlushPending(ctx)
			flushDone <- flushResult{n: n, err: err}
		}()
		<-gate.entered

		acceptDone := make(chan *usecase.AcceptResult, 1)
		go func() {
			res, err := uc.Consultation.Accept(ctx, "bob", b.Fingerprint)
			if err != nil {
				t.Error(err)
			}
			acceptDone <- res
		}()

		select {
		case res := <-acceptDone:
			gt.Value(t, res).NotNil().Required()
			gt.True(t, res.Queued)
		case <-time.After(2 * time.Second):
			close(gate.release)
			t.Fatal("accept blocked behind an in-progress flush")
		}
		gt.Value(t, uc.Consultation.PendingCount()).Equal(2)

		repo.down.Store(false)
		close(gate.release)
		res := <-flushDone
		gt.NoError(t, res.err)
		gt.Value(t, res.n).Equal(1)
		gt.Value(t, uc.Consultation.PendingCount()).Equal(1)

		gt.Value(t, gt.R1(uc.Consultation.FlushPending(ctx)).NoError(t)).Equal(1)
		gt.Value(t, uc.Consultation.PendingCount()).Equal(0)
	})

	t.Run("failed flush keeps order ahead of newer entries", func(t *testing.T) {
		repo := &flakyRepository{Memory: memory.New()}
		uc := newConsultation(t, repo, &mockGateway{}, usecase.WithPendingQueue(10))
		ctx := context.Background()

		a := gt.R1(uc.Consultation.Consult(ctx, consultInput("alice"))).NoError(t)
		b := gt.R1(uc.Consultation.Consult(ctx, consultInput("bob"))).NoError(t)
		repo.down.Store(true)
		first := gt.R1(uc.Consultation.Accept(ctx, "alice", a.Fingerprint)).NoError(t)

		gate := repo.armGate()
		flushErr := make(chan error, 1)
		go func() {
			_, err := uc.Consultation.FlushPending(ctx)
			flushErr <- err
		}()
		<-gate.entered

		second := gt.R1(uc.Consultation.Accept(ctx, "bob", b.Fingerprint)).NoError(t)
		gt.True(t, second.Queued)
		close(gate.release)
		gt.True(t, errors.Is(<-flushErr, model.ErrPersistence))
		gt.Value(t, uc.Consultation.PendingCount()).Equal(2)

		repo.down.Store(false)
		gt.Value(t, gt.R1(uc.Consultation.FlushPending(ctx)).NoError(t)).Equal(2)
		gt.R1(uc.Consultation.Get(ctx, "alice", first.RecordID)).NoError(t)
		gt.R1(uc.Consultation.Get(ctx, "bob", second.RecordID)).NoError(t)
	})

	t.Run("rejects when pending queue is full", func(t *testing.T) {
		repo := &flakyRepository{Memory: memory.New()}
		uc := newConsultation(t, repo, &mockGateway{}, usecase.WithPendingQueue(1))
		ctx := context.Background()

		a := gt.R1(uc.Consultation.Consult(ctx, consultInput("alice"))).NoError(t)
		b := gt.R1(uc.Consultation.Consult(ctx, consultInput("bob"))).NoError(t)
		repo.down.Store(true)

		gt.R1(uc.Consultation.Accept(ctx, "alice", a.Fingerprint)).NoError(t)
		_, err := uc.Consultation.Accept(ctx, "bob", b.Fingerprint)
		gt.True(t, errors.Is(err, usecase.ErrPendingQueueFull))
		gt.True(t, errors.Is(err, model.ErrPersistence))
	})
}

func TestConsultationUseCase_List(t *testing.T) {
	repo := memory.New()
	uc := newConsultation(t, repo, &mockGateway{})
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, name := range []string{"Pixie Cut", "Layered Bob", "Beach Waves"} {
		_, err := repo.Recommendation().Save(ctx, &model.Recommendation{
			UserID:     "alice",
			StyleName:  name,
			Confidence: 0.5,
			SavedAt:    base.Add(time.Duration(i) * time.Hour),
		})
		gt.NoError(t, err)
	}

	t.Run("newest first", func(t *testing.T) {
		recs := gt.R1(uc.Consultation.List(ctx, "alice", 0)).NoError(t)
		gt.A(t, recs).Length(3)
		gt.Value(t, recs[0].StyleName).Equal("Beach Waves")
		gt.Value(t, recs[2].StyleName).Equal("Pixie Cut")
	})

	t.Run("limit", func(t *testing.T) {
		recs := gt.R1(uc.Consultation.List(ctx, "alice", 2)).NoError(t)
		gt.A(t, recs).Length(2)
	})

	t.Run("other user sees nothing", func(t *testing.T) {
		recs := gt.R1(uc.Consultation.List(ctx, "bob", 0)).NoError(t)
		gt.A(t, recs).Length(0)
	})

	t.Run("delete", func(t *testing.T) {
		recs := gt.R1(uc.Consultation.List(ctx, "alice", 1)).NoError(t)
		gt.NoError(t, uc.Consultation.Delete(ctx, "alice", recs[0].RecordID))

		_, err := uc.Consultation.Get(ctx, "alice", recs[0].RecordID)
		gt.True(t, errors.Is(err, model.ErrNotFound))
	})
}

func TestConsultationUseCase_Invalidate(t *testing.T) {
	gw := &mockGateway{}
	uc := newConsultation(t, memory.New(), gw)
	ctx := context.Background()

	res := gt.R1(uc.Consultation.Consult(ctx, consultInput("alice"))).NoError(t)

	err := uc.Consultation.Invalidate(ctx, "mallory", res.Fingerprint)
	gt.True(t, errors.Is(err, model.ErrAccessDenied))

	gt.NoError(t, uc.Consultation.Invalidate(ctx, "alice", res.Fingerprint))
	_, err = uc.Consultation.Accept(ctx, "alice", res.Fingerprint)
	gt.True(t, errors.Is(err, model.ErrNotFound))

	gt.R1(uc.Consultation.Consult(ctx, consultInput("alice"))).NoError(t)
	gt.Value(t, gw.calls.Load()).Equal(int32(2))

	// unknown fingerprints are a no-op
	gt.NoError(t, uc.Consultation.Invalidate(ctx, "alice", model.Fingerprint("unknown")))
}

func TestConsultationUseCase_UploadImage(t *testing.T) {
	t.Run("stores image", func(t *testing.T) {
		store := imagestore.NewMemory()
		uc := newConsultation(t, memory.New(), &mockGateway{}, usecase.WithImageStore(store))

		ref := gt.R1(uc.Consultation.UploadImage(context.Background(), "alice", "image/jpeg", strings.NewReader("jpeg-bytes"))).NoError(t)
		gt.String(t, ref).HasPrefix("gs://memory/users/alice/images/")
	})

	t.Run("fails without store", func(t *testing.T) {
		uc := newConsultation(t, memory.New(), &mockGateway{})

		_, err := uc.Consultation.UploadImage(context.Background(), "alice", "image/jpeg", strings.NewReader("x"))
		gt.True(t, errors.Is(err, usecase.ErrImageStoreNotConfigured))
	})
}
