package firestore

import (
	"context"
	"errors"
	"iter"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/hairlab/stylist/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type recommendationDocument struct {
	RecordID           string    `firestore:"record_id"`
	UserID             string    `firestore:"user_id"`
	RequestFingerprint string    `firestore:"request_fingerprint"`
	StyleName          string    `firestore:"style_name"`
	Description        string    `firestore:"description"`
	Confidence         float64   `firestore:"confidence"`
	Products           []string  `firestore:"products"`
	GeneratedAt        time.Time `firestore:"generated_at"`
	SavedAt            time.Time `firestore:"saved_at"`
}

type recommendationRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newRecommendationRepository(client *firestore.Client) *recommendationRepository {
	return &recommendationRepository{
		client: client,
	}
}

// collection returns users/{userID}/recommendations
func (r *recommendationRepository) collection(userID string) *firestore.CollectionRef {
	return r.client.Collection(usersCollection(r.collectionPrefix)).Doc(userID).Collection("recommendations")
}

func recommendationToDocument(rec *model.Recommendation) *recommendationDocument {
	products := rec.Products
	if products == nil {
		products = []string{}
	}
	return &recommendationDocument{
		RecordID:           string(rec.RecordID),
		UserID:             rec.UserID,
		RequestFingerprint: string(rec.RequestFingerprint),
		StyleName:          rec.StyleName,
		Description:        rec.Description,
		Confidence:         rec.Confidence.Float64(),
		Products:           products,
		GeneratedAt:        rec.GeneratedAt,
		SavedAt:            rec.SavedAt,
	}
}

func recommendationToModel(doc *recommendationDocument) *model.Recommendation {
	return &model.Recommendation{
		RecordID:           model.RecordID(doc.RecordID),
		UserID:             doc.UserID,
		RequestFingerprint: model.Fingerprint(doc.RequestFingerprint),
		StyleName:          doc.StyleName,
		Description:        doc.Description,
		Confidence:         types.Confidence(doc.Confidence),
		Products:           doc.Products,
		GeneratedAt:        doc.GeneratedAt,
		SavedAt:            doc.SavedAt,
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

	docRef := r.collection(saved.UserID).Doc(string(saved.RecordID))
	if _, err := docRef.Set(ctx, recommendationToDocument(saved)); err != nil {
		return "", persistenceError(err, "failed to save recommendation",
			goerr.V(model.UserIDKey, saved.UserID),
			goerr.V(model.RecordIDKey, saved.RecordID))
	}

	return saved.RecordID, nil
}

func (r *recommendationRepository) Get(ctx context.Context, userID string, id model.RecordID) (*model.Recommendation, error) {
	doc, err := r.collection(userID).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "recommendation not found",
				goerr.V(model.UserIDKey, userID),
				goerr.V(model.RecordIDKey, id))
		}
		return nil, persistenceError(err, "failed to get recommendation",
			goerr.V(model.UserIDKey, userID),
			goerr.V(model.RecordIDKey, id))
	}

	var recDoc recommendationDocument
	if err := doc.DataTo(&recDoc); err != nil {
		return nil, persistenceError(err, "failed to unmarshal recommendation", goerr.V(model.RecordIDKey, id))
	}

	return recommendationToModel(&recDoc), nil
}

// List runs a new query every time the sequence is ranged over
func (r *recommendationRepository) List(ctx context.Context, userID string) iter.Seq2[*model.Recommendation, error] {
	return func(yield func(*model.Recommendation, error) bool) {
		it := r.collection(userID).OrderBy("saved_at", firestore.Desc).Documents(ctx)
		defer it.Stop()

		for {
			doc, err := it.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				yield(nil, persistenceError(err, "failed to iterate recommendations", goerr.V(model.UserIDKey, userID)))
				return
			}

			var recDoc recommendationDocument
			if err := doc.DataTo(&recDoc); err != nil {
				yield(nil, persistenceError(err, "failed to unmarshal recommendation",
					goerr.V(model.UserIDKey, userID),
					goerr.V("docID", doc.Ref.ID)))
				return
			}

			if !yield(recommendationToModel(&recDoc), nil) {
				return
			}
		}
	}
}

func (r *recommendationRepository) Delete(ctx context.Context, userID string, id model.RecordID) error {
	docRef := r.collection(userID).Doc(string(id))

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "recommendation not found",
				goerr.V(model.UserIDKey, userID),
				goerr.V(model.RecordIDKey, id))
		}
		return persistenceError(err, "failed to get recommendation", goerr.V(model.RecordIDKey, id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return persistenceError(err, "failed to delete recommendation", goerr.V(model.RecordIDKey, id))
	}
	return nil
}
