package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// profileDocument is stored as the users/{userID} document itself
type profileDocument struct {
	UserID       string    `firestore:"user_id"`
	FullName     string    `firestore:"full_name"`
	Email        string    `firestore:"email"`
	Phone        string    `firestore:"phone"`
	HairStyle    string    `firestore:"hair_style"`
	HairQuality  string    `firestore:"hair_quality"`
	HairLength   string    `firestore:"hair_length"`
	HairColor    string    `firestore:"hair_color"`
	HairTexture  string    `firestore:"hair_texture"`
	HairConcerns string    `firestore:"hair_concerns"`
	UpdatedAt    time.Time `firestore:"updated_at"`
}

type profileRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newProfileRepository(client *firestore.Client) *profileRepository {
	return &profileRepository{
		client: client,
	}
}

func profileToDocument(p *model.HairProfile) *profileDocument {
	return &profileDocument{
		UserID:       p.UserID,
		FullName:     p.FullName,
		Email:        p.Email,
		Phone:        p.Phone,
		HairStyle:    p.HairStyle,
		HairQuality:  p.HairQuality,
		HairLength:   p.HairLength,
		HairColor:    p.HairColor,
		HairTexture:  p.HairTexture,
		HairConcerns: p.HairConcerns,
		UpdatedAt:    p.UpdatedAt,
	}
}

func profileToModel(doc *profileDocument) *model.HairProfile {
	return &model.HairProfile{
		UserID:       doc.UserID,
		FullName:     doc.FullName,
		Email:        doc.Email,
		Phone:        doc.Phone,
		HairStyle:    doc.HairStyle,
		HairQuality:  doc.HairQuality,
		HairLength:   doc.HairLength,
		HairColor:    doc.HairColor,
		HairTexture:  doc.HairTexture,
		HairConcerns: doc.HairConcerns,
		UpdatedAt:    doc.UpdatedAt,
	}
}

func (r *profileRepository) Get(ctx context.Context, userID string) (*model.HairProfile, error) {
	doc, err := r.client.Collection(usersCollection(r.collectionPrefix)).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "profile not found", goerr.V(model.UserIDKey, userID))
		}
		return nil, persistenceError(err, "failed to get profile", goerr.V(model.UserIDKey, userID))
	}

	var profDoc profileDocument
	if err := doc.DataTo(&profDoc); err != nil {
		return nil, persistenceError(err, "failed to unmarshal profile", goerr.V(model.UserIDKey, userID))
	}
	if profDoc.UserID == "" {
		profDoc.UserID = userID
	}

	return profileToModel(&profDoc), nil
}

func (r *profileRepository) Put(ctx context.Context, profile *model.HairProfile) (*model.HairProfile, error) {
	if profile.UserID == "" {
		return nil, goerr.Wrap(model.ErrValidation, "user ID is required to save profile")
	}

	saved := *profile
	saved.UpdatedAt = time.Now().UTC()
	doc := profileToDocument(&saved)

	docRef := r.client.Collection(usersCollection(r.collectionPrefix)).Doc(saved.UserID)
	if _, err := docRef.Set(ctx, doc); err != nil {
		return nil, persistenceError(err, "failed to save profile", goerr.V(model.UserIDKey, saved.UserID))
	}

	return profileToModel(doc), nil
}
