package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type productDocument struct {
	ID          string    `firestore:"id"`
	Name        string    `firestore:"name"`
	Description string    `firestore:"description"`
	Price       float64   `firestore:"price"`
	StockAmount int       `firestore:"stock_amount"`
	Category    string    `firestore:"category"`
	Brand       string    `firestore:"brand"`
	ImageURL    string    `firestore:"image_url"`
	Available   bool      `firestore:"available"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

type productRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newProductRepository(client *firestore.Client) *productRepository {
	return &productRepository{
		client: client,
	}
}

// ProductsCollectionName returns the products collection for prefix, shared with index migration
func ProductsCollectionName(prefix string) string {
	if prefix != "" {
		return prefix + "_products"
	}
	return "products"
}

func (r *productRepository) productsCollection() string {
	return ProductsCollectionName(r.collectionPrefix)
}

func productToDocument(p *model.Product) *productDocument {
	return &productDocument{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		StockAmount: p.StockAmount,
		Category:    p.Category,
		Brand:       p.Brand,
		ImageURL:    p.ImageURL,
		Available:   p.Available,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func productToModel(doc *productDocument) *model.Product {
	return &model.Product{
		ID:          model.ProductID(doc.ID),
		Name:        doc.Name,
		Description: doc.Description,
		Price:       doc.Price,
		StockAmount: doc.StockAmount,
		Category:    doc.Category,
		Brand:       doc.Brand,
		ImageURL:    doc.ImageURL,
		Available:   doc.Available,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	now := time.Now().UTC()
	created := *product
	if created.ID == "" {
		created.ID = model.NewProductID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	doc := productToDocument(&created)
	if _, err := r.client.Collection(r.productsCollection()).Doc(doc.ID).Set(ctx, doc); err != nil {
		return nil, persistenceError(err, "failed to create product", goerr.V(model.ProductIDKey, created.ID))
	}

	return productToModel(doc), nil
}

func (r *productRepository) Get(ctx context.Context, id model.ProductID) (*model.Product, error) {
	doc, err := r.client.Collection(r.productsCollection()).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "product not found", goerr.V(model.ProductIDKey, id))
		}
		return nil, persistenceError(err, "failed to get product", goerr.V(model.ProductIDKey, id))
	}

	var prodDoc productDocument
	if err := doc.DataTo(&prodDoc); err != nil {
		return nil, persistenceError(err, "failed to unmarshal product", goerr.V(model.ProductIDKey, id))
	}

	return productToModel(&prodDoc), nil
}

func (r *productRepository) List(ctx context.Context) ([]*model.Product, error) {
	iter := r.client.Collection(r.productsCollection()).
		OrderBy("category", firestore.Asc).
		OrderBy("name", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var products []*model.Product
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, persistenceError(err, "failed to iterate products")
		}

		var prodDoc productDocument
		if err := doc.DataTo(&prodDoc); err != nil {
			return nil, persistenceError(err, "failed to unmarshal product", goerr.V("docID", doc.Ref.ID))
		}

		products = append(products, productToModel(&prodDoc))
	}

	return products, nil
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) (*model.Product, error) {
	docRef := r.client.Collection(r.productsCollection()).Doc(string(product.ID))

	existing, err := r.Get(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	updated := *product
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	doc := productToDocument(&updated)
	if _, err := docRef.Set(ctx, doc); err != nil {
		return nil, persistenceError(err, "failed to update product", goerr.V(model.ProductIDKey, product.ID))
	}

	return productToModel(doc), nil
}

func (r *productRepository) Delete(ctx context.Context, id model.ProductID) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}

	if _, err := r.client.Collection(r.productsCollection()).Doc(string(id)).Delete(ctx); err != nil {
		return persistenceError(err, "failed to delete product", goerr.V(model.ProductIDKey, id))
	}
	return nil
}
