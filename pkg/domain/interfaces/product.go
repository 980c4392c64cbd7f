package interfaces

import (
	"context"

	"github.com/hairlab/stylist/pkg/domain/model"
)

// ProductRepository defines the interface for the product catalog
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) (*model.Product, error)
	Get(ctx context.Context, id model.ProductID) (*model.Product, error)

	// List returns all products ordered by category then name
	List(ctx context.Context) ([]*model.Product, error)

	Update(ctx context.Context, product *model.Product) (*model.Product, error)
	Delete(ctx context.Context, id model.ProductID) error
}
