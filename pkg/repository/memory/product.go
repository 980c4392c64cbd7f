package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type productRepository struct {
	mu       sync.RWMutex
	products map[model.ProductID]*model.Product
}

func newProductRepository() *productRepository {
	return &productRepository{
		products: make(map[model.ProductID]*model.Product),
	}
}

func copyProduct(p *model.Product) *model.Product {
	copied := *p
	return &copied
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyProduct(product)
	if created.ID == "" {
		created.ID = model.NewProductID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	r.products[created.ID] = created
	return copyProduct(created), nil
}

func (r *productRepository) Get(ctx context.Context, id model.ProductID) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "product not found", goerr.V(model.ProductIDKey, id))
	}
	return copyProduct(p), nil
}

func (r *productRepository) List(ctx context.Context) ([]*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]*model.Product, 0, len(r.products))
	for _, p := range r.products {
		products = append(products, copyProduct(p))
	}

	slices.SortFunc(products, func(a, b *model.Product) int {
		if c := cmp.Compare(a.Category, b.Category); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return products, nil
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "product not found", goerr.V(model.ProductIDKey, product.ID))
	}

	updated := copyProduct(product)
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	r.products[updated.ID] = updated

	return copyProduct(updated), nil
}

func (r *productRepository) Delete(ctx context.Context, id model.ProductID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return goerr.Wrap(ErrNotFound, "product not found", goerr.V(model.ProductIDKey, id))
	}
	delete(r.products, id)
	return nil
}
