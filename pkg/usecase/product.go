package usecase

import (
	"context"

	"github.com/hairlab/stylist/pkg/domain/interfaces"
	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/hairlab/stylist/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

const seedConcurrency = 4

type ProductUseCase struct {
	repo interfaces.Repository
}

func NewProductUseCase(repo interfaces.Repository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

func (uc *ProductUseCase) List(ctx context.Context) ([]*model.Product, error) {
	products, err := uc.repo.Product().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list products")
	}
	return products, nil
}

// Catalog returns the products that can be recommended right now
func (uc *ProductUseCase) Catalog(ctx context.Context) ([]*model.Product, error) {
	products, err := uc.List(ctx)
	if err != nil {
		return nil, err
	}

	inStock := make([]*model.Product, 0, len(products))
	for _, p := range products {
		if p.InStock() {
			inStock = append(inStock, p)
		}
	}
	return inStock, nil
}

func (uc *ProductUseCase) Get(ctx context.Context, id model.ProductID) (*model.Product, error) {
	product, err := uc.repo.Product().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get product", goerr.V(model.ProductIDKey, id))
	}
	return product, nil
}

func (uc *ProductUseCase) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	if err := product.Validate(); err != nil {
		return nil, err
	}

	created, err := uc.repo.Product().Create(ctx, product)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create product", goerr.V("name", product.Name))
	}
	return created, nil
}

func (uc *ProductUseCase) Update(ctx context.Context, product *model.Product) (*model.Product, error) {
	if product.ID == "" {
		return nil, goerr.Wrap(model.ErrValidation, "product ID is required")
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	updated, err := uc.repo.Product().Update(ctx, product)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update product", goerr.V(model.ProductIDKey, product.ID))
	}
	return updated, nil
}

func (uc *ProductUseCase) Delete(ctx context.Context, id model.ProductID) error {
	if err := uc.repo.Product().Delete(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete product", goerr.V(model.ProductIDKey, id))
	}
	return nil
}

// Seed creates products when the catalog is empty and returns how many were created.
// A non-empty catalog is left untouched.
func (uc *ProductUseCase) Seed(ctx context.Context, products []*model.Product) (int, error) {
	existing, err := uc.repo.Product().List(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to check product catalog")
	}
	if len(existing) > 0 {
		logging.From(ctx).Info("product catalog already populated, skipping seed", "count", len(existing))
		return 0, nil
	}

	for _, p := range products {
		if err := p.Validate(); err != nil {
			return 0, err
		}
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(seedConcurrency)
	for _, p := range products {
		eg.Go(func() error {
			if _, err := uc.repo.Product().Create(ctx, p); err != nil {
				return goerr.Wrap(err, "failed to seed product", goerr.V("name", p.Name))
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	logging.From(ctx).Info("product catalog seeded", "count", len(products))
	return len(products), nil
}
