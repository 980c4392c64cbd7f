package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// ProductID is a UUID-based identifier for Product
type ProductID string

// NewProductID generates a new UUID v4 ProductID
func NewProductID() ProductID {
	return ProductID(uuid.New().String())
}

func (id ProductID) String() string {
	return string(id)
}

// Product is a hair care item the consultant may recommend
type Product struct {
	ID          ProductID
	Name        string
	Description string
	Price       float64
	StockAmount int
	Category    string
	Brand       string
	ImageURL    string
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks if the Product is valid
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return goerr.Wrap(ErrValidation, "product name is required")
	}
	if strings.TrimSpace(p.Category) == "" {
		return goerr.Wrap(ErrValidation, "product category is required", goerr.V("name", p.Name))
	}
	if p.Price < 0 {
		return goerr.Wrap(ErrValidation, "product price must not be negative", goerr.V("name", p.Name), goerr.V("price", p.Price))
	}
	if p.StockAmount < 0 {
		return goerr.Wrap(ErrValidation, "product stock must not be negative", goerr.V("name", p.Name), goerr.V("stock", p.StockAmount))
	}
	return nil
}

// InStock reports whether the product can be recommended
func (p *Product) InStock() bool {
	return p.Available && p.StockAmount > 0
}
