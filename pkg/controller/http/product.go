package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hairlab/stylist/pkg/domain/model"
)

type productRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price" validate:"gte=0"`
	StockAmount int     `json:"stock_amount" validate:"gte=0"`
	Category    string  `json:"category" validate:"required,max=100"`
	Brand       string  `json:"brand" validate:"max=100"`
	ImageURL    string  `json:"image_url" validate:"omitempty,url"`
	Available   bool    `json:"available"`
}

func (p productRequest) toModel(id model.ProductID) *model.Product {
	return &model.Product{
		ID:          id,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		StockAmount: p.StockAmount,
		Category:    p.Category,
		Brand:       p.Brand,
		ImageURL:    p.ImageURL,
		Available:   p.Available,
	}
}

type productResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	StockAmount int       `json:"stock_amount"`
	Category    string    `json:"category"`
	Brand       string    `json:"brand"`
	ImageURL    string    `json:"image_url"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProductResponse(p *model.Product) productResponse {
	return productResponse{
		ID:          p.ID.String(),
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

// listProductsHandler returns the whole catalog, or only recommendable items with ?in_stock=true
func (s *Server) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list := s.uc.Product.List
	if r.URL.Query().Get("in_stock") == "true" {
		list = s.uc.Product.Catalog
	}

	products, err := list(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = toProductResponse(p)
	}
	writeJSON(ctx, w, http.StatusOK, map[string]any{"products": resp})
}

func (s *Server) getProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	product, err := s.uc.Product.Get(ctx, model.ProductID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toProductResponse(product))
}

func (s *Server) createProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req productRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := s.uc.Product.Create(ctx, req.toModel(""))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, toProductResponse(created))
}

func (s *Server) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req productRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := s.uc.Product.Update(ctx, req.toModel(model.ProductID(chi.URLParam(r, "id"))))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toProductResponse(updated))
}

func (s *Server) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.uc.Product.Delete(ctx, model.ProductID(chi.URLParam(r, "id"))); err != nil {
		writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
