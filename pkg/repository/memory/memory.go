package memory

import (
	"github.com/hairlab/stylist/pkg/domain/interfaces"
	"github.com/hairlab/stylist/pkg/domain/model"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = model.ErrNotFound

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	recommendation *recommendationRepository
	profile        *profileRepository
	product        *productRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		recommendation: newRecommendationRepository(),
		profile:        newProfileRepository(),
		product:        newProductRepository(),
	}
}

func (m *Memory) Recommendation() interfaces.RecommendationRepository {
	return m.recommendation
}

func (m *Memory) Profile() interfaces.ProfileRepository {
	return m.profile
}

func (m *Memory) Product() interfaces.ProductRepository {
	return m.product
}

// Close is a no-op for the in-memory repository
func (m *Memory) Close() error {
	return nil
}
