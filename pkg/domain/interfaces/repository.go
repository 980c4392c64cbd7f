package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Recommendation() RecommendationRepository
	Profile() ProfileRepository
	Product() ProductRepository

	Close() error
}
