package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Configuration errors
	ErrGatewayNotConfigured    = errors.New("AI gateway is not configured")
	ErrImageStoreNotConfigured = errors.New("image store is not configured")

	// ErrPendingQueueFull is returned when a save cannot be queued for later
	ErrPendingQueueFull = errors.New("pending save queue is full")
)

// Context keys for error values
const (
	PendingCountKey = "pending_count"
)
