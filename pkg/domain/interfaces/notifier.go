package interfaces

import (
	"context"

	"github.com/hairlab/stylist/pkg/domain/model"
)

// Notifier tells salon staff that a user accepted a recommendation
type Notifier interface {
	NotifyAccepted(ctx context.Context, rec *model.Recommendation) error
}
