package interfaces

import (
	"context"
	"io"
)

// ImageStore keeps user photos and returns a reference usable as ConsultationRequest image ref
type ImageStore interface {
	Upload(ctx context.Context, userID, contentType string, r io.Reader) (string, error)
}
