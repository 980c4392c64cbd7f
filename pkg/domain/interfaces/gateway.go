package interfaces

import (
	"context"

	"github.com/hairlab/stylist/pkg/domain/model"
)

// Gateway asks the generative AI backend for a recommendation. Failures wrap
// model.ErrGatewayTransient or model.ErrGatewayPermanent.
type Gateway interface {
	Consult(ctx context.Context, req *model.ConsultationRequest) (*model.Recommendation, error)
}
