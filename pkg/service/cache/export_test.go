package cache

import (
	"context"

	"github.com/hairlab/stylist/pkg/domain/interfaces"
	"github.com/hairlab/stylist/pkg/domain/model"
)

// SetFillHookForTest runs hook at the start of every fill
func (c *Cache) SetFillHookForTest(hook func(fp model.Fingerprint)) {
	c.fillHook = hook
}

// FillForTest runs fill as a caller that missed the live lookup would
func (c *Cache) FillForTest(ctx context.Context, req *model.ConsultationRequest, compute interfaces.ComputeFunc) (*model.Recommendation, error) {
	return c.fill(ctx, req, compute, &flight{})
}
