package catalog

import (
	"context"

	"github.com/kaniobed28/campus-sell/basket-service/internal/domain"
)

// Lookup resolves product ids to current catalog snapshots. Ids with no
// live listing are simply absent from the result; callers degrade those
// items to "unavailable" instead of failing the operation.
type Lookup interface {
	GetMany(ctx context.Context, productIDs []string) (map[string]domain.ProductSnapshot, error)
}
