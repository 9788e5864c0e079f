// Package offers resolves resource identifiers to payment terms.
package offers

import (
	"context"
	"errors"
	"fmt"

	"github.com/paygate-labs/paygate/logger"
	"github.com/paygate-labs/paygate/store"
	"github.com/paygate-labs/paygate/types"
)

// Resolver looks up the offer for a resource. It is a pure read with no side
// effects on either path.
type Resolver struct {
	offers store.OfferStore
	log    logger.Logger
}

func NewResolver(offers store.OfferStore, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Resolver{offers: offers, log: log}
}

// Resolve returns the full offer for resourceID. Callers must not cache the
// result beyond one request; sellers may change pricing between requests.
// A missing record is store.ErrNotFound; any other error means the record
// store itself is unavailable.
func (r *Resolver) Resolve(ctx context.Context, resourceID string) (types.Offer, error) {
	if resourceID == "" {
		return types.Offer{}, store.ErrNotFound
	}

	offer, err := r.offers.Get(ctx, resourceID)
	if errors.Is(err, store.ErrNotFound) {
		return types.Offer{}, store.ErrNotFound
	}
	if err != nil {
		r.log.Error("offer store unavailable", map[string]any{
			"resourceId": resourceID,
			"error":      err.Error(),
		})
		return types.Offer{}, fmt.Errorf("resolve offer for %q: %w", resourceID, err)
	}

	return offer, nil
}
