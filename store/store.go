// Package store abstracts the record and blob stores behind capability
// interfaces so the verification core has no dependency on any particular
// storage technology.
package store

import (
	"context"
	"errors"

	"github.com/paygate-labs/paygate/types"
)

// ErrNotFound is returned when a resource identifier has no stored record or
// blob. Any other error from a store means the store itself is unavailable.
var ErrNotFound = errors.New("resource not found")

// OfferStore maps resource identifiers to offers.
type OfferStore interface {
	Get(ctx context.Context, resourceID string) (types.Offer, error)
}

// BlobStore maps resource identifiers to file contents.
type BlobStore interface {
	Get(ctx context.Context, resourceID string) ([]byte, error)
}
