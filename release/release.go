// Package release hands out the protected blob once a payment has been
// accepted.
package release

import (
	"context"
	"errors"
	"fmt"

	"github.com/paygate-labs/paygate/logger"
	"github.com/paygate-labs/paygate/store"
	"github.com/paygate-labs/paygate/types"
)

// ErrCorruptedResource means the offer exists but its backing blob does not.
// The caller already proved a valid payment, so this is a server-side
// integrity fault, distinct from a plain not-found.
var ErrCorruptedResource = errors.New("blob missing for existing offer")

// Blob is the released resource content together with the name the client
// should save it under.
type Blob struct {
	Content  []byte
	Filename string
}

// Releaser reads blobs for verified payments. Release has no side effects
// beyond the read; nothing marks a payment as consumed here.
type Releaser struct {
	blobs store.BlobStore
	log   logger.Logger
}

func NewReleaser(blobs store.BlobStore, log logger.Logger) *Releaser {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Releaser{blobs: blobs, log: log}
}

// Release returns the blob for an offer. Only call after the claim for this
// offer was accepted.
func (r *Releaser) Release(ctx context.Context, offer types.Offer) (*Blob, error) {
	content, err := r.blobs.Get(ctx, offer.ResourceID)
	if errors.Is(err, store.ErrNotFound) {
		r.log.Error("offer has no backing blob", map[string]any{
			"resourceId": offer.ResourceID,
		})
		return nil, ErrCorruptedResource
	}
	if err != nil {
		return nil, fmt.Errorf("release %q: %w", offer.ResourceID, err)
	}

	return &Blob{Content: content, Filename: offer.DisplayName}, nil
}
