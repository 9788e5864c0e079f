package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/paygate-labs/paygate/types"
)

// JSONStore reads offers from a single JSON file mapping resource identifiers
// to offer records. The file is re-read on every lookup so registrations made
// out-of-band are visible without a restart.
type JSONStore struct {
	path            string
	defaultNetwork  types.Network
	defaultCurrency string
}

var _ OfferStore = (*JSONStore)(nil)

// NewJSONStore returns a store backed by the JSON database at path.
// defaultNetwork and defaultCurrency apply to records that omit those fields.
func NewJSONStore(path string, defaultNetwork types.Network, defaultCurrency string) *JSONStore {
	return &JSONStore{
		path:            path,
		defaultNetwork:  defaultNetwork,
		defaultCurrency: defaultCurrency,
	}
}

// Get implements OfferStore. A missing or unreadable database file is a store
// failure, not a not-found.
func (s *JSONStore) Get(ctx context.Context, resourceID string) (types.Offer, error) {
	if err := ctx.Err(); err != nil {
		return types.Offer{}, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return types.Offer{}, fmt.Errorf("read offer database %s: %w", s.path, err)
	}

	var records map[string]offerRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return types.Offer{}, fmt.Errorf("parse offer database %s: %w", s.path, err)
	}

	rec, ok := records[resourceID]
	if !ok {
		return types.Offer{}, ErrNotFound
	}

	return rec.toOffer(resourceID, s.defaultNetwork, s.defaultCurrency)
}
