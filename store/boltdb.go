package store

import (
	"context"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/paygate-labs/paygate/types"
)

var offersBucket = []byte("offers")

// BoltStore keeps offers in a bbolt database, one record per resource
// identifier in the offers bucket.
type BoltStore struct {
	db              *bolt.DB
	defaultNetwork  types.Network
	defaultCurrency string
}

var _ OfferStore = (*BoltStore)(nil)

// OpenBoltStore opens (or creates) the bbolt database at path.
func OpenBoltStore(path string, defaultNetwork types.Network, defaultCurrency string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open offer database %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(offersBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create offers bucket: %w", err)
	}

	return &BoltStore{
		db:              db,
		defaultNetwork:  defaultNetwork,
		defaultCurrency: defaultCurrency,
	}, nil
}

// Get implements OfferStore.
func (s *BoltStore) Get(ctx context.Context, resourceID string) (types.Offer, error) {
	if err := ctx.Err(); err != nil {
		return types.Offer{}, err
	}

	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(offersBucket).Get([]byte(resourceID)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return types.Offer{}, fmt.Errorf("read offer %q: %w", resourceID, err)
	}
	if raw == nil {
		return types.Offer{}, ErrNotFound
	}

	var rec offerRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return types.Offer{}, fmt.Errorf("parse offer %q: %w", resourceID, err)
	}

	return rec.toOffer(resourceID, s.defaultNetwork, s.defaultCurrency)
}

// Put registers or replaces an offer. Registration happens out-of-band from
// the gateway's request path.
func (s *BoltStore) Put(offer types.Offer) error {
	raw, err := json.Marshal(recordFromOffer(offer))
	if err != nil {
		return fmt.Errorf("encode offer %q: %w", offer.ResourceID, err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(offersBucket).Put([]byte(offer.ResourceID), raw)
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
