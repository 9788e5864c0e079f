// Package ledger provides an optional durable set of already-redeemed payment
// references. When wired in, it upgrades the gateway from unlimited
// redemption to at-most-once per resource.
package ledger

import (
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var redemptionsBucket = []byte("redemptions")

// RedemptionLedger records which references have already unlocked which
// resources. Claims happen inside a single write transaction, so two
// concurrent requests for the same reference cannot both succeed.
type RedemptionLedger struct {
	db *bolt.DB
}

// Open opens (or creates) the ledger database at path.
func Open(path string) (*RedemptionLedger, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open redemption ledger %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(redemptionsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create redemptions bucket: %w", err)
	}

	return &RedemptionLedger{db: db}, nil
}

// Claim marks a reference as redeemed for a resource. It returns false when
// the reference was already redeemed for that resource. The same reference
// may still redeem a different resource, since a single transaction cannot
// have paid two sellers.
func (l *RedemptionLedger) Claim(resourceID, reference string) (bool, error) {
	key := redemptionKey(resourceID, reference)

	claimed := false
	err := l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(redemptionsBucket)
		if b.Get(key) != nil {
			return nil
		}
		claimed = true
		return b.Put(key, []byte(time.Now().UTC().Format(time.RFC3339)))
	})
	if err != nil {
		return false, fmt.Errorf("claim reference %q for %q: %w", reference, resourceID, err)
	}

	return claimed, nil
}

// Redeemed reports whether a reference was already used for a resource.
func (l *RedemptionLedger) Redeemed(resourceID, reference string) (bool, error) {
	key := redemptionKey(resourceID, reference)

	var found bool
	err := l.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(redemptionsBucket).Get(key) != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("check reference %q for %q: %w", reference, resourceID, err)
	}

	return found, nil
}

func (l *RedemptionLedger) Close() error {
	return l.db.Close()
}

// redemptionKey lowercases the reference so checksum-cased and lowercase
// submissions of the same hash collide.
func redemptionKey(resourceID, reference string) []byte {
	return []byte(resourceID + "/" + strings.ToLower(reference))
}
