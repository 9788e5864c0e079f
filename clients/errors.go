package clients

import (
	"errors"

	ethereum "github.com/ethereum/go-ethereum"
)

// IsNotFound reports whether a lookup error means the node does not know the
// transaction. Callers must not read this as "not yet propagated" versus
// "never existed"; the node does not distinguish them.
func IsNotFound(err error) bool {
	return errors.Is(err, ethereum.NotFound)
}
