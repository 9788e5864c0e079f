package store

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/paygate-labs/paygate/types"
	"github.com/paygate-labs/paygate/utils"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// offerRecord is the stored shape of a seller registration. The field names
// match the seller-facing database format.
type offerRecord struct {
	SellerWallet string `json:"sellerWallet" validate:"required"`
	Price        string `json:"price" validate:"required"`
	OriginalName string `json:"originalName" validate:"required"`
	Currency     string `json:"currency,omitempty"`
	Network      string `json:"network,omitempty"`
}

// toOffer validates a record and fills store-level defaults for the optional
// currency and network fields. A record that fails validation is a data
// integrity fault, not a client error.
func (rec offerRecord) toOffer(resourceID string, defaultNetwork types.Network, defaultCurrency string) (types.Offer, error) {
	if err := validate.Struct(rec); err != nil {
		return types.Offer{}, fmt.Errorf("offer record for %q is invalid: %w", resourceID, err)
	}
	if err := utils.ValidateAddress(rec.SellerWallet); err != nil {
		return types.Offer{}, fmt.Errorf("offer record for %q has a bad seller wallet: %w", resourceID, err)
	}

	currency := rec.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	network := types.Network(rec.Network)
	if network == "" {
		network = defaultNetwork
	}

	return types.Offer{
		ResourceID:  resourceID,
		Recipient:   rec.SellerWallet,
		Price:       rec.Price,
		Currency:    currency,
		Network:     network,
		DisplayName: rec.OriginalName,
	}, nil
}

func recordFromOffer(offer types.Offer) offerRecord {
	return offerRecord{
		SellerWallet: offer.Recipient,
		Price:        offer.Price,
		OriginalName: offer.DisplayName,
		Currency:     offer.Currency,
		Network:      offer.Network.String(),
	}
}
