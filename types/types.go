package types

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// NativeDecimals is the number of decimal places of the native asset.
// Every supported network denominates its native asset in 1e18 smallest units.
const NativeDecimals = 18

// Offer describes what must be paid to unlock one resource.
// Offers are created out-of-band when a seller registers a resource and are
// immutable from the gateway's point of view.
type Offer struct {
	// ResourceID is the opaque identifier the offer was stored under.
	ResourceID string `json:"resourceId"`

	// Recipient is the address that must receive the funds. Compared
	// case-insensitively against the on-chain destination.
	Recipient string `json:"recipient"`

	// Price is a decimal amount in the network's native unit (e.g. "0.0001").
	// It must convert losslessly to an integer count of smallest units.
	Price string `json:"price"`

	// Currency is the display symbol of the native asset (e.g. "ETH").
	Currency string `json:"currency"`

	// Network the payment must occur on.
	Network Network `json:"network"`

	// DisplayName is the filename returned to the client on success.
	DisplayName string `json:"displayName"`
}

// PriceWei converts the offer price to the chain's smallest integer unit.
// The conversion is exact fixed-point arithmetic; a price that does not land
// on an integer number of smallest units is rejected.
func (o Offer) PriceWei() (*big.Int, error) {
	price, err := decimal.NewFromString(o.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid offer price %q: %w", o.Price, err)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("invalid offer price %q: negative", o.Price)
	}

	wei := price.Shift(NativeDecimals)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("offer price %q does not convert to a whole number of smallest units", o.Price)
	}

	return wei.BigInt(), nil
}

// PaymentClaim is the caller-supplied evidence of payment. The reference is
// untrusted; everything else is re-derived from the chain.
type PaymentClaim struct {
	// Reference is a transaction hash asserted to prove payment.
	Reference string `json:"txHash"`
}

// RefusalReason identifies why a payment claim was not accepted.
type RefusalReason string

const (
	ReasonMalformedReference RefusalReason = "malformed_reference"
	ReasonUnsupportedNetwork RefusalReason = "unsupported_network"
	ReasonLookupFailed       RefusalReason = "lookup_failed"
	ReasonWrongRecipient     RefusalReason = "wrong_recipient"
	ReasonInsufficientAmount RefusalReason = "insufficient_amount"
	ReasonAlreadyRedeemed    RefusalReason = "reference_already_redeemed"
)

// VerificationResult is the gateway's derived decision for one claim.
// It is recomputed on every request and never persisted.
type VerificationResult struct {
	Accepted bool          `json:"accepted"`
	Reason   RefusalReason `json:"reason,omitempty"`

	// Amount is the transaction's recorded value in smallest units,
	// populated on acceptance.
	Amount string `json:"amount,omitempty"`

	// Recipient is the transaction's recorded destination, populated on
	// acceptance.
	Recipient string `json:"recipient,omitempty"`
}

// PaywallError is a coded error for configuration and wiring failures.
type PaywallError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *PaywallError) Error() string {
	return e.Message
}

// Common error codes
const (
	ErrUnsupportedNetwork = "UNSUPPORTED_NETWORK"
	ErrInvalidOffer       = "INVALID_OFFER"
	ErrConfigError        = "CONFIG_ERROR"
	ErrNetworkError       = "NETWORK_ERROR"
)
