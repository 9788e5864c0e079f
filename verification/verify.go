// Package verification decides whether a claimed transaction actually paid an
// offer. It never trusts the caller: recipient and amount are re-derived from
// the chain using only the claimed reference.
package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/paygate-labs/paygate/clients"
	"github.com/paygate-labs/paygate/logger"
	"github.com/paygate-labs/paygate/metrics"
	"github.com/paygate-labs/paygate/types"
	"github.com/paygate-labs/paygate/utils"
)

// Verifier is the contract the transport layer programs against.
type Verifier interface {
	Verify(ctx context.Context, offer types.Offer, claim types.PaymentClaim) (*types.VerificationResult, error)
}

// VerificationService verifies payments against one registered read-only
// client per network. It holds no per-request state; concurrent verifications
// are fully independent.
type VerificationService struct {
	readers map[types.Network]clients.TxReader
	timeout time.Duration
	log     logger.Logger
	rec     metrics.Recorder
}

var _ Verifier = (*VerificationService)(nil)

// NewVerificationService creates a verification service. Every chain lookup
// is bounded by timeout so a stalled node cannot hold a request open.
func NewVerificationService(timeout time.Duration, log logger.Logger, rec metrics.Recorder) *VerificationService {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &VerificationService{
		readers: make(map[types.Network]clients.TxReader),
		timeout: timeout,
		log:     log,
		rec:     rec,
	}
}

// AddClient registers the read client for a network.
func (s *VerificationService) AddClient(network types.Network, reader clients.TxReader) error {
	if !network.IsEVM() {
		return &types.PaywallError{
			Code:    types.ErrUnsupportedNetwork,
			Message: fmt.Sprintf("network %s is not an EVM network", network),
		}
	}

	s.readers[network] = reader
	return nil
}

// IsNetworkSupported checks if a network has a registered client.
func (s *VerificationService) IsNetworkSupported(network types.Network) bool {
	_, ok := s.readers[network]
	return ok
}

// SupportedNetworks returns all networks with a registered client.
func (s *VerificationService) SupportedNetworks() []types.Network {
	networks := make([]types.Network, 0, len(s.readers))
	for network := range s.readers {
		networks = append(networks, network)
	}
	return networks
}

// Verify applies the acceptance policy to one claim. It performs exactly one
// chain lookup and does not retry; resubmitting the same reference later is
// the client's recourse on transient failure.
//
// Policy failures are reported in the result, never as a Go error. A non-nil
// error means the offer itself is broken (bad stored price or recipient),
// which is a server-side data fault.
func (s *VerificationService) Verify(
	ctx context.Context,
	offer types.Offer,
	claim types.PaymentClaim,
) (*types.VerificationResult, error) {
	start := time.Now()
	network := offer.Network.String()
	defer func() {
		s.rec.ObserveLatency("verify", time.Since(start), map[string]string{"network": network})
	}()

	if res := s.QuickVerify(offer, claim); !res.Accepted {
		return s.refuse(offer, res.Reason), nil
	}

	// The offer's terms must be sound before anything is fetched; a broken
	// record is the server's fault, not the payer's.
	required, err := offer.PriceWei()
	if err != nil {
		return nil, &types.PaywallError{Code: types.ErrInvalidOffer, Message: err.Error()}
	}
	if !common.IsHexAddress(offer.Recipient) {
		return nil, &types.PaywallError{
			Code:    types.ErrInvalidOffer,
			Message: fmt.Sprintf("offer recipient %q is not a valid address", offer.Recipient),
		}
	}

	reader, ok := s.readers[offer.Network]
	if !ok {
		return s.refuse(offer, types.ReasonUnsupportedNetwork), nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, isPending, err := reader.TransactionByHash(lookupCtx, common.HexToHash(claim.Reference))
	if err != nil || tx == nil {
		s.log.Warn("transaction lookup failed", map[string]any{
			"network":   network,
			"reference": claim.Reference,
			"notFound":  clients.IsNotFound(err),
			"error":     fmt.Sprint(err),
		})
		return s.refuse(offer, types.ReasonLookupFailed), nil
	}
	if isPending {
		// Not yet mined counts as a lookup failure; the client waits and
		// resubmits the same reference.
		return s.refuse(offer, types.ReasonLookupFailed), nil
	}

	// Recorded destination only. A contract creation has no destination and
	// can never pay an offer.
	to := tx.To()
	if to == nil || *to != common.HexToAddress(offer.Recipient) {
		return s.refuse(offer, types.ReasonWrongRecipient), nil
	}

	// Recorded value only, compared in smallest units. Overpayment accepted.
	if tx.Value().Cmp(required) < 0 {
		return s.refuse(offer, types.ReasonInsufficientAmount), nil
	}

	s.rec.IncCounter("verify_accepted", map[string]string{"network": network})
	return &types.VerificationResult{
		Accepted:  true,
		Amount:    tx.Value().String(),
		Recipient: to.Hex(),
	}, nil
}

// QuickVerify performs syntactic validation only, without any chain query.
func (s *VerificationService) QuickVerify(offer types.Offer, claim types.PaymentClaim) *types.VerificationResult {
	if err := utils.ValidateTransactionHash(claim.Reference); err != nil {
		return &types.VerificationResult{Accepted: false, Reason: types.ReasonMalformedReference}
	}
	return &types.VerificationResult{Accepted: true}
}

// BatchVerify verifies independent claims concurrently. Result order matches
// input order.
func (s *VerificationService) BatchVerify(
	ctx context.Context,
	offers []types.Offer,
	claims []types.PaymentClaim,
) ([]*types.VerificationResult, error) {
	if len(offers) != len(claims) {
		return nil, &types.PaywallError{
			Code:    types.ErrConfigError,
			Message: "number of offers must match number of claims",
		}
	}

	type item struct {
		index  int
		result *types.VerificationResult
		err    error
	}

	ch := make(chan item, len(claims))
	for i := range claims {
		go func(index int, offer types.Offer, claim types.PaymentClaim) {
			result, err := s.Verify(ctx, offer, claim)
			ch <- item{index: index, result: result, err: err}
		}(i, offers[i], claims[i])
	}

	results := make([]*types.VerificationResult, len(claims))
	for range claims {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case it := <-ch:
			if it.err != nil {
				return nil, it.err
			}
			results[it.index] = it.result
		}
	}

	return results, nil
}

func (s *VerificationService) refuse(offer types.Offer, reason types.RefusalReason) *types.VerificationResult {
	s.rec.IncCounter("verify_"+string(reason), map[string]string{"network": offer.Network.String()})
	return &types.VerificationResult{Accepted: false, Reason: reason}
}
