// Package paygate gates access to stored files behind a single on-chain
// payment, verified per request against the chain without escrow, accounts or
// sessions.
package paygate

import (
	"context"
	"time"

	"github.com/paygate-labs/paygate/clients"
	"github.com/paygate-labs/paygate/ledger"
	"github.com/paygate-labs/paygate/logger"
	"github.com/paygate-labs/paygate/metrics"
	"github.com/paygate-labs/paygate/offers"
	"github.com/paygate-labs/paygate/release"
	"github.com/paygate-labs/paygate/store"
	"github.com/paygate-labs/paygate/types"
	"github.com/paygate-labs/paygate/verification"
)

// Status classifies an unlock outcome the transport must render.
type Status string

const (
	// StatusChallenge: no payment reference was supplied; the offer is the
	// payment challenge.
	StatusChallenge Status = "challenge"

	// StatusRefused: a reference was supplied but the claim did not pass
	// verification. Result.Reason says why.
	StatusRefused Status = "refused"

	// StatusReleased: the claim was accepted and the blob is attached.
	StatusReleased Status = "released"
)

// Outcome is the result of one unlock attempt. Offer is always set; Result is
// set unless the outcome is a challenge; Blob only on release.
type Outcome struct {
	Status Status
	Offer  types.Offer
	Result *types.VerificationResult
	Blob   *release.Blob
}

// Paygate wires the offer resolver, payment verifier and resource releaser
// into the unlock flow. It is stateless per request: safe for concurrent use
// with no locking.
type Paygate struct {
	resolver *offers.Resolver
	verifier *verification.VerificationService
	releaser *release.Releaser
	ledger   *ledger.RedemptionLedger

	evmClients []*clients.EVMClient

	log     logger.Logger
	rec     metrics.Recorder
	timeout time.Duration
}

// New creates a gateway over the given stores. Networks are registered
// afterwards with AddNetwork or AddClient.
func New(offerStore store.OfferStore, blobStore store.BlobStore, opts ...Option) *Paygate {
	p := &Paygate{
		log:     logger.NoopLogger{},
		rec:     metrics.NoopRecorder{},
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.resolver = offers.NewResolver(offerStore, p.log)
	p.verifier = verification.NewVerificationService(p.timeout, p.log, p.rec)
	p.releaser = release.NewReleaser(blobStore, p.log)

	return p
}

// AddNetwork dials the RPC endpoint and registers a read client for network.
func (p *Paygate) AddNetwork(network types.Network, rpcURL string) error {
	client, err := clients.NewEVMClient(network, rpcURL)
	if err != nil {
		return err
	}
	if err := p.verifier.AddClient(network, client); err != nil {
		client.Close()
		return err
	}
	p.evmClients = append(p.evmClients, client)
	return nil
}

// AddClient registers an already-constructed read client for network.
func (p *Paygate) AddClient(network types.Network, reader clients.TxReader) error {
	return p.verifier.AddClient(network, reader)
}

// IsNetworkSupported checks if a network has a registered client.
func (p *Paygate) IsNetworkSupported(network types.Network) bool {
	return p.verifier.IsNetworkSupported(network)
}

// Unlock runs the full control flow for one request: resolve the offer,
// challenge if no claim was supplied, otherwise verify the claim and release
// the blob.
//
// Errors are reserved for server-side faults: store.ErrNotFound (unknown
// resource), release.ErrCorruptedResource (offer without blob), a broken
// offer record, or an unavailable store. Everything payment-related comes
// back as an Outcome.
func (p *Paygate) Unlock(ctx context.Context, resourceID string, claim *types.PaymentClaim) (*Outcome, error) {
	offer, err := p.resolver.Resolve(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	if claim == nil || claim.Reference == "" {
		p.rec.IncCounter("challenge_issued", map[string]string{"network": offer.Network.String()})
		return &Outcome{Status: StatusChallenge, Offer: offer}, nil
	}

	result, err := p.verifier.Verify(ctx, offer, *claim)
	if err != nil {
		return nil, err
	}
	if !result.Accepted {
		return &Outcome{Status: StatusRefused, Offer: offer, Result: result}, nil
	}

	// Read the blob before consuming the reference: a claim written ahead of
	// a failed release would burn the buyer's only proof of payment with
	// nothing delivered.
	blob, err := p.releaser.Release(ctx, offer)
	if err != nil {
		return nil, err
	}

	if p.ledger != nil {
		claimed, err := p.ledger.Claim(resourceID, claim.Reference)
		if err != nil {
			return nil, err
		}
		if !claimed {
			p.rec.IncCounter("verify_"+string(types.ReasonAlreadyRedeemed), map[string]string{"network": offer.Network.String()})
			return &Outcome{
				Status: StatusRefused,
				Offer:  offer,
				Result: &types.VerificationResult{Accepted: false, Reason: types.ReasonAlreadyRedeemed},
			}, nil
		}
	}

	p.rec.IncCounter("resource_released", map[string]string{"network": offer.Network.String()})
	return &Outcome{Status: StatusReleased, Offer: offer, Result: result, Blob: blob}, nil
}

// Verify exposes the payment verifier for callers that already hold an offer.
func (p *Paygate) Verify(ctx context.Context, offer types.Offer, claim types.PaymentClaim) (*types.VerificationResult, error) {
	return p.verifier.Verify(ctx, offer, claim)
}

// BatchVerify verifies multiple independent claims concurrently.
func (p *Paygate) BatchVerify(ctx context.Context, offerList []types.Offer, claimList []types.PaymentClaim) ([]*types.VerificationResult, error) {
	return p.verifier.BatchVerify(ctx, offerList, claimList)
}

// Close releases the dialed RPC connections and the redemption ledger.
func (p *Paygate) Close() {
	for _, c := range p.evmClients {
		c.Close()
	}
	if p.ledger != nil {
		_ = p.ledger.Close()
	}
}
