package paygate

import (
	"time"

	"github.com/paygate-labs/paygate/ledger"
	"github.com/paygate-labs/paygate/logger"
	"github.com/paygate-labs/paygate/metrics"
)

type Option func(*Paygate)

func WithLogger(l logger.Logger) Option {
	return func(p *Paygate) {
		p.log = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(p *Paygate) {
		p.rec = r
	}
}

// WithTimeout bounds every chain lookup. Default is 30s.
func WithTimeout(t time.Duration) Option {
	return func(p *Paygate) {
		p.timeout = t
	}
}

// WithRedemptionLedger enables at-most-once redemption. Without it a valid
// reference unlocks the resource an unbounded number of times.
func WithRedemptionLedger(l *ledger.RedemptionLedger) Option {
	return func(p *Paygate) {
		p.ledger = l
	}
}
