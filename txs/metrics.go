package txs

import (
	"errors"

	"github.com/spacemeshos/go-evmbridge/metrics"
)

const (
	subsystem = "txs"

	accepted          = "accepted"
	malformed         = "malformed"
	wrongChain        = "wrong_chain"
	badSignature      = "bad_signature"
	badNonce          = "bad_nonce"
	lowGasPrice       = "low_gas_price"
	insufficientFunds = "insufficient_funds"
	internalErr       = "internal_error"
)

var (
	validatedCount = metrics.NewCounter(
		"validated",
		subsystem,
		"Number of validated transactions by outcome",
		[]string{"outcome"},
	)
	senderCacheHits = metrics.NewCounter(
		"sender_cache",
		subsystem,
		"Recovered sender cache lookups",
		[]string{"result"},
	)
)

func updateMetrics(err error) {
	switch {
	case err == nil:
		validatedCount.WithLabelValues(accepted).Inc()
	case errors.Is(err, ErrMalformedTx):
		validatedCount.WithLabelValues(malformed).Inc()
	case errors.Is(err, ErrChainIDMismatch):
		validatedCount.WithLabelValues(wrongChain).Inc()
	case errors.Is(err, ErrBadSignature):
		validatedCount.WithLabelValues(badSignature).Inc()
	case errors.Is(err, ErrNonceMismatch):
		validatedCount.WithLabelValues(badNonce).Inc()
	case errors.Is(err, ErrGasPriceTooLow):
		validatedCount.WithLabelValues(lowGasPrice).Inc()
	case errors.Is(err, ErrInsufficientBalance):
		validatedCount.WithLabelValues(insufficientFunds).Inc()
	default:
		validatedCount.WithLabelValues(internalErr).Inc()
	}
}
