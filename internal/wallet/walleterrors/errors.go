package walleterrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel error kinds surfaced by the engine. Callers match them with
// errors.Is; every layer wraps them with context instead of redefining them.
var (
	ErrWrongPassword          = errors.New("wrong password")
	ErrNoWalletFound          = errors.New("no wallet found")
	ErrNoConfirmedUtxos       = errors.New("no confirmed utxos available")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInvalidOutputAddress   = errors.New("invalid output address")
	ErrFeeExceedsThreshold    = errors.New("fee exceeds threshold")
	ErrNoRouteAvailable       = errors.New("no route available")
	ErrAllEndpointsFailed     = errors.New("all endpoints failed")
	ErrUnsupportedChainFamily = errors.New("unsupported chain family")
)

// BroadcastRejectedError is returned when a chain accepted the request
// transport-wise but rejected the transaction itself. Reason carries the
// chain's diagnostic text verbatim.
type BroadcastRejectedError struct {
	ChainID string
	Reason  string
}

func (e *BroadcastRejectedError) Error() string {
	return fmt.Sprintf("broadcast rejected by %s: %s", e.ChainID, e.Reason)
}

// NewBroadcastRejected wraps the chain's raw rejection reason.
func NewBroadcastRejected(chainID, reason string) error {
	return &BroadcastRejectedError{ChainID: chainID, Reason: reason}
}

// IsBroadcastRejected reports whether err is (or wraps) a broadcast rejection.
func IsBroadcastRejected(err error) bool {
	var target *BroadcastRejectedError
	return errors.As(err, &target)
}
