package walleterrors_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/helmwallet/wallet-engine/internal/wallet/walleterrors"
)

func TestSentinelMatchingThroughWraps(t *testing.T) {
	err := errors.Wrap(walleterrors.ErrInsufficientFunds, "selecting coins for 150000 sats")
	assert.True(t, errors.Is(err, walleterrors.ErrInsufficientFunds))
	assert.False(t, errors.Is(err, walleterrors.ErrNoConfirmedUtxos))
}

func TestBroadcastRejectedCarriesReason(t *testing.T) {
	raw := "insufficient fee: got 1uatom, required 250uatom"
	err := walleterrors.NewBroadcastRejected("gaia-hub-1", raw)

	require.True(t, walleterrors.IsBroadcastRejected(err))
	assert.Contains(t, err.Error(), raw)

	wrapped := errors.Wrap(err, "sending tokens")
	require.True(t, walleterrors.IsBroadcastRejected(wrapped))

	var rejected *walleterrors.BroadcastRejectedError
	require.True(t, errors.As(wrapped, &rejected))
	assert.Equal(t, raw, rejected.Reason)
	assert.Equal(t, "gaia-hub-1", rejected.ChainID)
}

func TestBroadcastRejectedDoesNotMatchSentinels(t *testing.T) {
	err := walleterrors.NewBroadcastRejected("helmchain-1", "account sequence mismatch")
	assert.False(t, errors.Is(err, walleterrors.ErrAllEndpointsFailed))
}
