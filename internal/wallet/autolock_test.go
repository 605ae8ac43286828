package wallet_test

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/helmwallet/wallet-engine/internal/wallet"
	"github/helmwallet/wallet-engine/internal/wallet/keystore"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// newIdleLockEngine builds an unlocked engine whose session timestamps come
// from the fake clock and whose auto-lock window is one minute.
func newIdleLockEngine(t *testing.T, clock *fakeClock, endpoint string) *wallet.Engine {
	t.Helper()

	cfg := testEngineConfig(t)
	cfg.AutoLock.Minutes = 1

	engine := newTestEngine(t, cfg, evmNetwork(endpoint))
	engine.Sessions = keystore.NewSessionStore(clock)
	engine.Clock = clock

	_, err := engine.CreateWallet(context.Background(), testMnemonic, testPassword)
	require.NoError(t, err)

	return engine
}

func TestAutoLockLocksIdleWallet(t *testing.T) {
	clock := newFakeClock()
	engine := newIdleLockEngine(t, clock, unreachableEndpoint)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go engine.RunAutoLock(ctx)

	require.True(t, engine.IsUnlocked())

	clock.Advance(2 * time.Minute)

	assert.Eventually(t, func() bool {
		return !engine.IsUnlocked()
	}, time.Second, 5*time.Millisecond)
}

func TestAutoLockLeavesActiveSessionAlone(t *testing.T) {
	clock := newFakeClock()
	engine := newIdleLockEngine(t, clock, unreachableEndpoint)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go engine.RunAutoLock(ctx)

	clock.Advance(30 * time.Second)

	time.Sleep(50 * time.Millisecond)
	assert.True(t, engine.IsUnlocked())
}

func TestAutoLockDisabledByZeroMinutes(t *testing.T) {
	clock := newFakeClock()
	engine := newIdleLockEngine(t, clock, unreachableEndpoint)

	require.NoError(t, engine.UpdatePreferences(context.Background(), &keystore.PreferencesRecord{AutoLockMinutes: 0}))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go engine.RunAutoLock(ctx)

	clock.Advance(48 * time.Hour)

	time.Sleep(50 * time.Millisecond)
	assert.True(t, engine.IsUnlocked())
}

func TestAutoLockDefersWhileSigningInFlight(t *testing.T) {
	var (
		inFlight = make(chan struct{})
		release  = make(chan struct{})
		once     sync.Once
	)

	server := httptest.NewServer(rpcHandler(t, map[string]func(params []json.RawMessage) interface{}{
		"eth_getTransactionCount": func(_ []json.RawMessage) interface{} { return "0x0" },
		"eth_sendRawTransaction": func(_ []json.RawMessage) interface{} {
			once.Do(func() { close(inFlight) })
			<-release
			return evmTxHash
		},
	}))
	t.Cleanup(server.Close)

	clock := newFakeClock()
	engine := newIdleLockEngine(t, clock, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go engine.RunAutoLock(ctx)

	sendDone := make(chan error, 1)
	go func() {
		_, err := engine.SendTokens(context.Background(), wallet.TransferIntent{
			ChainID:      "ethereum",
			AccountIndex: 0,
			Recipient:    evmAddress1,
			Amount:       big.NewInt(1),
		})
		sendDone <- err
	}()

	<-inFlight
	clock.Advance(2 * time.Minute)

	// several poll ticks pass, the wallet must stay unlocked while the
	// broadcast is still holding key material
	time.Sleep(50 * time.Millisecond)
	assert.True(t, engine.IsUnlocked())

	close(release)
	require.NoError(t, <-sendDone)

	assert.Eventually(t, func() bool {
		return !engine.IsUnlocked()
	}, time.Second, 5*time.Millisecond)
}
