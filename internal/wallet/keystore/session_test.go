package keystore_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/helmwallet/wallet-engine/internal/wallet/keystore"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestSessionLifecycle(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)}
	store := keystore.NewSessionStore(clock)

	assert.Nil(t, store.GetSession())

	created := store.SetSession()
	require.NotNil(t, created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, clock.now, created.LastActivity)

	got := store.GetSession()
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)

	store.ClearSession()
	assert.Nil(t, store.GetSession())
}

func TestSessionTouch(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)}
	store := keystore.NewSessionStore(clock)

	store.SetSession()
	clock.advance(10 * time.Minute)
	store.Touch()

	got := store.GetSession()
	require.NotNil(t, got)
	assert.Equal(t, clock.now, got.LastActivity)
}

func TestShouldAutoLock(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)}
	store := keystore.NewSessionStore(clock)

	// no session yet
	assert.False(t, store.ShouldAutoLock(1))

	store.SetSession()

	// elapsed == configured minutes is not yet expired
	clock.advance(30 * time.Minute)
	assert.False(t, store.ShouldAutoLock(30))

	clock.advance(time.Second)
	assert.True(t, store.ShouldAutoLock(30))

	// zero disables auto-lock regardless of elapsed time
	clock.advance(240 * time.Hour)
	assert.False(t, store.ShouldAutoLock(0))
	assert.False(t, store.ShouldAutoLock(-5))

	// activity resets the window
	store.Touch()
	assert.False(t, store.ShouldAutoLock(30))
}
