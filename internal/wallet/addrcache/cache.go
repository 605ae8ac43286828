// Package addrcache caches derived accounts so repeated address lookups do
// not re-run HD derivation. Entries expire after a configurable TTL and the
// whole cache is flushed whenever the account set changes.
package addrcache

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github/helmwallet/wallet-engine/internal/metrics"
	"github/helmwallet/wallet-engine/internal/wallet/address"
)

type Cache struct {
	c       *gocache.Cache
	metrics *metrics.Service
}

// New creates a derived-account cache. The metrics service may be nil.
func New(ttl time.Duration, cleanupInterval time.Duration, m *metrics.Service) *Cache {
	return &Cache{
		c:       gocache.New(ttl, cleanupInterval),
		metrics: m,
	}
}

// Get returns the cached account for (chainID, accountIndex) if present.
func (c *Cache) Get(chainID string, accountIndex uint32) (address.Account, bool) {
	val, found := c.c.Get(cacheKey(chainID, accountIndex))
	if !found {
		if c.metrics != nil {
			c.metrics.AddressCacheMisses.Inc()
		}
		return address.Account{}, false
	}

	account, ok := val.(address.Account)
	if !ok {
		if c.metrics != nil {
			c.metrics.AddressCacheMisses.Inc()
		}
		return address.Account{}, false
	}

	if c.metrics != nil {
		c.metrics.AddressCacheHits.Inc()
	}

	return account, true
}

// Put stores a derived account with the cache default TTL.
func (c *Cache) Put(account address.Account) {
	c.c.Set(cacheKey(account.ChainID, account.AccountIndex), account, gocache.DefaultExpiration)
}

// InvalidateAccounts drops every cached entry. Called when accounts are
// added, imported or removed.
// 账户集合变化后整体失效
func (c *Cache) InvalidateAccounts() {
	c.c.Flush()
}

func cacheKey(chainID string, accountIndex uint32) string {
	return fmt.Sprintf("%s/%d", chainID, accountIndex)
}
