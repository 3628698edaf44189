package devapi

import (
	"sync"
	"time"
)

// RevokedTokens remembers access tokens withdrawn before their expiry, by jti
type RevokedTokens interface {
	Add(jti string, exp time.Time)
	IsRevoked(jti string) bool
	Cleanup(now time.Time) int
}

var _ RevokedTokens = (*InMemoryRevokedTokens)(nil)

type InMemoryRevokedTokens struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewInMemoryRevokedTokens() *InMemoryRevokedTokens {
	return &InMemoryRevokedTokens{
		revoked: make(map[string]time.Time),
	}
}

func (c *InMemoryRevokedTokens) Add(jti string, exp time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revoked[jti] = exp
}

func (c *InMemoryRevokedTokens) IsRevoked(jti string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.revoked[jti]
	return exists
}

// Cleanup forgets entries whose token has expired anyway and returns how many went
func (c *InMemoryRevokedTokens) Cleanup(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for jti, exp := range c.revoked {
		if now.After(exp) {
			delete(c.revoked, jti)
			removed++
		}
	}
	return removed
}
