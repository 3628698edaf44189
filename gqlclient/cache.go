package gqlclient

import (
	"sync"

	"github.com/jrsteele09/go-web-template/users"
)

// Cache holds query results for one browser session. It is emptied whenever the
// identity changes so a following identity never sees the previous one's data.
type Cache struct {
	mu         sync.RWMutex
	me         *users.User
	generation uint64 // bumped by every ClearStore
}

func NewCache() *Cache {
	return &Cache{}
}

// Me returns the cached signed-in user, if any
func (c *Cache) Me() (users.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.me == nil {
		return users.User{}, false
	}
	return *c.me, true
}

// Generation identifies the cache contents. A result fetched under one generation
// must not be stored under another.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// SetMe stores user unless the cache was cleared since generation was read.
// It reports whether the result was kept.
func (c *Cache) SetMe(generation uint64, user users.User) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		return false
	}
	c.me = &user
	return true
}

// ClearStore drops every cached result
func (c *Cache) ClearStore() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.me = nil
	c.generation++
}
