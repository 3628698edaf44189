package browsersession

import (
	"fmt"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-web-template/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is an in-memory implementation of Repo
type InMemoryRepo struct {
	mu      sync.RWMutex
	entries map[string]Entry // sessionID -> Entry
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		entries: make(map[string]Entry),
	}
}

// Upsert creates or replaces the entry for a browser session
func (r *InMemoryRepo) Upsert(sessionID string, entry Entry) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}
	if entry.Store == nil || entry.Client == nil {
		return fmt.Errorf("entry needs a store and a client")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[sessionID] = entry
	return nil
}

// Get retrieves the entry for a browser session
func (r *InMemoryRepo) Get(sessionID string) (Entry, error) {
	if sessionID == "" {
		return Entry{}, fmt.Errorf("sessionID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[sessionID]
	if !ok {
		return Entry{}, apperrors.ErrSessionNotFound
	}
	return entry, nil
}

// Touch records activity on a browser session
func (r *InMemoryRepo) Touch(sessionID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[sessionID]
	if !ok {
		return apperrors.ErrSessionNotFound
	}
	entry.LastSeen = at
	r.entries[sessionID] = entry
	return nil
}

// Delete removes a browser session
func (r *InMemoryRepo) Delete(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sessionID) // Already gone is not an error
	return nil
}

func (r *InMemoryRepo) DeleteExpired(before time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []string
	for id, entry := range r.entries {
		if entry.LastSeen.Before(before) {
			delete(r.entries, id)
			expired = append(expired, id)
		}
	}
	return expired
}

func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
