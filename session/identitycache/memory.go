package identitycache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-web-template/users"
)

var _ Repo = (*MemoryRepo)(nil)

type memoryEntry struct {
	data      []byte
	updatedAt time.Time
}

// MemoryRepo keeps records in process memory. Records are serialised on write so
// callers never share a *users.User with the cache.
type MemoryRepo struct {
	mu      sync.RWMutex
	records map[string]memoryEntry
	nowFunc func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		records: make(map[string]memoryEntry),
		nowFunc: time.Now,
	}
}

func (r *MemoryRepo) Get(_ context.Context, sessionID string) (*users.User, error) {
	r.mu.RLock()
	entry, ok := r.records[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var rec record
	if err := json.Unmarshal(entry.data, &rec); err != nil {
		return nil, fmt.Errorf("[identitycache Get] decode record: %w", err)
	}
	return rec.User, nil
}

func (r *MemoryRepo) Upsert(_ context.Context, sessionID string, user *users.User) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}
	data, err := json.Marshal(record{User: user})
	if err != nil {
		return fmt.Errorf("[identitycache Upsert] encode record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[sessionID] = memoryEntry{data: data, updatedAt: r.nowFunc()}
	return nil
}

func (r *MemoryRepo) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, sessionID)
	return nil
}

func (r *MemoryRepo) DeleteOlderThan(_ context.Context, t time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, entry := range r.records {
		if entry.updatedAt.Before(t) {
			delete(r.records, id)
			removed++
		}
	}
	return removed, nil
}

func (r *MemoryRepo) Close() error {
	return nil
}
