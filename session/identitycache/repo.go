// Package identitycache persists the identity half of a browser session.
//
// A record holds { user: UserIdentity | null } and nothing else. Access tokens never
// reach this package, so a rehydrated session always starts without one.
package identitycache

import (
	"context"
	"time"

	"github.com/jrsteele09/go-web-template/users"
)

// Repo stores one identity record per browser session ID
type Repo interface {
	// Get returns the persisted user, or nil when no record (or a null user) exists
	Get(ctx context.Context, sessionID string) (*users.User, error)

	// Upsert replaces the record for sessionID
	Upsert(ctx context.Context, sessionID string, user *users.User) error

	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, sessionID string) error

	// DeleteOlderThan removes records not updated since t and returns how many went
	DeleteOlderThan(ctx context.Context, t time.Time) (int, error)

	Close() error
}

// record is the persisted shape
type record struct {
	User *users.User `json:"user"`
}
