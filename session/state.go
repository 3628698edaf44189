package session

import (
	"context"
	"time"

	"github.com/jrsteele09/go-web-template/users"
)

// State is a snapshot of a Store. It is a value: copying it never aliases the store.
type State struct {
	AccessToken string      // Empty when no credential is held
	User        *users.User // Nil when nobody is signed in
	IsLoading   bool        // True until the start-up sequence has finished
	ExpiresAt   time.Time   // Access token expiry when the token carries one
}

func (s State) IsAuthenticated() bool {
	return s.User != nil && s.AccessToken != ""
}

// Refresher exchanges the ambient refresh credential for a new access token and identity
type Refresher interface {
	RefreshToken(ctx context.Context) (users.AuthPayload, error)
}

// CacheClearer discards response data that may belong to the previous identity
type CacheClearer interface {
	ClearStore()
}
