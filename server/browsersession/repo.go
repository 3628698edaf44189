// Package browsersession maps a browser's session cookie to the session store and
// GraphQL client that act for that browser.
package browsersession

import (
	"time"

	"github.com/jrsteele09/go-web-template/gqlclient"
	"github.com/jrsteele09/go-web-template/session"
)

type Entry struct {
	Store  *session.Store
	Client *gqlclient.Client

	// Session management
	CreatedAt time.Time
	LastSeen  time.Time
}

type Repo interface {
	Upsert(sessionID string, entry Entry) error
	Get(sessionID string) (Entry, error)
	Touch(sessionID string, at time.Time) error
	Delete(sessionID string) error

	// DeleteExpired removes entries last seen before the cutoff and returns their IDs
	DeleteExpired(before time.Time) []string
}
