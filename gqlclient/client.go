// Package gqlclient talks to the GraphQL backend on behalf of one browser session.
//
// Every operation runs through Client.Do: the current access token is attached on
// the way out, and an UNAUTHENTICATED answer triggers one token refresh followed by
// a single resubmission.
package gqlclient

import (
	"context"
	"fmt"

	apperrors "github.com/jrsteele09/go-web-template/internal/errors"
	"github.com/jrsteele09/go-web-template/users"
	"github.com/rs/zerolog/log"
)

// TokenSource is the part of the session store the client depends on
type TokenSource interface {
	AccessToken() string
	TryRefreshToken(ctx context.Context) bool
	Logout(ctx context.Context)
}

// Operation is one GraphQL request. It must be safe to run twice.
type Operation func(ctx context.Context) error

// Client runs GraphQL operations for one browser session with its access token
type Client struct {
	transport *Transport
	tokens    TokenSource
	cache     *Cache
}

// ClientOption modifies a Client at construction
type ClientOption func(*Client)

// WithCache shares a response cache with the client. The same cache should be
// handed to the session store so logout clears it.
func WithCache(cache *Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// NewClient builds a client over transport that takes its token from tokens
func NewClient(transport *Transport, tokens TokenSource, options ...ClientOption) *Client {
	c := &Client{
		transport: transport,
		tokens:    tokens,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.cache == nil {
		c.cache = NewCache()
	}
	return c
}

// Transport returns the underlying operations without the refresh-and-retry handling
func (c *Client) Transport() *Transport {
	return c.transport
}

// Do runs op with the current access token. An unauthenticated answer refreshes the
// token and resubmits op once; when the refresh fails the session is already
// cleared and ErrSessionExpired is returned.
func (c *Client) Do(ctx context.Context, name string, op Operation) error {
	err := op(WithBearer(ctx, c.tokens.AccessToken()))
	if err == nil {
		return nil
	}

	kind := classify(err)
	switch kind {
	case kindUnauthenticated:
		log.Debug().Str("operation", name).Msg("Access token rejected, refreshing")
		if !c.tokens.TryRefreshToken(ctx) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				// The caller gave up; the shared refresh may still succeed
				log.Debug().Str("operation", name).Msg("Gave up waiting for refresh")
				return fmt.Errorf("[%s] refresh abandoned: %w: %w", name, apperrors.ErrTransport, ctxErr)
			}
			return apperrors.Wrapf(apperrors.ErrSessionExpired, "[%s] refresh failed", name)
		}

		err = op(WithBearer(ctx, c.tokens.AccessToken()))
		if err == nil {
			return nil
		}
		kind = classify(err)
		if kind == kindUnauthenticated {
			log.Warn().Str("operation", name).Msg("Still unauthenticated after refresh")
		}
	case kindRejected:
		log.Warn().Err(err).Str("operation", name).Msg("GraphQL error")
	default:
		log.Err(err).Str("operation", name).Msg("Network error")
	}

	return wrapKind(kind, name, err)
}

func (c *Client) Login(ctx context.Context, email, password string) (users.AuthPayload, error) {
	var payload users.AuthPayload
	err := c.Do(ctx, "Login", func(ctx context.Context) error {
		var err error
		payload, err = c.transport.Login(ctx, email, password)
		return err
	})
	return payload, err
}

func (c *Client) Register(ctx context.Context, email, password string) (users.AuthPayload, error) {
	var payload users.AuthPayload
	err := c.Do(ctx, "Register", func(ctx context.Context) error {
		var err error
		payload, err = c.transport.Register(ctx, email, password)
		return err
	})
	return payload, err
}

// Logout tells the backend to revoke the refresh credential
func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, "Logout", c.transport.Logout)
}

// Me returns the signed-in user, from the response cache when present
func (c *Client) Me(ctx context.Context) (users.User, error) {
	if user, ok := c.cache.Me(); ok {
		return user, nil
	}

	generation := c.cache.Generation()
	var user users.User
	err := c.Do(ctx, "Me", func(ctx context.Context) error {
		var err error
		user, err = c.transport.Me(ctx)
		return err
	})
	if err != nil {
		return users.User{}, err
	}

	if !c.cache.SetMe(generation, user) {
		log.Debug().Msg("Identity changed while me was in flight, result not cached")
	}
	return user, nil
}

// ClearStore empties the response cache
func (c *Client) ClearStore() {
	c.cache.ClearStore()
}

// SignOut revokes the refresh credential on the backend, best effort, then clears
// the local session whatever the backend answered.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.Logout(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Backend logout failed, clearing local session anyway")
	}
	c.tokens.Logout(ctx)
	return err
}
