package devapi

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-web-template/internal/errors"
)

// StoredRefreshToken is the server-side record behind an opaque refresh token.
// The browser only ever holds Token, inside an HttpOnly cookie.
type StoredRefreshToken struct {
	Token  string
	UserID string
	Iat    time.Time
}

// RefreshTokenRepo stores refresh token metadata keyed by the token string
type RefreshTokenRepo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	Delete(token string) error
	Get(token string) (*StoredRefreshToken, error)
	DeleteByUserID(userID string) (int, error)
}

var _ RefreshTokenRepo = (*InMemoryRefreshTokenRepo)(nil)

type InMemoryRefreshTokenRepo struct {
	tokens map[string]*StoredRefreshToken
	lock   sync.RWMutex
}

func NewInMemoryRefreshTokenRepo() *InMemoryRefreshTokenRepo {
	return &InMemoryRefreshTokenRepo{
		tokens: make(map[string]*StoredRefreshToken),
	}
}

func (r *InMemoryRefreshTokenRepo) Upsert(refreshToken *StoredRefreshToken) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	stored := *refreshToken
	r.tokens[refreshToken.Token] = &stored
	return nil
}

func (r *InMemoryRefreshTokenRepo) Delete(token string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.tokens[token]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.tokens, token)
	return nil
}

func (r *InMemoryRefreshTokenRepo) Get(token string) (*StoredRefreshToken, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	rt, ok := r.tokens[token]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	stored := *rt
	return &stored, nil
}

func (r *InMemoryRefreshTokenRepo) DeleteByUserID(userID string) (int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	removed := 0
	for token, rt := range r.tokens {
		if rt.UserID == userID {
			delete(r.tokens, token)
			removed++
		}
	}
	return removed, nil
}

// RefreshTokens handles refresh token creation, validation and rotation. A user
// may hold one refresh token per browser.
type RefreshTokens struct {
	repo   RefreshTokenRepo
	length int
	expiry time.Duration
}

func NewRefreshTokens(repo RefreshTokenRepo, length int, expiry time.Duration) *RefreshTokens {
	return &RefreshTokens{
		repo:   repo,
		length: length,
		expiry: expiry,
	}
}

// Create generates a new refresh token for userID and stores it
func (m *RefreshTokens) Create(userID string) (string, error) {
	tokenBytes := make([]byte, m.length)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    NowTimeFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return tokenStr, nil
}

// Rotate consumes token and issues its replacement. An unknown, reused or expired
// token fails with ErrUnauthenticated.
func (m *RefreshTokens) Rotate(token string) (userID string, replacement string, err error) {
	if token == "" {
		return "", "", apperrors.ErrUnauthenticated
	}
	rt, err := m.repo.Get(token)
	if err != nil {
		return "", "", apperrors.ErrUnauthenticated
	}
	// Delete first so a concurrent rotation of the same token loses
	if err := m.repo.Delete(token); err != nil {
		return "", "", apperrors.ErrUnauthenticated
	}
	if m.IsExpired(rt) {
		return "", "", apperrors.ErrUnauthenticated
	}

	replacement, err = m.Create(rt.UserID)
	if err != nil {
		return "", "", err
	}
	return rt.UserID, replacement, nil
}

// Revoke deletes token. Unknown tokens are ignored.
func (m *RefreshTokens) Revoke(token string) {
	if token == "" {
		return
	}
	_ = m.repo.Delete(token)
}

func (m *RefreshTokens) IsExpired(rt *StoredRefreshToken) bool {
	return NowTimeFunc().Sub(rt.Iat) > m.expiry
}

func (m *RefreshTokens) Expiry() time.Duration {
	return m.expiry
}
