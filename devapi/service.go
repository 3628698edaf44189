package devapi

import (
	"context"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-web-template/internal/errors"
	"github.com/jrsteele09/go-web-template/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Session is what a successful login, registration or refresh hands back: the
// payload for the GraphQL response and the refresh token for the cookie.
type Session struct {
	Payload      users.AuthPayload
	RefreshToken string
}

// Service implements the account and token operations behind the GraphQL schema
type Service struct {
	accounts users.AccountRepo
	access   *AccessTokens
	refresh  *RefreshTokens
}

func NewService(accounts users.AccountRepo, access *AccessTokens, refresh *RefreshTokens) (*Service, error) {
	if accounts == nil {
		return nil, errors.New("[NewService] accounts repo is required")
	}
	if access == nil {
		return nil, errors.New("[NewService] access token creator is required")
	}
	if refresh == nil {
		return nil, errors.New("[NewService] refresh token manager is required")
	}
	return &Service{
		accounts: accounts,
		access:   access,
		refresh:  refresh,
	}, nil
}

func (s *Service) Login(_ context.Context, email, password string) (*Session, error) {
	account, err := s.accounts.GetByEmail(email)
	if err != nil {
		// Same answer for unknown email and wrong password
		return nil, errors.Wrap(apperrors.ErrInvalidCredentials, "[Service.Login] GetByEmail")
	}
	if account.Blocked {
		return nil, errors.Wrap(apperrors.ErrInvalidCredentials, "[Service.Login] account blocked")
	}
	if !account.CheckPassword(password) {
		return nil, errors.Wrap(apperrors.ErrInvalidCredentials, "[Service.Login] password mismatch")
	}

	log.Info().Str("user_id", account.ID).Msg("User logged in")
	return s.issue(account.User)
}

func (s *Service) Register(_ context.Context, email, password string) (*Session, error) {
	email = users.NormaliseEmail(email)
	if email == "" {
		return nil, &validationError{sentinel: apperrors.ErrValidation, message: "Email is required"}
	}
	if err := users.ValidatePasswordStrength(password); err != nil {
		return nil, &validationError{sentinel: apperrors.ErrWeakPassword, message: capitalise(err.Error())}
	}
	if _, err := s.accounts.GetByEmail(email); err == nil {
		return nil, errors.Wrap(apperrors.ErrEmailTaken, "[Service.Register]")
	}

	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Register] HashPassword")
	}

	now := NowTimeFunc().UTC()
	account := &users.Account{
		User: users.User{
			ID:        uuid.New().String(),
			Email:     email,
			Role:      users.RoleUser,
			CreatedAt: now,
			UpdatedAt: now,
		},
		PasswordHash: passwordHash,
	}
	if err := s.accounts.Upsert(account); err != nil {
		return nil, errors.Wrap(err, "[Service.Register] Upsert")
	}

	log.Info().Str("user_id", account.ID).Msg("User registered")
	return s.issue(account.User)
}

// Refresh rotates refreshToken and issues a new access token
func (s *Service) Refresh(_ context.Context, refreshToken string) (*Session, error) {
	userID, replacement, err := s.refresh.Rotate(refreshToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] Rotate")
	}

	account, err := s.accounts.GetByID(userID)
	if err != nil || account.Blocked {
		s.refresh.Revoke(replacement)
		return nil, errors.Wrap(apperrors.ErrUnauthenticated, "[Service.Refresh] account unavailable")
	}

	accessToken, err := s.access.Create(account.User)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] Create access token")
	}
	return &Session{
		Payload:      users.AuthPayload{AccessToken: accessToken, User: account.User},
		RefreshToken: replacement,
	}, nil
}

// Logout revokes refreshToken and, when presented, the access token. It succeeds
// whether or not either token was known.
func (s *Service) Logout(_ context.Context, refreshToken, accessToken string) {
	s.refresh.Revoke(refreshToken)
	if accessToken != "" {
		s.access.Revoke(accessToken)
	}
}

// Me resolves the user behind a bearer access token
func (s *Service) Me(_ context.Context, accessToken string) (users.User, error) {
	if accessToken == "" {
		return users.User{}, errors.Wrap(apperrors.ErrUnauthenticated, "[Service.Me] missing token")
	}
	userID, err := s.access.Verify(accessToken)
	if err != nil {
		return users.User{}, errors.Wrap(apperrors.ErrUnauthenticated, err.Error())
	}
	account, err := s.accounts.GetByID(userID)
	if err != nil {
		return users.User{}, errors.Wrap(apperrors.ErrUnauthenticated, "[Service.Me] GetByID")
	}
	return account.User, nil
}

// SeedAccount creates an account unless the email is already registered
func (s *Service) SeedAccount(email, password string, role users.RoleType) error {
	if _, err := s.accounts.GetByEmail(email); err == nil {
		return nil
	}
	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "[Service.SeedAccount] HashPassword")
	}
	now := NowTimeFunc().UTC()
	return s.accounts.Upsert(&users.Account{
		User: users.User{
			ID:        uuid.New().String(),
			Email:     users.NormaliseEmail(email),
			Role:      role,
			CreatedAt: now,
			UpdatedAt: now,
		},
		PasswordHash: passwordHash,
	})
}

func (s *Service) RefreshTokenExpiry() int {
	return int(s.refresh.Expiry().Seconds())
}

func (s *Service) issue(user users.User) (*Session, error) {
	accessToken, err := s.access.Create(user)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.issue] Create access token")
	}
	refreshToken, err := s.refresh.Create(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.issue] Create refresh token")
	}
	return &Session{
		Payload:      users.AuthPayload{AccessToken: accessToken, User: user},
		RefreshToken: refreshToken,
	}, nil
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
