package devapi

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-web-template/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// AccessTokens creates and verifies HS256 access tokens
type AccessTokens struct {
	secret  []byte
	issuer  string
	expiry  time.Duration
	revoked RevokedTokens
}

func NewAccessTokens(secret []byte, issuer string, expiry time.Duration) *AccessTokens {
	return &AccessTokens{
		secret:  secret,
		issuer:  issuer,
		expiry:  expiry,
		revoked: NewInMemoryRevokedTokens(),
	}
}

// Create issues an access token for user
func (a *AccessTokens) Create(user users.User) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"iss":   a.issuer,                 // The issuer of the token
		"sub":   user.ID,                  // The user the token speaks for
		"email": user.Email,               // Convenience for logs, never trusted for lookup
		"role":  string(user.Role),        // Role at issue time
		"iat":   now.Unix(),               // Issued At
		"exp":   now.Add(a.expiry).Unix(), // Expiry
		"jti":   uuid.New().String(),      // Unique token ID
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer, expiry and revocation and returns the subject
func (a *AccessTokens) Verify(rawToken string) (string, error) {
	claims, err := a.parse(rawToken)
	if err != nil {
		return "", err
	}
	if jti, _ := claims["jti"].(string); a.revoked.IsRevoked(jti) {
		return "", fmt.Errorf("access token has been revoked")
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("access token has no subject")
	}
	return subject, nil
}

// Revoke withdraws a still valid access token until it expires. Tokens that
// no longer verify are ignored.
func (a *AccessTokens) Revoke(rawToken string) {
	claims, err := a.parse(rawToken)
	if err != nil {
		return
	}
	jti, _ := claims["jti"].(string)
	exp, err := claims.GetExpirationTime()
	if jti == "" || err != nil || exp == nil {
		return
	}
	a.revoked.Cleanup(NowTimeFunc())
	a.revoked.Add(jti, exp.Time)
}

func (a *AccessTokens) parse(rawToken string) (jwtlib.MapClaims, error) {
	claims := jwtlib.MapClaims{}
	_, err := jwtlib.ParseWithClaims(rawToken, claims, func(*jwtlib.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(a.issuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(NowTimeFunc),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}
	return claims, nil
}
