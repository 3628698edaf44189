package session

import (
	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// newCredential builds the in-memory credential for an access token. The expiry is
// read from the token's exp claim when the token is a JWT; the signature is the
// backend's concern, not ours.
func newCredential(accessToken string) *oauth2.Token {
	if accessToken == "" {
		return nil
	}
	credential := &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(accessToken, jwtlib.MapClaims{})
	if err != nil {
		return credential
	}
	if exp, err := token.Claims.GetExpirationTime(); err == nil && exp != nil {
		credential.Expiry = exp.Time
	}
	return credential
}
