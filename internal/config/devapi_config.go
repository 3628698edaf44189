package config

import "time"

// DevAPIConfig configures the development GraphQL backend
type DevAPIConfig interface {
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetTokenIssuer() string
}

type DevAPI struct{}

var _ DevAPIConfig = DevAPI{}

func (DevAPI) GetAccessTokenExpiry() time.Duration {
	return 15 * time.Minute
}

func (DevAPI) GetRefreshTokenExpiry() time.Duration {
	return 7 * 24 * time.Hour // 7 days
}

func (DevAPI) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}

func (DevAPI) GetTokenIssuer() string {
	return "go-web-template-devapi"
}
