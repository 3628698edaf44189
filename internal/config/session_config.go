package config

import "time"

type SessionConfig interface {
	GetSessionCookieName() string
	GetMaxSessionAge() time.Duration
	GetSessionSweepInterval() time.Duration
	GetRequestTimeout() time.Duration
	GetBootstrapTimeout() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetSessionCookieName() string {
	return "web_session"
}

func (Session) GetMaxSessionAge() time.Duration {
	return 7 * 24 * time.Hour // Matches the backend refresh token lifetime
}

func (Session) GetSessionSweepInterval() time.Duration {
	return 5 * time.Minute
}

func (Session) GetRequestTimeout() time.Duration {
	return 15 * time.Second
}

func (Session) GetBootstrapTimeout() time.Duration {
	return 5 * time.Second
}
