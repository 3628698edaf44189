package routeguard_test

import (
	"testing"

	"github.com/jrsteele09/go-web-template/routeguard"
	"github.com/jrsteele09/go-web-template/session"
	"github.com/jrsteele09/go-web-template/users"
	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	user := &users.User{ID: "user-1", Email: "john.doe@example.com"}

	tests := []struct {
		name   string
		state  session.State
		target string
		want   routeguard.Decision
	}{
		{
			name:   "loading waits even without a user",
			state:  session.State{IsLoading: true},
			target: "/app",
			want:   routeguard.Decision{Action: routeguard.Wait},
		},
		{
			name:   "loading waits with a user",
			state:  session.State{IsLoading: true, User: user},
			target: "/app",
			want:   routeguard.Decision{Action: routeguard.Wait},
		},
		{
			name:   "anonymous is redirected with target recorded",
			state:  session.State{},
			target: "/app/dashboard",
			want:   routeguard.Decision{Action: routeguard.Redirect, Location: "/login?from=%2Fapp%2Fdashboard"},
		},
		{
			name:   "user allowed",
			state:  session.State{User: user, AccessToken: "T1"},
			target: "/app",
			want:   routeguard.Decision{Action: routeguard.Allow},
		},
		{
			name:   "user without token still allowed",
			state:  session.State{User: user},
			target: "/app",
			want:   routeguard.Decision{Action: routeguard.Allow},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, routeguard.Evaluate(tt.state, tt.target))
		})
	}
}

func TestReturnTo(t *testing.T) {
	tests := map[string]string{
		"":                         "/app",
		"/app/dashboard":           "/app/dashboard",
		"/app?tab=profile":         "/app?tab=profile",
		"https://evil.example.com": "/app",
		"//evil.example.com/app":   "/app",
		"/\\evil.example.com":      "/app",
		"app":                      "/app",
		"/login":                   "/app",
		"/login?from=/app":         "/app",
	}

	for from, want := range tests {
		t.Run(from, func(t *testing.T) {
			assert.Equal(t, want, routeguard.ReturnTo(from))
		})
	}
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "/login", routeguard.LoginURL(""))
	assert.Equal(t, "/login?from=%2Fapp", routeguard.LoginURL("/app"))
}
