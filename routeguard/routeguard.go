// Package routeguard decides whether a protected page may render.
package routeguard

import (
	"net/url"
	"strings"

	"github.com/jrsteele09/go-web-template/session"
)

// LoginPath is where anonymous visitors are sent; DefaultReturnTo is where they
// land after login when no destination was recorded.
const (
	LoginPath       = "/login"
	DefaultReturnTo = "/app"
)

// Action is what the guard tells the server to do with a request
type Action int

const (
	Allow Action = iota
	Redirect
	Wait // start-up still running, render nothing yet
)

func (a Action) String() string {
	switch a {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	case Wait:
		return "wait"
	}
	return "unknown"
}

// Decision is the outcome of Evaluate
type Decision struct {
	Action   Action
	Location string // set for Redirect
}

// Evaluate decides what a request for target should see given the session state.
// Only the presence of a user is checked; token validity is enforced by the backend.
func Evaluate(state session.State, target string) Decision {
	if state.IsLoading {
		return Decision{Action: Wait}
	}
	if state.User == nil {
		return Decision{Action: Redirect, Location: LoginURL(target)}
	}
	return Decision{Action: Allow}
}

// LoginURL is the login page recording target as the place to return to
func LoginURL(target string) string {
	if target == "" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"from": {target}}.Encode()
}

// ReturnTo sanitises a recorded destination. Only local absolute paths are
// honoured; anything else falls back to DefaultReturnTo.
func ReturnTo(from string) string {
	if from == "" || !strings.HasPrefix(from, "/") {
		return DefaultReturnTo
	}
	// "//host" and "/\host" are scheme-relative to browsers
	if strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return DefaultReturnTo
	}
	u, err := url.Parse(from)
	if err != nil || u.IsAbs() || u.Host != "" {
		return DefaultReturnTo
	}
	if u.Path == LoginPath || strings.HasPrefix(u.Path, LoginPath+"/") {
		return DefaultReturnTo
	}
	return from
}
