package gqlclient

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

type bearerKey struct{}

// WithBearer returns a context whose outgoing GraphQL requests carry token as a
// bearer credential. An empty token means no Authorization header.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

func bearerFrom(ctx context.Context) string {
	token, _ := ctx.Value(bearerKey{}).(string)
	return token
}

// bearerTransport is the request stage: it attaches the access token found in the
// request context.
type bearerTransport struct {
	base http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := bearerFrom(req.Context())
	if token == "" {
		return t.transport().RoundTrip(req)
	}

	authReq := req.Clone(req.Context())
	(&oauth2.Token{AccessToken: token}).SetAuthHeader(authReq)
	return t.transport().RoundTrip(authReq)
}

func (t *bearerTransport) transport() http.RoundTripper {
	if t.base != nil {
		return t.base
	}
	return http.DefaultTransport
}
