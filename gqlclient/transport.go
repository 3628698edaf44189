package gqlclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	graphql "github.com/cli/shurcooL-graphql"
	"github.com/jrsteele09/go-web-template/users"
)

// LoginInput is the GraphQL input object for the login mutation
type LoginInput struct {
	Email    graphql.String `json:"email"`
	Password graphql.String `json:"password"`
}

// RegisterInput is the GraphQL input object for the register mutation
type RegisterInput struct {
	Email    graphql.String `json:"email"`
	Password graphql.String `json:"password"`
}

type userFields struct {
	ID        string
	Email     string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u userFields) toUser() users.User {
	return users.User{
		ID:        u.ID,
		Email:     u.Email,
		Role:      users.RoleType(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type authPayloadFields struct {
	AccessToken string
	User        userFields
}

func (p authPayloadFields) toPayload() users.AuthPayload {
	return users.AuthPayload{
		AccessToken: p.AccessToken,
		User:        p.User.toUser(),
	}
}

// Transport performs the GraphQL operations of the backend. Bearer credentials are
// taken from the request context (see WithBearer); the refresh credential is the
// cookie held by the http client's jar.
type Transport struct {
	endpoint string
	gql      *graphql.Client
}

// NewTransport creates a transport for endpoint. The http client should carry a
// cookie jar dedicated to one browser session.
func NewTransport(endpoint string, httpClient *http.Client) *Transport {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	hc := *httpClient
	hc.Transport = &bearerTransport{base: httpClient.Transport}

	return &Transport{
		endpoint: endpoint,
		gql:      graphql.NewClient(endpoint, &hc),
	}
}

func (t *Transport) Endpoint() string {
	return t.endpoint
}

func (t *Transport) Login(ctx context.Context, email, password string) (users.AuthPayload, error) {
	var m struct {
		Login authPayloadFields `graphql:"login(input: $input)"`
	}
	variables := map[string]any{
		"input": LoginInput{Email: graphql.String(email), Password: graphql.String(password)},
	}
	if err := t.gql.MutateNamed(ctx, "Login", &m, variables); err != nil {
		return users.AuthPayload{}, fmt.Errorf("[Transport Login] %w", err)
	}
	return m.Login.toPayload(), nil
}

func (t *Transport) Register(ctx context.Context, email, password string) (users.AuthPayload, error) {
	var m struct {
		Register authPayloadFields `graphql:"register(input: $input)"`
	}
	variables := map[string]any{
		"input": RegisterInput{Email: graphql.String(email), Password: graphql.String(password)},
	}
	if err := t.gql.MutateNamed(ctx, "Register", &m, variables); err != nil {
		return users.AuthPayload{}, fmt.Errorf("[Transport Register] %w", err)
	}
	return m.Register.toPayload(), nil
}

// RefreshToken exchanges the refresh cookie for a new access token. It never sends
// a bearer header, whatever the context carries.
func (t *Transport) RefreshToken(ctx context.Context) (users.AuthPayload, error) {
	var m struct {
		RefreshToken authPayloadFields `graphql:"refreshToken"`
	}
	if err := t.gql.MutateNamed(WithBearer(ctx, ""), "RefreshToken", &m, nil); err != nil {
		return users.AuthPayload{}, fmt.Errorf("[Transport RefreshToken] %w", err)
	}
	return m.RefreshToken.toPayload(), nil
}

func (t *Transport) Logout(ctx context.Context) error {
	var m struct {
		Logout bool `graphql:"logout"`
	}
	if err := t.gql.MutateNamed(ctx, "Logout", &m, nil); err != nil {
		return fmt.Errorf("[Transport Logout] %w", err)
	}
	return nil
}

func (t *Transport) Me(ctx context.Context) (users.User, error) {
	var q struct {
		Me userFields `graphql:"me"`
	}
	if err := t.gql.QueryNamed(ctx, "Me", &q, nil); err != nil {
		return users.User{}, fmt.Errorf("[Transport Me] %w", err)
	}
	return q.Me.toUser(), nil
}
