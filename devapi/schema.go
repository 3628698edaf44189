package devapi

import (
	"context"
	"time"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/jrsteele09/go-web-template/users"
)

const Schema = `
schema {
	query: Query
	mutation: Mutation
}

type Query {
	me: User!
}

type Mutation {
	login(input: LoginInput!): AuthPayload!
	register(input: RegisterInput!): AuthPayload!
	refreshToken: AuthPayload!
	logout: Boolean!
}

input LoginInput {
	email: String!
	password: String!
}

input RegisterInput {
	email: String!
	password: String!
}

enum Role {
	USER
	ADMIN
}

type User {
	id: ID!
	email: String!
	role: Role!
	createdAt: String!
	updatedAt: String!
}

type AuthPayload {
	accessToken: String!
	user: User!
}
`

type credentialsInput struct {
	Email    string
	Password string
}

// rootResolver resolves Query and Mutation
type rootResolver struct {
	service *Service
}

func (r *rootResolver) Me(ctx context.Context) (*userResolver, error) {
	user, err := r.service.Me(ctx, exchangeFrom(ctx).bearerToken())
	if err != nil {
		return nil, toGraphQLError("me", err)
	}
	return &userResolver{user: user}, nil
}

func (r *rootResolver) Login(ctx context.Context, args struct{ Input credentialsInput }) (*authPayloadResolver, error) {
	sess, err := r.service.Login(ctx, args.Input.Email, args.Input.Password)
	if err != nil {
		return nil, toGraphQLError("login", err)
	}
	exchangeFrom(ctx).setRefreshCookie(sess.RefreshToken, r.service.RefreshTokenExpiry())
	return &authPayloadResolver{payload: sess.Payload}, nil
}

func (r *rootResolver) Register(ctx context.Context, args struct{ Input credentialsInput }) (*authPayloadResolver, error) {
	sess, err := r.service.Register(ctx, args.Input.Email, args.Input.Password)
	if err != nil {
		return nil, toGraphQLError("register", err)
	}
	exchangeFrom(ctx).setRefreshCookie(sess.RefreshToken, r.service.RefreshTokenExpiry())
	return &authPayloadResolver{payload: sess.Payload}, nil
}

func (r *rootResolver) RefreshToken(ctx context.Context) (*authPayloadResolver, error) {
	ex := exchangeFrom(ctx)
	sess, err := r.service.Refresh(ctx, ex.refreshCookie())
	if err != nil {
		ex.clearRefreshCookie()
		return nil, toGraphQLError("refreshToken", err)
	}
	ex.setRefreshCookie(sess.RefreshToken, r.service.RefreshTokenExpiry())
	return &authPayloadResolver{payload: sess.Payload}, nil
}

func (r *rootResolver) Logout(ctx context.Context) bool {
	ex := exchangeFrom(ctx)
	r.service.Logout(ctx, ex.refreshCookie(), ex.bearerToken())
	ex.clearRefreshCookie()
	return true
}

type authPayloadResolver struct {
	payload users.AuthPayload
}

func (r *authPayloadResolver) AccessToken() string {
	return r.payload.AccessToken
}

func (r *authPayloadResolver) User() *userResolver {
	return &userResolver{user: r.payload.User}
}

type userResolver struct {
	user users.User
}

func (r *userResolver) ID() graphql.ID {
	return graphql.ID(r.user.ID)
}

func (r *userResolver) Email() string {
	return r.user.Email
}

func (r *userResolver) Role() string {
	if r.user.Role == "" {
		return string(users.RoleUser)
	}
	return string(r.user.Role)
}

func (r *userResolver) CreatedAt() string {
	return r.user.CreatedAt.UTC().Format(time.RFC3339)
}

func (r *userResolver) UpdatedAt() string {
	return r.user.UpdatedAt.UTC().Format(time.RFC3339)
}
