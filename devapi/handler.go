// Package devapi is a development GraphQL backend. It implements the login,
// register, refreshToken, logout and me operations the web app consumes, issuing
// HS256 access tokens and rotating opaque refresh tokens held in an HttpOnly cookie.
package devapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/rs/zerolog/log"
)

const (
	RefreshCookieName = "refresh_token"
	maxQueryDepth     = 10
)

// exchange gives resolvers access to the HTTP request and response, for the
// bearer header and the refresh cookie.
type exchange struct {
	w http.ResponseWriter
	r *http.Request
}

type exchangeKey struct{}

func exchangeFrom(ctx context.Context) *exchange {
	ex, _ := ctx.Value(exchangeKey{}).(*exchange)
	if ex == nil {
		return &exchange{}
	}
	return ex
}

func (e *exchange) bearerToken() string {
	if e.r == nil {
		return ""
	}
	header := e.r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func (e *exchange) refreshCookie() string {
	if e.r == nil {
		return ""
	}
	cookie, err := e.r.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (e *exchange) setRefreshCookie(token string, maxAge int) {
	if e.w == nil {
		return
	}
	http.SetCookie(e.w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   e.r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func (e *exchange) clearRefreshCookie() {
	if e.w == nil {
		return
	}
	http.SetCookie(e.w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   e.r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// panicLogger reports resolver panics through zerolog
type panicLogger struct{}

func (panicLogger) LogPanic(_ context.Context, value interface{}) {
	log.Error().Interface("panic", value).Msg("GraphQL resolver panicked")
}

// Handler serves the GraphQL endpoint
type Handler struct {
	schema *graphql.Schema
}

func NewHandler(service *Service) *Handler {
	schema := graphql.MustParseSchema(Schema, &rootResolver{service: service},
		graphql.MaxDepth(maxQueryDepth),
		graphql.Logger(panicLogger{}),
	)
	return &Handler{schema: schema}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var params struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := context.WithValue(r.Context(), exchangeKey{}, &exchange{w: w, r: r})
	response := h.schema.Exec(ctx, params.Query, params.OperationName, params.Variables)
	for _, e := range response.Errors {
		log.Debug().Str("error", e.Message).Interface("path", e.Path).Msg("GraphQL error")
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(responseJSON)
}
