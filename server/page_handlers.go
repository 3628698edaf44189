package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-web-template/forms"
	"github.com/jrsteele09/go-web-template/gqlclient"
	apperrors "github.com/jrsteele09/go-web-template/internal/errors"
	"github.com/jrsteele09/go-web-template/routeguard"
	"github.com/jrsteele09/go-web-template/users"
	"github.com/rs/zerolog/log"
)

// PageData is shared by every page
type PageData struct {
	AppName string
	User    *users.User // Signed-in user for the header, nil when anonymous
	Error   string
}

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	PageData
	Email  string // Preserve email on error
	From   string // Where to go after login
	Fields forms.FieldErrors
}

type RegisterPageData struct {
	PageData
	Email  string
	Fields forms.FieldErrors
}

type DashboardPageData struct {
	PageData
	Me *users.User
}

func (s *Server) newPageData(r *http.Request) PageData {
	data := PageData{AppName: s.config.GetAppName()}
	if entry, ok := entryFrom(r.Context()); ok {
		data.User = entry.Store.State().User
	}
	return data
}

// LoginPageHandler displays the login page (GET /login)
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from := r.URL.Query().Get("from")

		entry, _ := entryFrom(r.Context())
		if state := entry.Store.State(); state.User != nil && !state.IsLoading {
			redirectSuccess(w, r, routeguard.ReturnTo(from))
			return
		}

		s.render(w, s.pages.login, http.StatusOK, LoginPageData{
			PageData: s.newPageData(r),
			From:     from,
		})
	}
}

// LoginSubmissionHandler processes the login form submission (POST /login)
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")
		data := LoginPageData{
			PageData: s.newPageData(r),
			Email:    email,
			From:     r.FormValue("from"),
		}

		if data.Fields = forms.ValidateLogin(email, password); data.Fields.Any() {
			s.render(w, s.pages.login, http.StatusUnprocessableEntity, data)
			return
		}

		entry, _ := entryFrom(r.Context())
		ctx, cancel := context.WithTimeout(r.Context(), s.config.GetRequestTimeout())
		defer cancel()

		payload, err := entry.Client.Login(ctx, email, password)
		if err == nil && payload.IsEmpty() {
			err = apperrors.ErrInvalidCredentials
		}
		if err != nil {
			data.Error = gqlclient.Message(err, "Login failed")
			s.render(w, s.pages.login, statusFor(err), data)
			return
		}

		if err := entry.Store.SetAuth(ctx, payload.AccessToken, payload.User); err != nil {
			log.Err(err).Msg("Login succeeded but identity was not persisted")
		}
		redirectSuccess(w, r, routeguard.ReturnTo(data.From))
	}
}

// RegisterPageHandler displays the registration page (GET /register)
func (s *Server) RegisterPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, s.pages.register, http.StatusOK, RegisterPageData{PageData: s.newPageData(r)})
	}
}

// RegisterSubmissionHandler processes the registration form (POST /register)
func (s *Server) RegisterSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")
		data := RegisterPageData{
			PageData: s.newPageData(r),
			Email:    email,
		}

		if data.Fields = forms.ValidateRegister(email, password, r.FormValue("confirmPassword")); data.Fields.Any() {
			s.render(w, s.pages.register, http.StatusUnprocessableEntity, data)
			return
		}

		entry, _ := entryFrom(r.Context())
		ctx, cancel := context.WithTimeout(r.Context(), s.config.GetRequestTimeout())
		defer cancel()

		payload, err := entry.Client.Register(ctx, email, password)
		if err == nil && payload.IsEmpty() {
			err = apperrors.ErrInternal
		}
		if err != nil {
			data.Error = gqlclient.Message(err, "Registration failed")
			s.render(w, s.pages.register, statusFor(err), data)
			return
		}

		if err := entry.Store.SetAuth(ctx, payload.AccessToken, payload.User); err != nil {
			log.Err(err).Msg("Registration succeeded but identity was not persisted")
		}
		redirectSuccess(w, r, routeguard.DefaultReturnTo)
	}
}

// LogoutHandler ends the session (POST /logout). The backend is told first, best
// effort; the local session is cleared whatever it answers.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, _ := entryFrom(r.Context())
		ctx, cancel := context.WithTimeout(r.Context(), s.config.GetRequestTimeout())
		defer cancel()

		_ = entry.Client.SignOut(ctx)
		redirectSuccess(w, r, RouteLogin)
	}
}

// DashboardHandler shows the signed-in user's details (GET /app)
func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, _ := entryFrom(r.Context())
		ctx, cancel := context.WithTimeout(r.Context(), s.config.GetRequestTimeout())
		defer cancel()

		me, err := entry.Client.Me(ctx)
		if apperrors.Is(err, apperrors.ErrSessionExpired) {
			redirectSuccess(w, r, routeguard.LoginURL(r.URL.RequestURI()))
			return
		}

		data := DashboardPageData{PageData: s.newPageData(r)}
		status := http.StatusOK
		if err != nil {
			data.Error = gqlclient.Message(err, "Failed to load your details")
			status = statusFor(err)
		} else {
			data.Me = &me
		}
		s.render(w, s.pages.dashboard, status, data)
	}
}

func (s *Server) renderLoading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "1")
	s.render(w, s.pages.loading, http.StatusOK, s.newPageData(r))
}

// statusFor maps a network error to the status of the re-rendered page
func statusFor(err error) int {
	switch {
	case apperrors.Is(err, apperrors.ErrTransport):
		return http.StatusBadGateway
	case apperrors.Is(err, apperrors.ErrUnauthenticated), apperrors.Is(err, apperrors.ErrSessionExpired):
		return http.StatusUnauthorized
	default:
		return http.StatusUnprocessableEntity
	}
}
