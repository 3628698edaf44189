package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-web-template/gqlclient"
	apperrors "github.com/jrsteele09/go-web-template/internal/errors"
	"github.com/jrsteele09/go-web-template/routeguard"
	"github.com/jrsteele09/go-web-template/server/browsersession"
	"github.com/jrsteele09/go-web-template/session"
	"github.com/rs/zerolog/log"
)

// BrowserSessionMiddleware attaches the browser's session entry to the request,
// creating one on first contact. A cookie whose entry is gone (server restart,
// sweep) keeps its ID so the persisted identity is rehydrated.
func (s *Server) BrowserSessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if cookie, err := r.Cookie(s.config.GetSessionCookieName()); err == nil {
			if id, err := uuid.Parse(cookie.Value); err == nil {
				sessionID = id.String()
			}
		}

		entry, created, err := s.entryFor(r.Context(), sessionID)
		if err != nil {
			log.Err(err).Msg("Failed to open browser session")
			http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
			return
		}
		if created || sessionID == "" {
			s.SetBrowserSessionCookie(w, entry.Store.ID(), r)
		}

		next(w, r.WithContext(withEntry(r.Context(), entry)))
	}
}

func (s *Server) entryFor(ctx context.Context, sessionID string) (browsersession.Entry, bool, error) {
	now := time.Now()
	if sessionID != "" {
		if entry, err := s.sessions.Get(sessionID); err == nil {
			_ = s.sessions.Touch(sessionID, now)
			return entry, false, nil
		}
	}

	s.createLock.Lock()
	defer s.createLock.Unlock()

	if sessionID == "" {
		sessionID = uuid.New().String()
	} else if entry, err := s.sessions.Get(sessionID); err == nil {
		// Created by a concurrent request while we waited
		return entry, false, nil
	}

	entry, err := s.newEntry(ctx, sessionID, now)
	if err != nil {
		return browsersession.Entry{}, false, err
	}
	if err := s.sessions.Upsert(sessionID, entry); err != nil {
		return browsersession.Entry{}, false, fmt.Errorf("[Server entryFor] store browser session: %w", err)
	}
	log.Debug().Str("session", sessionID[:8]).Bool("rehydrated", entry.Store.State().User != nil).Msg("Browser session created")
	return entry, true, nil
}

// newEntry wires a store and client for one browser. The http client's cookie
// jar holds that browser's refresh credential for the backend.
func (s *Server) newEntry(ctx context.Context, sessionID string, now time.Time) (browsersession.Entry, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return browsersession.Entry{}, fmt.Errorf("[Server newEntry] cookie jar: %w", err)
	}
	httpClient := &http.Client{Jar: jar, Timeout: s.config.GetRequestTimeout()}

	cache := gqlclient.NewCache()
	transport := gqlclient.NewTransport(s.config.GetAPIURL(), httpClient)
	store, err := session.NewStore(ctx, sessionID, s.identities, transport, cache,
		session.WithRefreshTimeout(s.config.GetRequestTimeout()))
	if err != nil {
		return browsersession.Entry{}, fmt.Errorf("[Server newEntry] %w", err)
	}

	return browsersession.Entry{
		Store:     store,
		Client:    gqlclient.NewClient(transport, store, gqlclient.WithCache(cache)),
		CreatedAt: now,
		LastSeen:  now,
	}, nil
}

// BootstrapMiddleware runs the session's start-up sequence on its first request.
// Requests arriving while another one runs it see the loading page.
func (s *Server) BootstrapMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, ok := entryFrom(r.Context())
		if !ok {
			next(w, r)
			return
		}

		if entry.Store.State().IsLoading {
			ctx, cancel := context.WithTimeout(r.Context(), s.config.GetBootstrapTimeout())
			entry.Store.Bootstrap(ctx)
			cancel()
		}
		next(w, r)
	}
}

// RequireUser guards protected pages
func (s *Server) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, ok := entryFrom(r.Context())
		if !ok {
			log.Err(apperrors.ErrSessionNotFound).Str("path", r.URL.Path).Msg("Guarded route without browser session")
			http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
			return
		}

		decision := routeguard.Evaluate(entry.Store.State(), r.URL.RequestURI())
		switch decision.Action {
		case routeguard.Wait:
			s.renderLoading(w, r)
		case routeguard.Redirect:
			redirectSuccess(w, r, decision.Location)
		default:
			next(w, r)
		}
	}
}
