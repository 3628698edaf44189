package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-web-template/server/browsersession"
)

type entryContextKey struct{}

func withEntry(ctx context.Context, entry browsersession.Entry) context.Context {
	return context.WithValue(ctx, entryContextKey{}, entry)
}

// entryFrom returns the browser session attached by BrowserSessionMiddleware
func entryFrom(ctx context.Context) (browsersession.Entry, bool) {
	entry, ok := ctx.Value(entryContextKey{}).(browsersession.Entry)
	return entry, ok
}

func (s *Server) SetBrowserSessionCookie(w http.ResponseWriter, sessionID string, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.GetSessionCookieName(),
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.GetMaxSessionAge().Seconds()),
	})
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
