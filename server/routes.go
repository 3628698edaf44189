package server

import (
	"net/http"
	"strings"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteRoot+"{$}", ChainMiddleware(s.RootHandler(), s.HTMLMiddleWare()...))

	// Public pages
	s.RegisterRouteFunc("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.PageMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.PageMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteRegister, ChainMiddleware(s.RegisterPageHandler(), s.PageMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteRegister, ChainMiddleware(s.RegisterSubmissionHandler(), s.PageMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.PageMiddleware()...))

	// Protected pages
	s.RegisterRouteFunc("GET "+RouteApp, ChainMiddleware(s.DashboardHandler(), s.PageMiddleware(s.RequireUser)...))
	s.RegisterRouteFunc("GET "+RouteAppDashboard, ChainMiddleware(s.DashboardHandler(), s.PageMiddleware(s.RequireUser)...))

	// API routes
	s.RegisterRouteFunc("GET "+RouteAPISession, ChainMiddleware(s.SessionAPIHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("OPTIONS "+RouteAPISession, ChainMiddleware(s.SessionAPIHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			logError("GET", filePath, err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}

// RootHandler sends visitors to the app, the guard decides from there
func (s *Server) RootHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, RouteApp, http.StatusFound)
	}
}
