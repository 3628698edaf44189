package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jrsteele09/go-web-template/internal/config"
	"github.com/jrsteele09/go-web-template/server"
	"github.com/jrsteele09/go-web-template/server/browsersession"
	"github.com/jrsteele09/go-web-template/session/identitycache"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web app",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		displayAppname(c.GetAppName())

		for {
			err := run(c)
			if err == nil {
				break
			}
			log.Err(err).Msg("Error running server, restarting")
			time.Sleep(1 * time.Second)
		}
		log.Info().Msg("Server stopped")
		return nil
	},
}

func run(c config.Config) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	identities, err := openIdentityRepo(c.GetIdentityDBPath())
	if err != nil {
		return err
	}
	defer func() {
		if err := identities.Close(); err != nil {
			log.Err(err).Msg("Failed to close identity cache")
		}
	}()

	sessions := browsersession.NewInMemoryRepo()
	handler, err := server.New(c, sessions, identities)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go browsersession.NewSweeper(sessions, identities, c.GetMaxSessionAge()).Run(ctx, c.GetSessionSweepInterval())

	srv := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(srv) }()

	log.Info().Str("api", c.GetAPIURL()).Msg("Forwarding sessions to GraphQL API")
	if err := waitForStopSignal(serveErr); err != nil {
		return err
	}
	return shutdown(srv)
}

func openIdentityRepo(path string) (identitycache.Repo, error) {
	if config.IsMemoryDB(path) {
		log.Warn().Msg("Identity cache is in memory, sessions will not survive a restart")
		return identitycache.NewMemoryRepo(), nil
	}
	repo, err := identitycache.NewSQLiteRepo(path)
	if err != nil {
		return nil, fmt.Errorf("open identity cache %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("Identity cache opened")
	return repo, nil
}

func listenAndServe(srv *http.Server) error {
	log.Info().Str("addr", srv.Addr).Msg("Server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

// waitForStopSignal blocks until a stop signal arrives or the server fails
func waitForStopSignal(serveErr <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		return nil
	case err := <-serveErr:
		return err
	}
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
