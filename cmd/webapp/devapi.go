package main

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-web-template/devapi"
	"github.com/jrsteele09/go-web-template/users"
	fakeaccountrepo "github.com/jrsteele09/go-web-template/users/repofake"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	seedEmail    string
	seedPassword string
	seedAdmin    bool
)

var devAPICmd = &cobra.Command{
	Use:   "devapi",
	Short: "Run an in-memory GraphQL auth backend for local development",
	Long: `devapi serves the login, register, refreshToken, logout and me operations at
/graphql. Accounts and refresh tokens live in memory and vanish on exit.

Examples:
  # Start with a seeded account
  webapp devapi --seed-email john.doe@example.com --seed-password password123`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}

		service, err := devapi.NewService(
			fakeaccountrepo.NewFakeAccountRepo(),
			devapi.NewAccessTokens([]byte(c.GetDevAPISecret()), c.GetTokenIssuer(), c.GetAccessTokenExpiry()),
			devapi.NewRefreshTokens(devapi.NewInMemoryRefreshTokenRepo(), c.GetRefreshTokenLength(), c.GetRefreshTokenExpiry()),
		)
		if err != nil {
			return err
		}

		if seedEmail != "" {
			role := users.RoleUser
			if seedAdmin {
				role = users.RoleAdmin
			}
			if err := service.SeedAccount(seedEmail, seedPassword, role); err != nil {
				return err
			}
			log.Info().Str("email", seedEmail).Str("role", string(role)).Msg("Seeded account")
		}

		mux := http.NewServeMux()
		mux.Handle("/graphql", devapi.NewHandler(service))

		srv := &http.Server{Addr: c.GetDevAPIPort(), Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		serveErr := make(chan error, 1)
		go func() { serveErr <- listenAndServe(srv) }()

		if err := waitForStopSignal(serveErr); err != nil {
			return err
		}
		return shutdown(srv)
	},
}

func init() {
	devAPICmd.Flags().StringVar(&seedEmail, "seed-email", "", "create this account on start")
	devAPICmd.Flags().StringVar(&seedPassword, "seed-password", "password123", "password for the seeded account")
	devAPICmd.Flags().BoolVar(&seedAdmin, "seed-admin", false, "give the seeded account the ADMIN role")
}
