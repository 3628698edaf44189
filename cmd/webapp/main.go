package main

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-web-template/internal/config"
	"github.com/jrsteele09/go-web-template/internal/logging"
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "webapp",
	Short: "Server-rendered web app with backend-held sessions",
	Long: `webapp serves login, registration and a protected dashboard. Each browser gets
an opaque session cookie; access and refresh credentials for the GraphQL API stay
on the server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.GetEnv("CONFIG_FILE", ""),
		"YAML file with settings keyed by environment variable name")
	rootCmd.AddCommand(serveCmd, devAPICmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the --config overlay and configures logging from it
func loadConfig() (config.Config, error) {
	c, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	logging.Setup(c.GetEnv(), c.GetLogLevel())
	return c, nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
