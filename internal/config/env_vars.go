package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	portEnvVar       = "PORT"
	appNameVar       = "APP_NAME"
	folderEnvVar     = "FOLDER"
	baseURLVar       = "BASE_URL"
	apiURLVar        = "API_URL"
	logLevelVar      = "LOG_LEVEL"
	identityDBVar    = "IDENTITY_DB"
	devAPIPortVar    = "DEVAPI_PORT"
	devAPISecretVar  = "DEVAPI_SECRET"
	defaultAPIURL    = "http://localhost:4000/graphql"
	identityDBMemory = ":memory:"
)

type EnvVars struct {
	file FileValues
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) get(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	if value, ok := e.file[envVar]; ok && value != "" {
		return value
	}
	return defaultValue
}

func (e EnvVars) GetPort() string {
	return listenAddr(e.get(portEnvVar, "8080"))
}

func (e EnvVars) GetAppName() string {
	return e.get(appNameVar, "Web Template")
}

func (e EnvVars) GetDataFolder() string {
	return e.get(folderEnvVar, "./data")
}

func (e EnvVars) GetEnv() string {
	return e.get("ENV", "DEV")
}

// GetBaseURL returns the externally visible URL of the web app (e.g., "https://app.example.com")
func (e EnvVars) GetBaseURL() string {
	return e.get(baseURLVar, "http://localhost:8080")
}

// GetAPIURL returns the GraphQL endpoint the app talks to on behalf of browsers
func (e EnvVars) GetAPIURL() string {
	return e.get(apiURLVar, defaultAPIURL)
}

func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(e.get(logLevelVar, "info"))
}

// GetIdentityDBPath returns the SQLite file holding persisted identities.
// ":memory:" keeps identities in process memory only.
func (e EnvVars) GetIdentityDBPath() string {
	return e.get(identityDBVar, filepath.Join(e.GetDataFolder(), "identities.db"))
}

func (e EnvVars) GetDevAPIPort() string {
	return listenAddr(e.get(devAPIPortVar, "4000"))
}

func (e EnvVars) GetDevAPISecret() string {
	return e.get(devAPISecretVar, "dev-only-signing-secret")
}

// IsMemoryDB reports whether path selects the in-memory identity cache
func IsMemoryDB(path string) bool {
	return path == identityDBMemory
}

func listenAddr(port string) string {
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
