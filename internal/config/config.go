package config

type Config interface {
	EnvConfig
	CorsConfig
	SessionConfig
	DevAPIConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
	GetBaseURL() string
	GetAPIURL() string
	GetLogLevel() string
	GetIdentityDBPath() string
	GetDevAPIPort() string
	GetDevAPISecret() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Session
	DevAPI
}

// New returns a configuration backed by environment variables and defaults only.
func New() Config {
	return newMainConfig(nil)
}

// Load returns a configuration where values from the YAML file at path sit between
// environment variables and defaults. An empty path behaves like New.
func Load(path string) (Config, error) {
	if path == "" {
		return New(), nil
	}
	values, err := ReadFileValues(path)
	if err != nil {
		return nil, err
	}
	return newMainConfig(values), nil
}

func newMainConfig(values FileValues) mainConfig {
	vars := EnvVars{file: values}
	return mainConfig{EnvVars: vars, Cors: Cors{env: vars}}
}
