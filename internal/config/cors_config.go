package config

import (
	"sort"
	"strings"
)

const (
	corsOriginsVar     = "CORS_ORIGINS"
	defaultCorsOrigins = "http://localhost:5173"
)

// Cors configures which browser origins may read /api/session
type Cors struct {
	env EnvVars
}

var _ CorsConfig = Cors{}

type AllowedOrigins map[string]struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	origins := make([]string, 0, len(a))
	for k := range a {
		origins = append(origins, k)
	}
	sort.Strings(origins)
	return strings.Join(origins, ", ")
}

// ParseAllowedOrigins reads a comma separated origin list. "*" allows any origin
// without credentials.
func ParseAllowedOrigins(list string) AllowedOrigins {
	origins := AllowedOrigins{}
	for _, origin := range strings.Split(list, ",") {
		origin = strings.TrimSuffix(strings.TrimSpace(origin), "/")
		if origin != "" {
			origins[origin] = struct{}{}
		}
	}
	return origins
}

func (c Cors) GetAllowedOrigins() AllowedOrigins {
	return ParseAllowedOrigins(c.env.get(corsOriginsVar, defaultCorsOrigins))
}

func (Cors) GetAllowedMethods() string {
	return "GET, OPTIONS"
}

func (Cors) GetAllowedHeaders() string {
	return "Content-Type"
}
