package configs

import (
	"flag"
	"os"

	"github.com/nowly-app/nowly/internal/infrastructure/env"
)

// DetermineConfigPath resolves the config file from the --config flag, the
// NOWLY_CONFIG env var, or a list of conventional locations. An empty result
// means "run on built-in defaults", which is fine for local use.
func DetermineConfigPath() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	return ResolvePath(configPath)
}

// ResolvePath applies the fallback chain to an explicitly supplied path.
// Binaries that own their flag set parse it themselves and call this.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}

	if p := env.GetString("NOWLY_CONFIG", ""); p != "" {
		return p
	}

	candidates := []string{
		"./config.yaml",
		"./config.yml",
		"/etc/nowly/config.yaml",
		"/app/config.yaml", // common in Docker
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
