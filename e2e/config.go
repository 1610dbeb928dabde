package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_SERVER_ADDR is the host:port of a running morse-lab server.
	// The suite is skipped when empty.
	ServerAddr string `envconfig:"E2E_SERVER_ADDR"`
	// E2E_AUTH_SECRET must match the server's AUTH_SECRET when tokens are enabled
	AuthSecret string `envconfig:"E2E_AUTH_SECRET"`
	// E2E_DEBUG_JSON dumps every notification received
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
