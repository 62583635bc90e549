package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ClientConfig struct {
	APIBaseURL    string        `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	ClientVersion string        `env:"CLIENT_VERSION" envDefault:"go-dev"`
	HTTPTimeout   time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`

	GameID        string `env:"GAME_ID" envDefault:"the-landlord"`
	AdUnitID      string `env:"AD_UNIT_ID" envDefault:"ait-ad-test-rewarded-id"`
	ViralModuleID string `env:"VIRAL_MODULE_ID"`

	// LaunchURL carries the deep-link query parameters (invite, revenge)
	// the client was opened with.
	LaunchURL string `env:"LAUNCH_URL" envDefault:"http://localhost:5173/"`
	Consented bool   `env:"CONSENTED" envDefault:"true"`

	// IdentityFile persists the mock bridge's generated identity between
	// runs when no host platform is available.
	IdentityFile string `env:"IDENTITY_FILE" envDefault:".landlord_identity"`
}

func LoadClient() (ClientConfig, error) {
	var cfg ClientConfig
	err := env.Parse(&cfg)
	return cfg, err
}
