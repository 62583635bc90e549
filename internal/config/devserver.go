package config

import "github.com/caarlos0/env/v11"

type DevServerConfig struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// SeedTargets controls how many fake raid targets the in-memory
	// backend creates at startup.
	SeedTargets int `env:"SEED_TARGETS" envDefault:"5"`
}

func LoadDevServer() (DevServerConfig, error) {
	var cfg DevServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
