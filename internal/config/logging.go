package config

import "github.com/caarlos0/env/v11"

// LogConfig is shared by cmd/landlord and cmd/devserver. When File is
// set, log output is mirrored into a size-capped file next to the
// console stream.
type LogConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty      bool   `env:"LOG_PRETTY" envDefault:"false"`
	SampleEvery int    `env:"LOG_SAMPLE_EVERY" envDefault:"0"`
	File        string `env:"LOG_FILE"`
	MaxMB       int    `env:"LOG_MAX_MB" envDefault:"10"`
}

// FileMaxBytes is the mirror file's size cap. A non-positive MaxMB
// falls back to the 10 MB default.
func (c LogConfig) FileMaxBytes() int64 {
	mb := c.MaxMB
	if mb <= 0 {
		mb = 10
	}
	return int64(mb) * 1024 * 1024
}

func LoadLog() (LogConfig, error) {
	var cfg LogConfig
	err := env.Parse(&cfg)
	return cfg, err
}
