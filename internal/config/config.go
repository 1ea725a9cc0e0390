package config

import "github.com/caarlos0/env/v11"

// Config carries the environment-driven settings of the API server.
type Config struct {
	Addr          string `env:"BANK_ADDR" envDefault:":8080"`
	RateBurst     int    `env:"BANK_RATE_BURST" envDefault:"20"`
	RatePerSecond int    `env:"BANK_RATE_PER_SECOND" envDefault:"10"`
	MaxBodyBytes  int64  `env:"BANK_MAX_BODY_BYTES" envDefault:"1048576"`
	// DemoSeed loads the demo accounts at startup so the UI has something
	// to log into.
	DemoSeed bool `env:"BANK_DEMO_SEED" envDefault:"true"`
	// PostgresDSN, when set, is only used by the readiness probe.
	PostgresDSN string `env:"BANK_PG_DSN"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
