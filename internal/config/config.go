package config

import (
	"flag"
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Addr         string `env:"RUN_ADDRESS" env-default:":8080"`
	DatabaseURL  string `env:"DATABASE_URL"`
	Env          string `env:"ENVIRONMENT" env-default:"development"`
	PayOnReserve bool   `env:"PAY_ON_RESERVE"`
	BcryptCost   int    `env:"BCRYPT_COST" env-default:"10"`
}

// Load parses command-line args and then the environment; environment
// variables win over flags. An empty DatabaseURL selects the in-memory
// store.
func Load(args []string) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("parkops", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "a", ":8080", "address to listen on")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "postgres connection URL")
	fs.BoolVar(&cfg.PayOnReserve, "pay-on-reserve", false, "debit the spot price when reserving")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("couldn't parse flags: %w", err)
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("couldn't read environment variables: %w", err)
	}

	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, fmt.Errorf("bcrypt cost %d out of range", cfg.BcryptCost)
	}

	return cfg, nil
}
