package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr         string        `env:"TIERLIST_ADDR"          envDefault:":8080"`
	RoundSeconds int           `env:"TIERLIST_ROUND_SECONDS" envDefault:"30"`
	TickInterval time.Duration `env:"TIERLIST_TICK_INTERVAL" envDefault:"1s"`
	Category     string        `env:"TIERLIST_CATEGORY"      envDefault:"fruits"`
	CatalogFile  string        `env:"TIERLIST_CATALOG_FILE"`
	DatabaseURL  string        `env:"TIERLIST_DATABASE_URL"`
	LogLevel     string        `env:"TIERLIST_LOG_LEVEL"     envDefault:"info"`
	Dev          bool          `env:"TIERLIST_DEV"           envDefault:"false"`
}

// Load reads the given .env files (missing files are skipped), then parses
// the environment. Variables already set win over .env values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.RoundSeconds <= 0 {
		return fmt.Errorf("TIERLIST_ROUND_SECONDS must be positive, got %d", c.RoundSeconds)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("TIERLIST_TICK_INTERVAL must be positive, got %s", c.TickInterval)
	}
	if c.Addr == "" {
		return errors.New("TIERLIST_ADDR is empty")
	}
	return nil
}
