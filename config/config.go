package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Postgres PostgresConfig `env:", prefix=POSTGRES_"`
	Store    StoreConfig    `env:", prefix=STORE_"`
	Crawl    CrawlConfig    `env:", prefix=CRAWL_"`
	Data     DataConfig     `env:", prefix=DATA_"`
	Schedule ScheduleConfig `env:", prefix=SCHEDULE_"`
	Model    ModelConfig    `env:", prefix=MODEL_"`
	Log      LogConfig      `env:", prefix=LOG_"`
}

type PostgresConfig struct {
	Host     string `env:"HOST, default=localhost"`
	Port     string `env:"PORT, default=5432"`
	User     string `env:"USER, default=postgres"`
	Password string `env:"PASSWORD, default=postgres"`
	DB       string `env:"DB, default=vexere_db"`
	SSLMode  string `env:"SSLMODE, default=disable"`
}

// StoreConfig selects the relational backend trips are loaded into.
type StoreConfig struct {
	// postgres or sqlite
	Driver     string `env:"DRIVER, default=postgres"`
	SQLitePath string `env:"SQLITE_PATH, default=./data/vexere.db"`
}

type CrawlConfig struct {
	MaxConcurrency int           `env:"MAX_CONCURRENCY, default=1"`
	RateLimitMs    int           `env:"RATE_LIMIT_MS, default=8000"`
	MaxRetries     int           `env:"MAX_RETRIES, default=3"`
	DaysOffset     int           `env:"DAYS_OFFSET, default=2"`
	ShowMoreClicks int           `env:"SHOW_MORE_CLICKS, default=2"`
	PageTimeout    time.Duration `env:"PAGE_TIMEOUT, default=3m"`
	ElementTimeout time.Duration `env:"ELEMENT_TIMEOUT, default=10s"`
	// Consecutive route failures before the breaker opens and the rest of
	// the crawl is skipped.
	BreakerFailures uint32 `env:"BREAKER_FAILURES, default=3"`
	Headless        bool   `env:"HEADLESS, default=true"`
	ChromeBin       string `env:"CHROME_BIN"`
}

type DataConfig struct {
	RawDir       string `env:"RAW_DIR, default=./data/raw"`
	ProcessedDir string `env:"PROCESSED_DIR, default=./data/processed"`
	RoutesFile   string `env:"ROUTES_FILE, default=./routes.yaml"`
}

type ScheduleConfig struct {
	Cron string `env:"CRON, default=0 6 * * *"`
}

type ModelConfig struct {
	Seed    int64 `env:"SEED, default=40"`
	NInit   int   `env:"N_INIT, default=10"`
	MaxIter int   `env:"MAX_ITER, default=300"`
}

type LogConfig struct {
	Level string `env:"LEVEL, default=info"`
}

// Load reads the .env file and returns a populated Config struct.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith builds a Config from the given lookuper instead of the process
// environment.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: process env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Crawl.MaxConcurrency < 1 {
		c.Crawl.MaxConcurrency = 1
	}
	if c.Crawl.MaxRetries < 1 {
		c.Crawl.MaxRetries = 1
	}
	return nil
}

// DSN returns the connection string for the configured store driver.
func (c *Config) DSN() string {
	if c.Store.Driver == "sqlite" {
		return c.Store.SQLitePath
	}
	p := c.Postgres
	return "host=" + p.Host +
		" port=" + p.Port +
		" user=" + p.User +
		" password=" + p.Password +
		" dbname=" + p.DB +
		" sslmode=" + p.SSLMode
}
