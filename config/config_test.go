package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 8000, cfg.Crawl.RateLimitMs)
	assert.Equal(t, 3*time.Minute, cfg.Crawl.PageTimeout)
	assert.Equal(t, uint32(3), cfg.Crawl.BreakerFailures)
	assert.True(t, cfg.Crawl.Headless)
	assert.Equal(t, int64(40), cfg.Model.Seed)
	assert.Equal(t, 10, cfg.Model.NInit)
	assert.Equal(t, "0 6 * * *", cfg.Schedule.Cron)
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=postgres dbname=vexere_db sslmode=disable",
		cfg.DSN())
}

func TestLoadWithOverrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"STORE_DRIVER":          "sqlite",
		"STORE_SQLITE_PATH":     "/tmp/x.db",
		"CRAWL_MAX_CONCURRENCY": "0",
		"CRAWL_HEADLESS":        "false",
		"MODEL_SEED":            "7",
	}))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/x.db", cfg.DSN())
	assert.Equal(t, 1, cfg.Crawl.MaxConcurrency, "concurrency is clamped to 1")
	assert.False(t, cfg.Crawl.Headless)
	assert.Equal(t, int64(7), cfg.Model.Seed)
}

func TestLoadWithRejectsUnknownDriver(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{"STORE_DRIVER": "mysql"}))
	assert.ErrorContains(t, err, "STORE_DRIVER")
}
