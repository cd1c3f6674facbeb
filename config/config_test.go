package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsFileAndDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level, "from config.yaml")
	assert.Equal(t, 5*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, 12, cfg.App.ExploreSampleSize, "default")
	assert.Equal(t, 10, cfg.App.TrendingTagLimit, "default")
	assert.Equal(t, 100, cfg.App.MaxPageSize, "default")
	assert.Equal(t, 400, cfg.App.PhotoSizes["small"])
	assert.Equal(t, 800, cfg.App.PhotoSizes["medium"])
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ALBUMY_SERVER_ADDR", ":9999")
	t.Setenv("ALBUMY_APP_PHOTO_PER_PAGE", "30")
	t.Setenv("ALBUMY_DATABASE_STATEMENT_TIMEOUT", "250ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 30, cfg.App.PhotoPerPage)
	assert.Equal(t, 250*time.Millisecond, cfg.Database.StatementTimeout)
}
