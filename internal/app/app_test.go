package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coretelegram "github.com/m3rciful/craftbot/core/telegram"
	"github.com/m3rciful/craftbot/internal/flow"
	"github.com/m3rciful/craftbot/internal/session"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
database:
  user: bot
  name: craft
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, "longpoll", cfg.Telegram.RunMode)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, session.DefaultIdleTimeout, cfg.Session.IdleTimeout)
	assert.Equal(t, time.Minute, cfg.Session.SweepInterval)
	assert.Equal(t, flow.DefaultAITimeout, cfg.AI.Timeout)
	assert.Equal(t, flow.DefaultSaveTimeout, cfg.Storage.SaveTimeout)
	assert.InDelta(t, 0.7, cfg.AI.Temperature, 0.001)
	assert.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestLoadConfigEnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "from-yaml"
session:
  idle_timeout: 5m
ai:
  timeout: 10s
`)
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("SESSION_IDLE_TIMEOUT", "20m")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("DB_NAME", "listings")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, 20*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, 10*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "key", cfg.AI.GeminiAPIKey)
	assert.Equal(t, "listings", cfg.Database.Name)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		t.Setenv("BOT_TOKEN", "")
		_, err := LoadConfig(writeConfig(t, "session:\n  idle_timeout: 1m\n"))
		require.Error(t, err)
	})
	t.Run("temperature", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "telegram:\n  token: x\nai:\n  temperature: 3\n"))
		require.ErrorContains(t, err, "temperature")
	})
}

func TestCoreConfigNil(t *testing.T) {
	var cfg *Config
	assert.Nil(t, cfg.CoreConfig())
}

func testApp(t *testing.T) (*App, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)

	cfg := &Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.Telegram.AdminID = 42
	require.NoError(t, cfg.normalize())

	a, err := assemble(context.Background(), cfg, sqlx.NewDb(raw, "postgres"))
	require.NoError(t, err)
	t.Cleanup(a.dispatcher.Close)
	return a, mock
}

func TestAssembleWithoutGeminiUsesStatic(t *testing.T) {
	a, _ := testApp(t)
	assert.Nil(t, a.gemini)
	assert.NotNil(t, a.handler)
}

func TestTelegramRunOptionsWiresRoutes(t *testing.T) {
	a, _ := testApp(t)

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)

	// 7 commands, 1 callback router, text/photo/document.
	assert.Len(t, opts.Routes, 11)
	assert.Same(t, a.dispatcher, opts.Dispatcher)
	assert.Same(t, &a.cfg.Config, opts.Config)
	require.NotNil(t, opts.Registry)
	assert.Len(t, opts.Registry.ListCallbacks(), 4)

	names := make([]string, 0, len(opts.Middlewares))
	for _, mw := range opts.Middlewares {
		names = append(names, mw.Name)
	}
	assert.Equal(t, []string{"recover", "logger", "metrics"}, names)
}

func TestStartStopLifecycle(t *testing.T) {
	a, mock := testApp(t)
	mock.ExpectClose()

	ctx := context.Background()
	require.NoError(t, a.start(ctx, coretelegram.Runtime{}))
	require.NotNil(t, a.stopSweeper)

	require.NoError(t, a.stop(ctx, coretelegram.Runtime{}))
	assert.Nil(t, a.stopSweeper)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStopReportsCloseError(t *testing.T) {
	a, mock := testApp(t)
	mock.ExpectClose().WillReturnError(assert.AnError)

	err := a.stop(context.Background(), coretelegram.Runtime{})
	require.ErrorIs(t, err, assert.AnError)
}
