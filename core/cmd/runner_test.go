package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/craftbot/core/config"
	coretelegram "github.com/m3rciful/craftbot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type app struct {
	opts coretelegram.RunOptions
	err  error
}

func (a app) TelegramRunOptions() (coretelegram.RunOptions, error) { return a.opts, a.err }

func baseOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		ConfigEnvVar:      "CRAFTBOT_TEST_CONFIG",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(string) (ConfigCarrier, error) {
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		ShutdownLogger: func() error { return nil },
	}
}

func TestRunWrapsLifecycleHooks(t *testing.T) {
	var calls []string
	opts := baseOptions(t)
	opts.Bootstrap = func(context.Context, ConfigCarrier) (TelegramApp, error) {
		return app{opts: coretelegram.RunOptions{
			OnStart: func(context.Context, coretelegram.Runtime) error { calls = append(calls, "start"); return nil },
			OnStop:  func(context.Context, coretelegram.Runtime) error { calls = append(calls, "stop"); return nil },
		}}, nil
	}
	opts.RunTelegram = func(ctx context.Context, ro coretelegram.RunOptions) error {
		require.NoError(t, ro.OnStart(ctx, coretelegram.Runtime{}))
		calls = append(calls, "run")
		return ro.OnStop(ctx, coretelegram.Runtime{})
	}

	require.NoError(t, Run(opts))
	assert.Equal(t, []string{"start", "run", "stop"}, calls)
}

func TestRunPropagatesFailures(t *testing.T) {
	opts := baseOptions(t)
	boom := errors.New("db down")
	opts.Bootstrap = func(context.Context, ConfigCarrier) (TelegramApp, error) { return nil, boom }
	assert.ErrorIs(t, Run(opts), boom)

	opts = baseOptions(t)
	opts.LoadConfig = func(string) (ConfigCarrier, error) { return carrier{}, nil }
	opts.Bootstrap = func(context.Context, ConfigCarrier) (TelegramApp, error) { return app{}, nil }
	assert.ErrorContains(t, Run(opts), "missing core configuration")

	opts = baseOptions(t)
	opts.DefaultConfigPath = ""
	opts.Bootstrap = func(context.Context, ConfigCarrier) (TelegramApp, error) { return app{}, nil }
	assert.ErrorContains(t, Run(opts), "config path not provided")

	assert.Error(t, Run(Options{}))
}
