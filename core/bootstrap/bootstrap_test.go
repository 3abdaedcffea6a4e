package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/craftbot/core/config"
	coredatabase "github.com/m3rciful/craftbot/core/database"
)

func fakeDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	return sqlx.NewDb(raw, "postgres"), mock
}

func validOptions() Options {
	return Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{User: "bot", Name: "craft"},
		LoggerInit: func(*coreconfig.Config) error { return nil },
	}
}

func TestRunConnectsAndMigrates(t *testing.T) {
	db, _ := fakeDB(t)
	var steps []string
	opts := validOptions()
	opts.Connect = func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
		steps = append(steps, "connect")
		return db, nil
	}
	opts.Migrate = func(context.Context, coredatabase.Config) error {
		steps = append(steps, "migrate")
		return nil
	}

	res, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Same(t, db, res.DB)
	assert.Equal(t, []string{"connect", "migrate"}, steps)
}

func TestRunClosesDBWhenMigrationFails(t *testing.T) {
	db, mock := fakeDB(t)
	mock.ExpectClose()
	opts := validOptions()
	opts.Connect = func(context.Context, coredatabase.Config) (*sqlx.DB, error) { return db, nil }
	opts.Migrate = func(context.Context, coredatabase.Config) error { return errors.New("dirty") }

	_, err := Run(context.Background(), opts)
	require.ErrorContains(t, err, "migrations failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRejectsBadInput(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.ErrorContains(t, err, "nil config")

	opts := validOptions()
	opts.Database = coredatabase.Config{}
	_, err = Run(context.Background(), opts)
	assert.ErrorContains(t, err, "database.user is required")

	opts = validOptions()
	opts.LoggerInit = func(*coreconfig.Config) error { return errors.New("bad sink") }
	_, err = Run(context.Background(), opts)
	assert.ErrorContains(t, err, "logger init failed")
}
