package product

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(sqlx.NewDb(db, "postgres")), mock
}

func sampleRecord() Record {
	name := "Clay vase"
	price := 25.5
	clay := "terracotta"
	return Record{
		SessionID: "9f0c7e36-0b44-4c55-9a3b-2d0f4f1f6a11",
		SellerID:  42,
		Image:     ImageRef{FileID: "file-1", FileUniqueID: "uniq-1"},
		Name:      &name,
		Price:     &price,
		Answers: []Answer{
			{Question: Question{Key: "material", Text: "Material?"}, Answer: &clay},
			{Question: Question{Key: "colour", Text: "Colour?"}},
		},
		Description: "A vase.",
	}
}

func TestRepositorySave(t *testing.T) {
	repo, mock := newMockRepo(t)
	rec := sampleRecord()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sellers")).
		WithArgs(int64(42), "User_42").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO products")).
		WithArgs(int64(7), rec.SessionID, "Clay vase", 25.5, "A vase.", "file-1", "uniq-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product_specifications")).
		WithArgs(int64(100), 0, "material", "Material?", "terracotta").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product_specifications")).
		WithArgs(int64(100), 1, "colour", "Colour?", nil).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Save(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositorySaveIsIdempotent(t *testing.T) {
	repo, mock := newMockRepo(t)
	rec := sampleRecord()
	rec.SellerName = "asha"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sellers")).
		WithArgs(int64(42), "asha").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO products")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	require.NoError(t, repo.Save(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositorySaveRollsBackOnError(t *testing.T) {
	repo, mock := newMockRepo(t)
	rec := sampleRecord()
	boom := errors.New("disk full")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sellers")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO products")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product_specifications")).
		WillReturnError(boom)
	mock.ExpectRollback()

	err := repo.Save(context.Background(), rec)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "specification 0")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryListRecent(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM products p")).
		WithArgs(int64(42), 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_name", "price", "description", "created_at"}).
			AddRow(int64(1), "Clay vase", 25.5, "A vase.", created).
			AddRow(int64(2), nil, nil, "Unnamed.", created))

	out, err := repo.ListRecent(context.Background(), 42, 0)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Clay vase", out[0].Name.String)
	assert.True(t, out[0].Price.Valid)
	assert.False(t, out[1].Name.Valid)
	assert.Equal(t, created, out[1].CreatedAt)
}
