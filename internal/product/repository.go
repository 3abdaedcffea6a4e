package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/craftbot/core/logger"
)

const (
	upsertSellerSQL = `
INSERT INTO sellers (chat_id, name)
VALUES ($1, $2)
ON CONFLICT (chat_id) DO UPDATE SET name = EXCLUDED.name, updated_at = now()
RETURNING id`

	insertProductSQL = `
INSERT INTO products (seller_id, session_id, product_name, price, description, image_file_id, image_unique_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (session_id) DO NOTHING
RETURNING id`

	insertSpecSQL = `
INSERT INTO product_specifications (product_id, position, spec_key, question, answer)
VALUES ($1, $2, $3, $4, $5)`

	listRecentSQL = `
SELECT p.id, p.product_name, p.price, p.description, p.created_at
FROM products p
JOIN sellers s ON s.id = p.seller_id
WHERE s.chat_id = $1 AND p.is_active
ORDER BY p.created_at DESC
LIMIT $2`
)

// Listing is a saved product as shown back to its seller.
type Listing struct {
	ID          int64           `db:"id"`
	Name        sql.NullString  `db:"product_name"`
	Price       sql.NullFloat64 `db:"price"`
	Description string          `db:"description"`
	CreatedAt   time.Time       `db:"created_at"`
}

// Repository persists finished listings in Postgres.
type Repository struct {
	db *sqlx.DB
}

// NewRepository wraps an open sqlx handle.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Save stores the record with its specification answers in one transaction.
// Saving the same session twice is a no-op, so callers may retry freely.
func (r *Repository) Save(ctx context.Context, rec Record) (err error) {
	start := time.Now()
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("product save: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var sellerID int64
	if err = tx.QueryRowxContext(ctx, upsertSellerSQL, rec.SellerID, sellerName(rec)).Scan(&sellerID); err != nil {
		return fmt.Errorf("product save: seller: %w", err)
	}

	var productID int64
	err = tx.QueryRowxContext(ctx, insertProductSQL,
		sellerID, rec.SessionID, rec.Name, rec.Price, rec.Description,
		rec.Image.FileID, rec.Image.FileUniqueID,
	).Scan(&productID)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		_ = tx.Rollback()
		logger.Info(ctx, "product", "product.save",
			slog.String("status", "skip"),
			slog.String("session_id", rec.SessionID),
			slog.String("cause", "already_saved"),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("product save: product: %w", err)
	}

	for i, a := range rec.Answers {
		if _, err = tx.ExecContext(ctx, insertSpecSQL, productID, i, a.Question.Key, a.Question.Text, a.Answer); err != nil {
			return fmt.Errorf("product save: specification %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("product save: commit: %w", err)
	}

	logger.Info(ctx, "product", "product.save",
		slog.String("status", "ok"),
		slog.Int64("product_id", productID),
		slog.String("session_id", rec.SessionID),
		slog.Int("count", len(rec.Answers)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// ListRecent returns the latest active listings of a seller.
func (r *Repository) ListRecent(ctx context.Context, sellerID int64, limit int) ([]Listing, error) {
	if limit <= 0 {
		limit = 5
	}
	var out []Listing
	if err := r.db.SelectContext(ctx, &out, listRecentSQL, sellerID, limit); err != nil {
		return nil, fmt.Errorf("product list: %w", err)
	}
	return out, nil
}

func sellerName(rec Record) string {
	if rec.SellerName != "" {
		return rec.SellerName
	}
	return fmt.Sprintf("User_%d", rec.SellerID)
}
