package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensa/internal/catalog"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const (
	categoryColumns = `id, name, created_by, created_at, updated_at`
	itemColumns     = `id, category_id, created_by, name, price, created_at, updated_at`
)

func scanCategory(s scanner) (*catalog.Category, error) {
	var c catalog.Category
	if err := s.Scan(&c.ID, &c.Name, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}

	return &c, nil
}

func scanItem(s scanner) (*catalog.Item, error) {
	var it catalog.Item
	if err := s.Scan(&it.ID, &it.CategoryID, &it.CreatedBy, &it.Name, &it.Price, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}

	return &it, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %w", what, ledger.ErrNotFound)
	}

	return fmt.Errorf("getting %s: %w", what, err)
}

func expectAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("%s %w", what, ledger.ErrNotFound)
	}

	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]*catalog.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var out []*catalog.Category

	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}

		out = append(out, c)
	}

	return out, rows.Err()
}

func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "category")
	}

	return c, nil
}

func insertCategory(ctx context.Context, q querier, c *catalog.Category) error {
	query := `
		INSERT INTO categories (name, created_by, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	if err := q.QueryRowContext(ctx, query, c.Name, c.CreatedBy).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("creating category: %w", err)
	}

	return nil
}

func (s *Store) CreateCategory(ctx context.Context, c *catalog.Category) error {
	return insertCategory(ctx, s.db, c)
}

func (s *Store) UpdateCategory(ctx context.Context, c *catalog.Category) error {
	err := s.db.QueryRowContext(ctx,
		`UPDATE categories SET name = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at`,
		c.Name, c.ID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("category %w", ledger.ErrNotFound)
		}

		return fmt.Errorf("updating category: %w", err)
	}

	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}

	return expectAffected(res, "category")
}

func (s *Store) ListItems(ctx context.Context, categoryID *uuid.UUID) ([]*catalog.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`

	var args []any
	if categoryID != nil {
		query += ` WHERE category_id = $1`

		args = append(args, *categoryID)
	}

	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var out []*catalog.Item

	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}

		out = append(out, it)
	}

	return out, rows.Err()
}

func (s *Store) GetItem(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	it, err := scanItem(s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "item")
	}

	return it, nil
}

func insertItem(ctx context.Context, q querier, it *catalog.Item) error {
	query := `
		INSERT INTO items (category_id, created_by, name, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRowContext(ctx, query, it.CategoryID, it.CreatedBy, it.Name, it.Price).
		Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating item: %w", err)
	}

	return nil
}

func (s *Store) CreateItem(ctx context.Context, it *catalog.Item) error {
	return insertItem(ctx, s.db, it)
}

// updateItem locks the row, appends the old price to the history if it
// differs, then writes the new values. q must be a transaction.
func updateItem(ctx context.Context, q querier, it *catalog.Item) error {
	var old decimal.Decimal

	err := q.QueryRowContext(ctx, `SELECT price FROM items WHERE id = $1 FOR UPDATE`, it.ID).Scan(&old)
	if err != nil {
		return notFound(err, "item")
	}

	if !old.Equal(it.Price) {
		_, err := q.ExecContext(ctx,
			`INSERT INTO item_price_history (item_id, price, changed_at) VALUES ($1, $2, NOW())`,
			it.ID, old,
		)
		if err != nil {
			return fmt.Errorf("recording price history: %w", err)
		}
	}

	err = q.QueryRowContext(ctx, `
		UPDATE items SET category_id = $1, name = $2, price = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`, it.CategoryID, it.Name, it.Price, it.ID).Scan(&it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}

	return nil
}

func (s *Store) UpdateItem(ctx context.Context, it *catalog.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := updateItem(ctx, tx, it); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) DeleteItem(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}

	return expectAffected(res, "item")
}

func (s *Store) ListPriceHistory(ctx context.Context, itemID uuid.UUID) ([]*catalog.PriceChange, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, price, changed_at
		FROM item_price_history
		WHERE item_id = $1
		ORDER BY changed_at DESC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("listing price history: %w", err)
	}
	defer rows.Close()

	var out []*catalog.PriceChange

	for rows.Next() {
		var pc catalog.PriceChange
		if err := rows.Scan(&pc.ID, &pc.ItemID, &pc.Price, &pc.ChangedAt); err != nil {
			return nil, fmt.Errorf("scanning price change: %w", err)
		}

		out = append(out, &pc)
	}

	return out, rows.Err()
}

func (s *Store) BeginImport(ctx context.Context) (catalog.ImportTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}

	return &importTx{tx: tx}, nil
}

type importTx struct {
	tx *sql.Tx
}

func (t *importTx) FindCategory(ctx context.Context, name string) (*catalog.Category, error) {
	c, err := scanCategory(t.tx.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE LOWER(name) = LOWER($1)`, name))
	if err != nil {
		return nil, notFound(err, "category")
	}

	return c, nil
}

func (t *importTx) CreateCategory(ctx context.Context, c *catalog.Category) error {
	return insertCategory(ctx, t.tx, c)
}

func (t *importTx) FindItem(ctx context.Context, categoryID uuid.UUID, name string) (*catalog.Item, error) {
	it, err := scanItem(t.tx.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE category_id = $1 AND LOWER(name) = LOWER($2) LIMIT 1`,
		categoryID, name))
	if err != nil {
		return nil, notFound(err, "item")
	}

	return it, nil
}

func (t *importTx) CreateItem(ctx context.Context, it *catalog.Item) error {
	return insertItem(ctx, t.tx, it)
}

func (t *importTx) UpdateItem(ctx context.Context, it *catalog.Item) error {
	return updateItem(ctx, t.tx, it)
}

func (t *importTx) Commit() error {
	return t.tx.Commit()
}

func (t *importTx) Rollback() error {
	return t.tx.Rollback()
}
