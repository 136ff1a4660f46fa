package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensa/internal/ledger"
	"github.com/MrJamesThe3rd/expensa/internal/order"
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

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const selectOrder = `
	SELECT o.id, o.user_id, u.username, o.kind, o.calculated_price, o.created_at, o.updated_at
	FROM orders o
	JOIN users u ON u.id = o.user_id
`

// selectLine joins the current item price and the owner of the parent order.
const selectLine = `
	SELECT oi.id, oi.order_id, oi.item_id, i.name, i.price, oi.count, oi.added_date, o.user_id
	FROM order_items oi
	JOIN items i ON i.id = oi.item_id
	JOIN orders o ON o.id = oi.order_id
`

func scanOrder(s scanner) (*ledger.Order, error) {
	var (
		o    ledger.Order
		kind string
	)

	if err := s.Scan(&o.ID, &o.UserID, &o.Username, &kind, &o.CalculatedPrice, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}

	o.Kind = ledger.OrderKind(kind)

	return &o, nil
}

func scanLine(s scanner) (*ledger.OrderItem, error) {
	var l ledger.OrderItem
	if err := s.Scan(&l.ID, &l.OrderID, &l.ItemID, &l.ItemName, &l.ItemPrice, &l.Count, &l.AddedDate, &l.OwnerID); err != nil {
		return nil, err
	}

	return &l, nil
}

func queryLines(ctx context.Context, q querier, query string, args ...any) ([]*ledger.OrderItem, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing order lines: %w", err)
	}
	defer rows.Close()

	var out []*ledger.OrderItem

	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order line: %w", err)
		}

		out = append(out, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order lines: %w", err)
	}

	return out, nil
}

func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (*ledger.Order, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx, selectOrder+` WHERE o.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %w", ledger.ErrNotFound)
		}

		return nil, fmt.Errorf("getting order: %w", err)
	}

	o.Items, err = queryLines(ctx, s.db, selectLine+` WHERE oi.order_id = $1 ORDER BY oi.added_date`, id)
	if err != nil {
		return nil, err
	}

	return o, nil
}

func (s *Store) ListOrders(ctx context.Context, userID *uuid.UUID) ([]*ledger.Order, error) {
	query := selectOrder

	var args []any
	if userID != nil {
		query += ` WHERE o.user_id = $1`

		args = append(args, *userID)
	}

	query += ` ORDER BY o.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Order

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}

		out = append(out, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}

	return out, nil
}

func (s *Store) GetLine(ctx context.Context, id uuid.UUID) (*ledger.OrderItem, error) {
	l, err := scanLine(s.db.QueryRowContext(ctx, selectLine+` WHERE oi.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order line %w", ledger.ErrNotFound)
		}

		return nil, fmt.Errorf("getting order line: %w", err)
	}

	return l, nil
}

func (s *Store) ListLines(ctx context.Context, userID *uuid.UUID) ([]*ledger.OrderItem, error) {
	if userID == nil {
		return queryLines(ctx, s.db, selectLine+` ORDER BY oi.added_date DESC`)
	}

	return queryLines(ctx, s.db, selectLine+` WHERE o.user_id = $1 ORDER BY oi.added_date DESC`, *userID)
}

func (s *Store) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting order: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("order %w", ledger.ErrNotFound)
	}

	return nil
}

func (s *Store) Begin(ctx context.Context) (order.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}

	return &unit{tx: tx}, nil
}

type unit struct {
	tx *sql.Tx
}

func (u *unit) OrderCreatedBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (*ledger.Order, error) {
	o, err := scanOrder(u.tx.QueryRowContext(ctx, selectOrder+`
		WHERE o.user_id = $1 AND o.kind = $2 AND o.created_at >= $3 AND o.created_at < $4
		ORDER BY o.created_at DESC
		LIMIT 1
	`, userID, string(ledger.OrderKindItems), from, to))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %w", ledger.ErrNotFound)
		}

		return nil, fmt.Errorf("finding today's order: %w", err)
	}

	return o, nil
}

func (u *unit) CreateOrder(ctx context.Context, o *ledger.Order) error {
	err := u.tx.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, kind, calculated_price, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, o.UserID, string(o.Kind), o.CalculatedPrice).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating order: %w", err)
	}

	return nil
}

func (u *unit) ItemPrice(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	var price decimal.Decimal

	if err := u.tx.QueryRowContext(ctx, `SELECT price FROM items WHERE id = $1`, itemID).Scan(&price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("item %s %w", itemID, ledger.ErrNotFound)
		}

		return decimal.Zero, fmt.Errorf("getting item price: %w", err)
	}

	return price, nil
}

func (u *unit) FindLine(ctx context.Context, orderID, itemID uuid.UUID, from, to time.Time) (*ledger.OrderItem, error) {
	l, err := scanLine(u.tx.QueryRowContext(ctx, selectLine+`
		WHERE oi.order_id = $1 AND oi.item_id = $2 AND oi.added_date >= $3 AND oi.added_date < $4
		LIMIT 1
	`, orderID, itemID, from, to))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order line %w", ledger.ErrNotFound)
		}

		return nil, fmt.Errorf("finding order line: %w", err)
	}

	return l, nil
}

func (u *unit) CreateLine(ctx context.Context, l *ledger.OrderItem) error {
	err := u.tx.QueryRowContext(ctx, `
		INSERT INTO order_items (order_id, item_id, count, added_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, l.OrderID, l.ItemID, l.Count, l.AddedDate).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("creating order line: %w", err)
	}

	return nil
}

func (u *unit) UpdateLine(ctx context.Context, l *ledger.OrderItem) error {
	res, err := u.tx.ExecContext(ctx,
		`UPDATE order_items SET item_id = $1, count = $2, added_date = $3 WHERE id = $4`,
		l.ItemID, l.Count, l.AddedDate, l.ID,
	)
	if err != nil {
		return fmt.Errorf("updating order line: %w", err)
	}

	return expectAffected(res, "order line")
}

func (u *unit) DeleteLine(ctx context.Context, id uuid.UUID) error {
	res, err := u.tx.ExecContext(ctx, `DELETE FROM order_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting order line: %w", err)
	}

	return expectAffected(res, "order line")
}

func (u *unit) Lines(ctx context.Context, orderID uuid.UUID) ([]*ledger.OrderItem, error) {
	return queryLines(ctx, u.tx, selectLine+` WHERE oi.order_id = $1 ORDER BY oi.added_date`, orderID)
}

func (u *unit) SetOrderPrice(ctx context.Context, orderID uuid.UUID, price decimal.Decimal) error {
	res, err := u.tx.ExecContext(ctx,
		`UPDATE orders SET calculated_price = $1, updated_at = NOW() WHERE id = $2`, price, orderID)
	if err != nil {
		return fmt.Errorf("updating order price: %w", err)
	}

	return expectAffected(res, "order")
}

func (u *unit) Commit() error {
	return u.tx.Commit()
}

func (u *unit) Rollback() error {
	err := u.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}

	return err
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
