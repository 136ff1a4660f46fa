package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensa/internal/expense"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
	"github.com/MrJamesThe3rd/expensa/internal/transaction"
	txstore "github.com/MrJamesThe3rd/expensa/internal/transaction/store"
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

// selectExpense joins the owner's username and the most recent bill.
const selectExpense = `
	SELECT e.id, e.user_id, u.username, e.date, e.description, e.category, e.amount,
		e.is_verified, e.is_refunded, e.created_at, e.updated_at,
		b.id, b.path, b.uploaded_at
	FROM expenses e
	JOIN users u ON u.id = e.user_id
	LEFT JOIN LATERAL (
		SELECT id, path, uploaded_at FROM bills
		WHERE expense_id = e.id
		ORDER BY uploaded_at DESC
		LIMIT 1
	) b ON TRUE
`

func scanExpense(s scanner) (*ledger.Expense, error) {
	var (
		e          ledger.Expense
		category   string
		billID     *uuid.UUID
		billPath   sql.NullString
		uploadedAt sql.NullTime
	)

	if err := s.Scan(
		&e.ID, &e.UserID, &e.Username, &e.Date, &e.Description, &category, &e.Amount,
		&e.IsVerified, &e.IsRefunded, &e.CreatedAt, &e.UpdatedAt,
		&billID, &billPath, &uploadedAt,
	); err != nil {
		return nil, err
	}

	e.Category = ledger.ExpenseCategory(category)

	if billID != nil {
		e.Bill = &ledger.Bill{ID: *billID, ExpenseID: e.ID, Path: billPath.String, UploadedAt: uploadedAt.Time}
	}

	return &e, nil
}

func (s *Store) GetExpense(ctx context.Context, id uuid.UUID) (*ledger.Expense, error) {
	e, err := scanExpense(s.db.QueryRowContext(ctx, selectExpense+` WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("expense %w", ledger.ErrNotFound)
		}

		return nil, fmt.Errorf("getting expense: %w", err)
	}

	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context, filter expense.ListFilter) ([]*ledger.Expense, error) {
	query := selectExpense + ` WHERE TRUE`

	var args []any

	add := func(clause string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(clause, len(args))
	}

	if filter.UserID != nil {
		add(" AND e.user_id = $%d", *filter.UserID)
	}

	if filter.Verified != nil {
		add(" AND e.is_verified = $%d", *filter.Verified)
	}

	if filter.Refunded != nil {
		add(" AND e.is_refunded = $%d", *filter.Refunded)
	}

	if filter.Category != nil {
		add(" AND e.category = $%d", string(*filter.Category))
	}

	if filter.StartDate != nil {
		add(" AND e.date >= $%d", *filter.StartDate)
	}

	if filter.EndDate != nil {
		add(" AND e.date <= $%d", *filter.EndDate)
	}

	query += ` ORDER BY e.date DESC, e.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Expense

	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}

		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expenses: %w", err)
	}

	return out, nil
}

// DeleteExpense removes the expense; bills, notifications and its
// transaction link cascade.
func (s *Store) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("expense %w", ledger.ErrNotFound)
	}

	return nil
}

func (s *Store) Begin(ctx context.Context) (expense.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}

	return &unit{tx: tx}, nil
}

type unit struct {
	tx *sql.Tx
}

func (u *unit) CreateExpense(ctx context.Context, e *ledger.Expense) error {
	query := `
		INSERT INTO expenses (user_id, date, description, category, amount, is_verified, is_refunded, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := u.tx.QueryRowContext(ctx, query,
		e.UserID, e.Date, e.Description, string(e.Category), e.Amount, e.IsVerified, e.IsRefunded,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating expense: %w", err)
	}

	return nil
}

func (u *unit) UpdateExpense(ctx context.Context, e *ledger.Expense) error {
	query := `
		UPDATE expenses
		SET date = $1, description = $2, category = $3, amount = $4,
			is_verified = $5, is_refunded = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at
	`

	err := u.tx.QueryRowContext(ctx, query,
		e.Date, e.Description, string(e.Category), e.Amount, e.IsVerified, e.IsRefunded, e.ID,
	).Scan(&e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("expense %w", ledger.ErrNotFound)
		}

		return fmt.Errorf("updating expense: %w", err)
	}

	return nil
}

func (u *unit) AttachBill(ctx context.Context, b *ledger.Bill) error {
	err := u.tx.QueryRowContext(ctx,
		`INSERT INTO bills (expense_id, path, uploaded_at) VALUES ($1, $2, NOW()) RETURNING id, uploaded_at`,
		b.ExpenseID, b.Path,
	).Scan(&b.ID, &b.UploadedAt)
	if err != nil {
		return fmt.Errorf("attaching bill: %w", err)
	}

	return nil
}

func (u *unit) DeleteBill(ctx context.Context, id uuid.UUID) error {
	if _, err := u.tx.ExecContext(ctx, `DELETE FROM bills WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting bill: %w", err)
	}

	return nil
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

const orderColumns = `id, user_id, kind, calculated_price, created_at, updated_at`

func scanOrder(s scanner) (*ledger.Order, error) {
	var (
		o    ledger.Order
		kind string
	)

	if err := s.Scan(&o.ID, &o.UserID, &kind, &o.CalculatedPrice, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}

	o.Kind = ledger.OrderKind(kind)

	return &o, nil
}

func (u *unit) GetOrder(ctx context.Context, id uuid.UUID) (*ledger.Order, error) {
	o, err := scanOrder(u.tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %w", ledger.ErrNotFound)
		}

		return nil, fmt.Errorf("getting order: %w", err)
	}

	return o, nil
}

func (u *unit) LatestExpenseOrder(ctx context.Context, userID uuid.UUID) (*ledger.Order, error) {
	o, err := scanOrder(u.tx.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1 AND kind = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, string(ledger.OrderKindExpense)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("expense order %w", ledger.ErrNotFound)
		}

		return nil, fmt.Errorf("getting latest expense order: %w", err)
	}

	return o, nil
}

func (u *unit) SetOrderPrice(ctx context.Context, orderID uuid.UUID, price decimal.Decimal) error {
	res, err := u.tx.ExecContext(ctx,
		`UPDATE orders SET calculated_price = $1, updated_at = NOW() WHERE id = $2`, price, orderID)
	if err != nil {
		return fmt.Errorf("updating order price: %w", err)
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

func (u *unit) CreateTransaction(ctx context.Context, t *transaction.Transaction) error {
	return txstore.Insert(ctx, u.tx, t)
}

func (u *unit) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	t, err := txstore.Scan(u.tx.QueryRowContext(ctx, `SELECT `+txstore.Columns+` FROM transactions t WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %w", ledger.ErrNotFound)
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return t, nil
}

func (u *unit) UpdateTransaction(ctx context.Context, t *transaction.Transaction) error {
	return txstore.Update(ctx, u.tx, t)
}

func (u *unit) LinkForExpense(ctx context.Context, expenseID uuid.UUID) (*ledger.TransactionOrder, error) {
	var l ledger.TransactionOrder

	err := u.tx.QueryRowContext(ctx, `
		SELECT id, transaction_id, expense_id, order_id, created_at
		FROM transaction_orders
		WHERE expense_id = $1
	`, expenseID).Scan(&l.ID, &l.TransactionID, &l.ExpenseID, &l.OrderID, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction link %w", ledger.ErrNotFound)
		}

		return nil, fmt.Errorf("getting transaction link: %w", err)
	}

	return &l, nil
}

func (u *unit) CreateLink(ctx context.Context, l *ledger.TransactionOrder) error {
	err := u.tx.QueryRowContext(ctx, `
		INSERT INTO transaction_orders (transaction_id, expense_id, order_id, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`, l.TransactionID, l.ExpenseID, l.OrderID).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating transaction link: %w", err)
	}

	return nil
}

func (u *unit) SetLinkOrder(ctx context.Context, linkID, orderID uuid.UUID) error {
	if _, err := u.tx.ExecContext(ctx, `UPDATE transaction_orders SET order_id = $1 WHERE id = $2`, orderID, linkID); err != nil {
		return fmt.Errorf("relinking order: %w", err)
	}

	return nil
}

func (u *unit) Commit() error {
	return u.tx.Commit()
}

// Rollback is a no-op after a successful Commit.
func (u *unit) Rollback() error {
	err := u.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}

	return err
}
