package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/expensa/internal/ledger"
	"github.com/MrJamesThe3rd/expensa/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Scan reads a transaction row.
// Expected column order: id, user_id, total_price, status, from_date, to_date, remarks, created_at
func Scan(s scanner) (*transaction.Transaction, error) {
	var (
		tx        transaction.Transaction
		statusStr string
		remarks   sql.NullString
	)

	if err := s.Scan(
		&tx.ID, &tx.UserID, &tx.TotalPrice, &statusStr, &tx.FromDate, &tx.ToDate, &remarks, &tx.CreatedAt,
	); err != nil {
		return nil, err
	}

	tx.Status = transaction.Status(statusStr)

	if remarks.Valid {
		tx.Remarks = &remarks.String
	}

	return &tx, nil
}

// Columns lists the transaction columns in the order Scan expects, qualified by alias t.
const Columns = `t.id, t.user_id, t.total_price, t.status, t.from_date, t.to_date, t.remarks, t.created_at`

// Execer is satisfied by *sql.DB and *sql.Tx so reconciliation can write
// ledger entries inside its own unit of work.
type Execer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Insert writes tx and fills its generated id and created_at.
func Insert(ctx context.Context, db Execer, tx *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, total_price, status, from_date, to_date, remarks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at
	`

	err := db.QueryRowContext(ctx, query,
		tx.UserID,
		tx.TotalPrice,
		tx.Status,
		tx.FromDate,
		tx.ToDate,
		tx.Remarks,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}

// Update rewrites the mutable columns of tx.
func Update(ctx context.Context, db Execer, tx *transaction.Transaction) error {
	query := `
		UPDATE transactions
		SET total_price = $1, status = $2, from_date = $3, to_date = $4, remarks = $5
		WHERE id = $6
	`

	res, err := db.ExecContext(ctx, query,
		tx.TotalPrice,
		tx.Status,
		tx.FromDate,
		tx.ToDate,
		tx.Remarks,
		tx.ID,
	)
	if err != nil {
		return fmt.Errorf("updating transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("transaction %w", ledger.ErrNotFound)
	}

	return nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	return Insert(ctx, s.db, tx)
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + Columns + ` FROM transactions t WHERE t.id = $1`

	tx, err := Scan(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %w", ledger.ErrNotFound)
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	query := `SELECT ` + Columns + ` FROM transactions t WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.UserID != nil {
		query += fmt.Sprintf(" AND t.user_id = $%d", argIdx)

		args = append(args, *filter.UserID)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND t.status = $%d", argIdx)

		args = append(args, *filter.Status)
	}

	query += " ORDER BY t.created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return txs, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	return Update(ctx, s.db, tx)
}

func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("transaction %w", ledger.ErrNotFound)
	}

	return nil
}
