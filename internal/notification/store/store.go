package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/expensa/internal/ledger"
	"github.com/MrJamesThe3rd/expensa/internal/notification"
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

const columns = `id, sender_id, recipient_id, expense_id, message, is_read, created_at`

func scan(s scanner) (*notification.Notification, error) {
	var n notification.Notification
	if err := s.Scan(&n.ID, &n.SenderID, &n.RecipientID, &n.ExpenseID, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}

	return &n, nil
}

// CreateNotifications inserts all rows with a single statement.
func (s *Store) CreateNotifications(ctx context.Context, ns []*notification.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	var (
		sb   strings.Builder
		args = make([]any, 0, len(ns)*4)
	)

	sb.WriteString(`INSERT INTO notifications (sender_id, recipient_id, expense_id, message, is_read, created_at) VALUES `)

	for i, n := range ns {
		if i > 0 {
			sb.WriteString(", ")
		}

		base := i * 4
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, FALSE, NOW())", base+1, base+2, base+3, base+4)

		args = append(args, n.SenderID, n.RecipientID, n.ExpenseID, n.Message)
	}

	sb.WriteString(` RETURNING id, created_at`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return fmt.Errorf("creating notifications: %w", err)
	}
	defer rows.Close()

	// RETURNING yields rows in VALUES order for a single-statement insert.
	for i := 0; rows.Next(); i++ {
		if i >= len(ns) {
			break
		}

		if err := rows.Scan(&ns[i].ID, &ns[i].CreatedAt); err != nil {
			return fmt.Errorf("scanning notification: %w", err)
		}
	}

	return rows.Err()
}

func (s *Store) ListNotifications(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]*notification.Notification, error) {
	query := `SELECT ` + columns + ` FROM notifications WHERE recipient_id = $1`
	if unreadOnly {
		query += ` AND NOT is_read`
	}

	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, recipientID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var out []*notification.Notification

	for rows.Next() {
		n, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}

		out = append(out, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications: %w", err)
	}

	return out, nil
}

func (s *Store) GetNotification(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	n, err := scan(s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM notifications WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("notification %w", ledger.ErrNotFound)
		}

		return nil, fmt.Errorf("getting notification: %w", err)
	}

	return n, nil
}

func (s *Store) SetRead(ctx context.Context, id uuid.UUID, read bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = $1 WHERE id = $2`, read, id)
	if err != nil {
		return fmt.Errorf("updating notification: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("notification %w", ledger.ErrNotFound)
	}

	return nil
}
