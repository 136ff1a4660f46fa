package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensa/internal/report"
)

// Store runs the reporting queries. Calendar days are taken in the
// configured time zone, which is always bound as $1.
type Store struct {
	db *sql.DB
	tz string
}

func New(db *sql.DB, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}

	return &Store{db: db, tz: loc.String()}
}

const (
	lineDay     = `(oi.added_date AT TIME ZONE $1)::date`
	linesSource = `
		FROM order_items oi
		JOIN items i ON i.id = oi.item_id
		JOIN orders o ON o.id = oi.order_id
		JOIN users u ON u.id = o.user_id
	`
)

// where accumulates SQL conditions and their positional arguments after $1.
type where struct {
	conds []string
	args  []any
}

func (s *Store) newWhere() *where {
	return &where{args: []any{s.tz}}
}

func (w *where) add(cond string, v any) {
	w.args = append(w.args, v)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}

	return " WHERE " + strings.Join(w.conds, " AND ")
}

func day(t time.Time) string {
	return t.Format(time.DateOnly)
}

func (s *Store) dayAmounts(ctx context.Context, query string, args ...any) ([]report.DayAmount, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying daily totals: %w", err)
	}
	defer rows.Close()

	var out []report.DayAmount

	for rows.Next() {
		var da report.DayAmount
		if err := rows.Scan(&da.Date, &da.Amount); err != nil {
			return nil, fmt.Errorf("scanning daily total: %w", err)
		}

		out = append(out, da)
	}

	return out, rows.Err()
}

func (s *Store) OrderTotalsByDay(ctx context.Context, userID *uuid.UUID) ([]report.DayAmount, error) {
	w := s.newWhere()
	if userID != nil {
		w.add("o.user_id = $%d", *userID)
	}

	query := `SELECT ` + lineDay + ` AS day, SUM(i.price * oi.count)` + linesSource + w.String() +
		` GROUP BY day ORDER BY day`

	return s.dayAmounts(ctx, query, w.args...)
}

func (s *Store) ExpenseTotalsByDay(ctx context.Context, userID *uuid.UUID) ([]report.DayAmount, error) {
	w := s.newWhere()
	if userID != nil {
		w.add("e.user_id = $%d", *userID)
	}

	query := `
		SELECT (tro.created_at AT TIME ZONE $1)::date AS day, SUM(e.amount)
		FROM transaction_orders tro
		JOIN expenses e ON e.id = tro.expense_id
	` + w.String() + ` GROUP BY day ORDER BY day`

	return s.dayAmounts(ctx, query, w.args...)
}

func (s *Store) OrderItemSummary(ctx context.Context, userID *uuid.UUID) ([]*report.OrderItemSummary, error) {
	w := s.newWhere()
	w.conds = append(w.conds, "o.calculated_price > 0")

	if userID != nil {
		w.add("o.user_id = $%d", *userID)
	}

	query := `
		SELECT ` + lineDay + ` AS day, u.username, SUM(oi.count), SUM(i.price * oi.count),
			(ARRAY_AGG(oi.order_id ORDER BY oi.added_date, oi.id))[1]
	` + linesSource + w.String() + `
		GROUP BY day, u.username
		ORDER BY day DESC, u.username DESC
	`

	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("querying order summary: %w", err)
	}
	defer rows.Close()

	var out []*report.OrderItemSummary

	for rows.Next() {
		var r report.OrderItemSummary
		if err := rows.Scan(&r.Date, &r.Username, &r.TotalCount, &r.TotalAmount, &r.OrderID); err != nil {
			return nil, fmt.Errorf("scanning order summary: %w", err)
		}

		out = append(out, &r)
	}

	return out, rows.Err()
}

func (s *Store) LinesOn(ctx context.Context, d time.Time, userID uuid.UUID) ([]*report.DatedLine, error) {
	query := `
		SELECT oi.id, oi.order_id, i.id, i.name, c.name, i.price, oi.count, oi.added_date,
			u.username, o.calculated_price
	` + linesSource + `
		JOIN categories c ON c.id = i.category_id
		WHERE o.user_id = $2 AND ` + lineDay + ` = $3::date
		ORDER BY oi.added_date, i.name
	`

	rows, err := s.db.QueryContext(ctx, query, s.tz, userID, day(d))
	if err != nil {
		return nil, fmt.Errorf("querying lines by date: %w", err)
	}
	defer rows.Close()

	var out []*report.DatedLine

	for rows.Next() {
		var l report.DatedLine
		if err := rows.Scan(
			&l.LineID, &l.OrderID, &l.ItemID, &l.ItemName, &l.Category, &l.Price, &l.Count, &l.AddedDate,
			&l.Username, &l.OrderTotal,
		); err != nil {
			return nil, fmt.Errorf("scanning dated line: %w", err)
		}

		l.Total = l.Price.Mul(decimal.NewFromInt(int64(l.Count)))
		out = append(out, &l)
	}

	return out, rows.Err()
}

func (s *Store) groupedWhere(f report.GroupedFilter) *where {
	w := s.newWhere()

	if f.UserID != nil {
		w.add("o.user_id = $%d", *f.UserID)
	}

	if f.StartDate != nil {
		w.add(lineDay+" >= $%d::date", day(*f.StartDate))
	}

	if f.EndDate != nil {
		w.add(lineDay+" <= $%d::date", day(*f.EndDate))
	}

	if f.Month != nil {
		w.add(lineDay+" >= $%d::date", day(*f.Month))
		w.add(lineDay+" < $%d::date", day(f.Month.AddDate(0, 1, 0)))
	}

	if f.Date != nil {
		w.add(lineDay+" = $%d::date", day(*f.Date))
	}

	if f.Username != "" {
		w.add("LOWER(u.username) = LOWER($%d)", f.Username)
	}

	if f.ItemName != "" {
		w.add("i.name ILIKE '%%' || $%d || '%%'", f.ItemName)
	}

	return w
}

func (s *Store) dates(ctx context.Context, query string, args ...any) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying dates: %w", err)
	}
	defer rows.Close()

	var out []time.Time

	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scanning date: %w", err)
		}

		out = append(out, d)
	}

	return out, rows.Err()
}

func (s *Store) GroupedDates(ctx context.Context, f report.GroupedFilter) ([]time.Time, error) {
	w := s.groupedWhere(f)
	query := `SELECT DISTINCT ` + lineDay + ` AS day` + linesSource + w.String() + ` ORDER BY day DESC`

	return s.dates(ctx, query, w.args...)
}

// GroupedRows rolls up the filtered lines whose day lies within the span of
// dates. dates must be a contiguous run of GroupedDates output.
func (s *Store) GroupedRows(ctx context.Context, f report.GroupedFilter, dates []time.Time) ([]*report.GroupedRow, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	lo, hi := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(lo) {
			lo = d
		}

		if d.After(hi) {
			hi = d
		}
	}

	w := s.groupedWhere(f)
	w.add(lineDay+" >= $%d::date", day(lo))
	w.add(lineDay+" <= $%d::date", day(hi))

	query := `
		SELECT ` + lineDay + ` AS day, i.id, i.name, i.price, SUM(oi.count), SUM(i.price * oi.count), u.username
	` + linesSource + w.String() + `
		GROUP BY day, i.id, i.name, i.price, u.username
		ORDER BY day DESC, i.name, u.username
	`

	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("querying grouped rows: %w", err)
	}
	defer rows.Close()

	var out []*report.GroupedRow

	for rows.Next() {
		var r report.GroupedRow
		if err := rows.Scan(&r.Date, &r.ItemID, &r.ItemName, &r.Price, &r.Count, &r.Total, &r.Username); err != nil {
			return nil, fmt.Errorf("scanning grouped row: %w", err)
		}

		out = append(out, &r)
	}

	return out, rows.Err()
}

func (s *Store) GroupedTotal(ctx context.Context, f report.GroupedFilter) (decimal.Decimal, error) {
	w := s.groupedWhere(f)
	query := `SELECT COALESCE(SUM(i.price * oi.count), 0)` + linesSource + w.String()

	var total decimal.Decimal
	if err := s.db.QueryRowContext(ctx, query, w.args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("querying grand total: %w", err)
	}

	return total, nil
}

func (s *Store) AvailableDates(ctx context.Context, userID *uuid.UUID) ([]time.Time, error) {
	w := s.newWhere()
	if userID != nil {
		w.add("o.user_id = $%d", *userID)
	}

	query := `SELECT DISTINCT ` + lineDay + ` AS day` + linesSource + w.String() + ` ORDER BY day DESC`

	return s.dates(ctx, query, w.args...)
}

func (s *Store) DeleteOrdersOn(ctx context.Context, d time.Time, userID uuid.UUID) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM orders
		WHERE user_id = $2 AND id IN (
			SELECT DISTINCT oi.order_id FROM order_items oi
			WHERE `+lineDay+` = $3::date
		)
	`, s.tz, userID, day(d))
	if err != nil {
		return 0, fmt.Errorf("deleting orders by date: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}

	return int(n), nil
}
