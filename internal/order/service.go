package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensa/internal/identity"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=order
type Repository interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*ledger.Order, error)
	ListOrders(ctx context.Context, userID *uuid.UUID) ([]*ledger.Order, error)
	GetLine(ctx context.Context, id uuid.UUID) (*ledger.OrderItem, error)
	ListLines(ctx context.Context, userID *uuid.UUID) ([]*ledger.OrderItem, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	Begin(ctx context.Context) (Tx, error)
}

// Tx groups line writes with the recomputation of their order's total.
type Tx interface {
	OrderCreatedBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (*ledger.Order, error)
	CreateOrder(ctx context.Context, o *ledger.Order) error
	ItemPrice(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error)
	FindLine(ctx context.Context, orderID, itemID uuid.UUID, from, to time.Time) (*ledger.OrderItem, error)
	CreateLine(ctx context.Context, l *ledger.OrderItem) error
	UpdateLine(ctx context.Context, l *ledger.OrderItem) error
	DeleteLine(ctx context.Context, id uuid.UUID) error
	Lines(ctx context.Context, orderID uuid.UUID) ([]*ledger.OrderItem, error)
	SetOrderPrice(ctx context.Context, orderID uuid.UUID, price decimal.Decimal) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
	loc  *time.Location
	now  func() time.Time
}

func NewService(repo Repository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}

	return &Service{repo: repo, loc: loc, now: time.Now}
}

// WithClock replaces the time source that decides what "today" is.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// LineInput is one submitted line. A nil Count means 1 and an empty Date
// means now.
type LineInput struct {
	ItemID uuid.UUID
	Count  *int
	Date   string
}

type line struct {
	itemID uuid.UUID
	count  int
	date   time.Time
}

func (s *Service) validateLines(in []LineInput) ([]line, error) {
	var v ledger.ValidationError

	if len(in) == 0 {
		v.Add("lines", "at least one line is required")
		return nil, &v
	}

	now := s.now().In(s.loc)
	out := make([]line, 0, len(in))

	for i, l := range in {
		out = append(out, s.validateLine(&v, fmt.Sprintf("lines[%d].", i), l, now))
	}

	if err := v.OrNil(); err != nil {
		return nil, err
	}

	return out, nil
}

// validateLine records problems with l under fields prefixed by prefix.
func (s *Service) validateLine(v *ledger.ValidationError, prefix string, l LineInput, now time.Time) line {
	if l.ItemID == uuid.Nil {
		v.Add(prefix+"item_id", "required")
	}

	count := 1
	if l.Count != nil {
		count = *l.Count
	}

	if count < 1 {
		v.Add(prefix+"count", "must be at least 1")
	}

	date := now
	if l.Date != "" {
		d, err := ledger.ParseLineDate(l.Date, s.loc)
		if err != nil {
			v.Add(prefix+"date", err.Error())
		}

		date = d
	}

	return line{itemID: l.ItemID, count: count, date: date}
}

// SubmitOrderLines upserts lines into the caller's order for today. A line
// for an item already on the order for the same day is overwritten, so the
// last submitted count wins. The order total is always recomputed from the
// stored lines at current item prices.
func (s *Service) SubmitOrderLines(ctx context.Context, user *identity.User, in []LineInput) (*ledger.Order, error) {
	lines, err := s.validateLines(in)
	if err != nil {
		return nil, err
	}

	o, err := s.submit(ctx, user, lines)
	if err != nil {
		return nil, ledger.Failed(err)
	}

	return o, nil
}

func (s *Service) submit(ctx context.Context, user *identity.User, lines []line) (*ledger.Order, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	start, end := s.dayBounds(s.now())

	o, err := tx.OrderCreatedBetween(ctx, user.ID, start, end)
	if errors.Is(err, ledger.ErrNotFound) {
		o = &ledger.Order{UserID: user.ID, Username: user.Username, Kind: ledger.OrderKindItems}
		err = tx.CreateOrder(ctx, o)
	}

	if err != nil {
		return nil, err
	}

	for _, l := range lines {
		if _, err := s.upsertLine(ctx, tx, o.ID, l); err != nil {
			return nil, err
		}
	}

	items, err := s.recompute(ctx, tx, o.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	o.Items = items
	o.CalculatedPrice = ledger.RecomputeOrderTotal(items)

	return o, nil
}

// upsertLine writes l onto the order, overwriting the count of a line for the
// same item on the same day.
func (s *Service) upsertLine(ctx context.Context, tx Tx, orderID uuid.UUID, l line) (*ledger.OrderItem, error) {
	if _, err := tx.ItemPrice(ctx, l.itemID); err != nil {
		return nil, err
	}

	from, to := s.dayBounds(l.date)

	existing, err := tx.FindLine(ctx, orderID, l.itemID, from, to)
	switch {
	case err == nil:
		existing.Count = l.count
		existing.AddedDate = l.date

		if err := tx.UpdateLine(ctx, existing); err != nil {
			return nil, err
		}

		return existing, nil
	case errors.Is(err, ledger.ErrNotFound):
		created := &ledger.OrderItem{OrderID: orderID, ItemID: l.itemID, Count: l.count, AddedDate: l.date}
		if err := tx.CreateLine(ctx, created); err != nil {
			return nil, err
		}

		return created, nil
	default:
		return nil, err
	}
}

// recompute stores the order total derived from its current lines.
func (s *Service) recompute(ctx context.Context, tx Tx, orderID uuid.UUID) ([]*ledger.OrderItem, error) {
	items, err := tx.Lines(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := tx.SetOrderPrice(ctx, orderID, ledger.RecomputeOrderTotal(items)); err != nil {
		return nil, err
	}

	return items, nil
}

type ModifyLineParams struct {
	Count  int
	ItemID *uuid.UUID
}

// editableLine loads a line the caller may change: they must own its order
// (or be an admin) and the line must have been added today.
func (s *Service) editableLine(ctx context.Context, user *identity.User, id uuid.UUID) (*ledger.OrderItem, error) {
	l, err := s.repo.GetLine(ctx, id)
	if err != nil {
		return nil, err
	}

	if !identity.IsOwnerOrAdmin(user, l.OwnerID) {
		return nil, ledger.Denied("you do not have permission to change this order line")
	}

	if !ledger.SameDay(l.AddedDate, s.now(), s.loc) {
		return nil, ledger.Conflicted("only lines added today can be changed")
	}

	return l, nil
}

func (s *Service) ModifyOrderLine(ctx context.Context, user *identity.User, id uuid.UUID, p ModifyLineParams) (*ledger.OrderItem, error) {
	if p.Count < 1 {
		return nil, &ledger.ValidationError{Fields: map[string]string{"count": "must be at least 1"}}
	}

	l, err := s.editableLine(ctx, user, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.modify(ctx, l, p)
	if err != nil {
		return nil, ledger.Failed(err)
	}

	return updated, nil
}

func (s *Service) modify(ctx context.Context, l *ledger.OrderItem, p ModifyLineParams) (*ledger.OrderItem, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if p.ItemID != nil && *p.ItemID != l.ItemID {
		if _, err := tx.ItemPrice(ctx, *p.ItemID); err != nil {
			return nil, err
		}

		l.ItemID = *p.ItemID
	}

	l.Count = p.Count

	if err := tx.UpdateLine(ctx, l); err != nil {
		return nil, err
	}

	items, err := s.recompute(ctx, tx, l.OrderID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	for _, it := range items {
		if it.ID == l.ID {
			return it, nil
		}
	}

	return l, nil
}

func (s *Service) DeleteOrderLine(ctx context.Context, user *identity.User, id uuid.UUID) error {
	l, err := s.editableLine(ctx, user, id)
	if err != nil {
		return err
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return ledger.Failed(fmt.Errorf("begin: %w", err))
	}
	defer tx.Rollback()

	if err := tx.DeleteLine(ctx, l.ID); err != nil {
		return ledger.Failed(err)
	}

	if _, err := s.recompute(ctx, tx, l.OrderID); err != nil {
		return ledger.Failed(err)
	}

	if err := tx.Commit(); err != nil {
		return ledger.Failed(fmt.Errorf("commit: %w", err))
	}

	return nil
}

func (s *Service) GetOrder(ctx context.Context, user *identity.User, id uuid.UUID) (*ledger.Order, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !identity.IsOwnerOrAdmin(user, o.UserID) {
		return nil, ledger.Denied("you do not have permission to view this order")
	}

	return o, nil
}

func (s *Service) ListOrders(ctx context.Context, user *identity.User) ([]*ledger.Order, error) {
	return s.repo.ListOrders(ctx, scope(user))
}

func (s *Service) GetOrderLine(ctx context.Context, user *identity.User, id uuid.UUID) (*ledger.OrderItem, error) {
	l, err := s.repo.GetLine(ctx, id)
	if err != nil {
		return nil, err
	}

	if !identity.IsOwnerOrAdmin(user, l.OwnerID) {
		return nil, ledger.Denied("you do not have permission to view this order line")
	}

	return l, nil
}

func (s *Service) ListOrderLines(ctx context.Context, user *identity.User) ([]*ledger.OrderItem, error) {
	return s.repo.ListLines(ctx, scope(user))
}

// editableOrder loads an item order the caller may change. They must own it
// or be an admin, and it must have been created today. Expense orders are
// only changed through their expense.
func (s *Service) editableOrder(ctx context.Context, user *identity.User, id uuid.UUID, action string) (*ledger.Order, error) {
	o, err := s.GetOrder(ctx, user, id)
	if err != nil {
		return nil, err
	}

	if o.Kind != ledger.OrderKindItems {
		return nil, ledger.Conflicted("expense orders are managed by their expense")
	}

	if !ledger.SameDay(o.CreatedAt, s.now(), s.loc) {
		return nil, ledger.Conflicted("only orders created today can be " + action)
	}

	return o, nil
}

// DeleteOrder removes an item order created today along with its lines.
func (s *Service) DeleteOrder(ctx context.Context, user *identity.User, id uuid.UUID) error {
	if _, err := s.editableOrder(ctx, user, id, "deleted"); err != nil {
		return err
	}

	return s.repo.DeleteOrder(ctx, id)
}

// AddOrderLine puts one line on an existing item order, overwriting a line
// for the same item on the same day.
func (s *Service) AddOrderLine(ctx context.Context, user *identity.User, orderID uuid.UUID, in LineInput) (*ledger.OrderItem, error) {
	var v ledger.ValidationError

	l := s.validateLine(&v, "", in, s.now().In(s.loc))
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	o, err := s.editableOrder(ctx, user, orderID, "changed")
	if err != nil {
		return nil, err
	}

	added, err := s.addLine(ctx, o.ID, l)
	if err != nil {
		return nil, ledger.Failed(err)
	}

	return added, nil
}

func (s *Service) addLine(ctx context.Context, orderID uuid.UUID, l line) (*ledger.OrderItem, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	written, err := s.upsertLine(ctx, tx, orderID, l)
	if err != nil {
		return nil, err
	}

	items, err := s.recompute(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	for _, it := range items {
		if it.ID == written.ID {
			return it, nil
		}
	}

	return written, nil
}

// ReplaceLine is one entry of a full line set. An ID naming a line of the
// order keeps that line and optionally changes its count. Any other entry
// creates a line for ItemID, with a nil Count meaning 1.
type ReplaceLine struct {
	ID     *uuid.UUID
	ItemID uuid.UUID
	Count  *int
}

// ReplaceOrderLines makes in the complete line set of an item order created
// today. Listed lines are updated, new ones created and unlisted ones removed,
// all stamped with the current time, and the total is recomputed.
func (s *Service) ReplaceOrderLines(ctx context.Context, user *identity.User, orderID uuid.UUID, in []ReplaceLine) (*ledger.Order, error) {
	var v ledger.ValidationError

	for i, l := range in {
		if l.Count != nil && *l.Count < 1 {
			v.Add(fmt.Sprintf("lines[%d].count", i), "must be at least 1")
		}
	}

	if err := v.OrNil(); err != nil {
		return nil, err
	}

	o, err := s.editableOrder(ctx, user, orderID, "changed")
	if err != nil {
		return nil, err
	}

	items, err := s.replace(ctx, o.ID, in)
	if err != nil {
		return nil, ledger.Failed(err)
	}

	o.Items = items
	o.CalculatedPrice = ledger.RecomputeOrderTotal(items)

	return o, nil
}

func (s *Service) replace(ctx context.Context, orderID uuid.UUID, in []ReplaceLine) ([]*ledger.OrderItem, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	current, err := tx.Lines(ctx, orderID)
	if err != nil {
		return nil, err
	}

	existing := make(map[uuid.UUID]*ledger.OrderItem, len(current))
	for _, l := range current {
		existing[l.ID] = l
	}

	var (
		v       ledger.ValidationError
		updates []*ledger.OrderItem
		creates []*ledger.OrderItem
		kept    = make(map[uuid.UUID]bool, len(in))
		items   = make(map[uuid.UUID]bool, len(in))
		now     = s.now().In(s.loc)
	)

	// Every line ends up stamped today, so one line per item keeps a single
	// line per item and day.
	for i, l := range in {
		key := fmt.Sprintf("lines[%d].item_id", i)

		var target *ledger.OrderItem

		if l.ID != nil {
			target = existing[*l.ID]
		}

		switch {
		case target != nil:
			if l.Count != nil {
				target.Count = *l.Count
			}

			kept[target.ID] = true
			updates = append(updates, target)
		case l.ItemID == uuid.Nil:
			v.Add(key, "required")
			continue
		default:
			count := 1
			if l.Count != nil {
				count = *l.Count
			}

			target = &ledger.OrderItem{OrderID: orderID, ItemID: l.ItemID, Count: count}
			creates = append(creates, target)
		}

		if items[target.ItemID] {
			v.Add(key, "item is listed more than once")
		}

		items[target.ItemID] = true
		target.AddedDate = now
	}

	if err := v.OrNil(); err != nil {
		return nil, err
	}

	for _, l := range current {
		if kept[l.ID] {
			continue
		}

		if err := tx.DeleteLine(ctx, l.ID); err != nil {
			return nil, err
		}
	}

	for _, l := range updates {
		if err := tx.UpdateLine(ctx, l); err != nil {
			return nil, err
		}
	}

	for _, l := range creates {
		if _, err := tx.ItemPrice(ctx, l.ItemID); err != nil {
			return nil, err
		}

		if err := tx.CreateLine(ctx, l); err != nil {
			return nil, err
		}
	}

	out, err := s.recompute(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return out, nil
}

func (s *Service) dayBounds(t time.Time) (time.Time, time.Time) {
	start := ledger.Day(t.In(s.loc))
	return start, start.AddDate(0, 0, 1)
}

func scope(user *identity.User) *uuid.UUID {
	if identity.IsAdmin(user) {
		return nil
	}

	return &user.ID
}
