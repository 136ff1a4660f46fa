package expense

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensa/internal/identity"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
	"github.com/MrJamesThe3rd/expensa/internal/transaction"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=expense
type Repository interface {
	GetExpense(ctx context.Context, id uuid.UUID) (*ledger.Expense, error)
	ListExpenses(ctx context.Context, filter ListFilter) ([]*ledger.Expense, error)
	DeleteExpense(ctx context.Context, id uuid.UUID) error
	Begin(ctx context.Context) (Tx, error)
}

// Tx is the unit of work that keeps an expense, its order, its transaction
// and the link between them consistent.
type Tx interface {
	CreateExpense(ctx context.Context, e *ledger.Expense) error
	UpdateExpense(ctx context.Context, e *ledger.Expense) error
	AttachBill(ctx context.Context, b *ledger.Bill) error
	DeleteBill(ctx context.Context, id uuid.UUID) error

	CreateOrder(ctx context.Context, o *ledger.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*ledger.Order, error)
	LatestExpenseOrder(ctx context.Context, userID uuid.UUID) (*ledger.Order, error)
	SetOrderPrice(ctx context.Context, orderID uuid.UUID, price decimal.Decimal) error

	CreateTransaction(ctx context.Context, t *transaction.Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)
	UpdateTransaction(ctx context.Context, t *transaction.Transaction) error

	LinkForExpense(ctx context.Context, expenseID uuid.UUID) (*ledger.TransactionOrder, error)
	CreateLink(ctx context.Context, l *ledger.TransactionOrder) error
	SetLinkOrder(ctx context.Context, linkID, orderID uuid.UUID) error

	Commit() error
	Rollback() error
}

type Notifier interface {
	NotifyAdmins(ctx context.Context, sender uuid.UUID, expenseID *uuid.UUID, message string) error
	NotifyUser(ctx context.Context, sender, recipient uuid.UUID, expenseID *uuid.UUID, message string) error
}

type BillStore interface {
	Save(r io.Reader) (string, error)
	Delete(rel string) error
	URL(rel string) string
}

type Service struct {
	repo     Repository
	notifier Notifier
	bills    BillStore
	loc      *time.Location
	now      func() time.Time
}

func NewService(repo Repository, notifier Notifier, bills BillStore, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}

	return &Service{
		repo:     repo,
		notifier: notifier,
		bills:    bills,
		loc:      loc,
		now:      time.Now,
	}
}

// WithClock replaces the time source used for transaction dates.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type CreateParams struct {
	Date        string
	Description string
	Category    string
	Amount      *decimal.Decimal
	Bill        io.Reader
}

type UpdateParams struct {
	Date        *string
	Description *string
	Category    *string
	Amount      *decimal.Decimal
	IsVerified  *bool
	IsRefunded  *bool
	Bill        io.Reader
}

type ListFilter struct {
	UserID    *uuid.UUID
	Verified  *bool
	Refunded  *bool
	Category  *ledger.ExpenseCategory
	StartDate *time.Time
	EndDate   *time.Time
}

// Create records an expense together with its derived order, a pending
// transaction and the link between them, then tells every admin about it.
func (s *Service) Create(ctx context.Context, user *identity.User, p CreateParams) (*ledger.Expense, error) {
	var v ledger.ValidationError

	date := s.parseDate(&v, p.Date)
	category := parseCategory(&v, p.Category)

	if p.Amount == nil {
		v.Add("amount", "required")
	} else if p.Amount.IsNegative() {
		v.Add("amount", "must not be negative")
	}

	if err := v.OrNil(); err != nil {
		return nil, err
	}

	billPath, err := s.saveBill(p.Bill)
	if err != nil {
		return nil, err
	}

	e := &ledger.Expense{
		UserID:      user.ID,
		Username:    user.Username,
		Date:        date,
		Description: strings.TrimSpace(p.Description),
		Category:    category,
		Amount:      *p.Amount,
	}

	if err := s.createTx(ctx, e, billPath); err != nil {
		s.discardBill(billPath)
		return nil, ledger.Failed(err)
	}

	msg := fmt.Sprintf("%s submitted an expense %s on %s", user.Username, ledger.FormatAmount(e.Amount), e.Date.Format(time.DateOnly))
	if err := s.notifier.NotifyAdmins(ctx, user.ID, &e.ID, msg); err != nil {
		slog.Warn("failed to notify admins", "expense", e.ID, "error", err)
	}

	return e, nil
}

func (s *Service) createTx(ctx context.Context, e *ledger.Expense, billPath string) error {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := tx.CreateExpense(ctx, e); err != nil {
		return err
	}

	order := &ledger.Order{UserID: e.UserID, Kind: ledger.OrderKindExpense, CalculatedPrice: e.Amount}
	if err := tx.CreateOrder(ctx, order); err != nil {
		return err
	}

	now := s.now()

	t := &transaction.Transaction{
		UserID:     &e.UserID,
		TotalPrice: e.Amount,
		Status:     transaction.StatusPending,
		FromDate:   now,
		ToDate:     now,
	}
	if err := tx.CreateTransaction(ctx, t); err != nil {
		return err
	}

	link := &ledger.TransactionOrder{TransactionID: t.ID, ExpenseID: &e.ID, OrderID: &order.ID}
	if err := tx.CreateLink(ctx, link); err != nil {
		return err
	}

	if _, err := s.attachBill(ctx, tx, e, billPath); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// Update applies a partial change and re-derives the expense's order,
// transaction and link in one unit. Only admins may change the verified and
// refunded flags.
func (s *Service) Update(ctx context.Context, user *identity.User, id uuid.UUID, p UpdateParams) (*ledger.Expense, error) {
	e, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}

	if !identity.IsOwnerOrAdmin(user, e.UserID) {
		return nil, ledger.Denied("you do not have permission to edit this expense")
	}

	if (p.IsVerified != nil || p.IsRefunded != nil) && !identity.IsAdmin(user) {
		return nil, ledger.Denied("only admin can verify or refund expenses")
	}

	var v ledger.ValidationError

	if p.Date != nil {
		e.Date = s.parseDate(&v, *p.Date)
	}

	if p.Category != nil {
		e.Category = parseCategory(&v, *p.Category)
	}

	if p.Amount != nil {
		if p.Amount.IsNegative() {
			v.Add("amount", "must not be negative")
		}

		e.Amount = *p.Amount
	}

	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if p.Description != nil {
		e.Description = strings.TrimSpace(*p.Description)
	}

	wasVerified := e.IsVerified

	if p.IsVerified != nil {
		e.IsVerified = *p.IsVerified
	}

	if p.IsRefunded != nil {
		e.IsRefunded = *p.IsRefunded
	}

	billPath, err := s.saveBill(p.Bill)
	if err != nil {
		return nil, err
	}

	replaced, err := s.updateTx(ctx, e, billPath)
	if err != nil {
		s.discardBill(billPath)
		return nil, ledger.Failed(err)
	}

	s.discardBill(replaced)
	s.resolveBillURL(e)

	if !wasVerified && e.IsVerified {
		msg := fmt.Sprintf("Your expense of %s on %s has been verified", ledger.FormatAmount(e.Amount), e.Date.Format(time.DateOnly))
		if err := s.notifier.NotifyUser(ctx, user.ID, e.UserID, &e.ID, msg); err != nil {
			slog.Warn("failed to notify expense owner", "expense", e.ID, "error", err)
		}
	}

	return e, nil
}

// updateTx returns the path of a bill file superseded by billPath.
func (s *Service) updateTx(ctx context.Context, e *ledger.Expense, billPath string) (string, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := tx.UpdateExpense(ctx, e); err != nil {
		return "", err
	}

	link, err := tx.LinkForExpense(ctx, e.ID)
	if err != nil && !errors.Is(err, ledger.ErrNotFound) {
		return "", err
	}

	order, err := s.resolveOrder(ctx, tx, e, link)
	if err != nil {
		return "", err
	}

	if err := tx.SetOrderPrice(ctx, order.ID, e.Amount); err != nil {
		return "", err
	}

	if link == nil {
		if err := s.linkNewTransaction(ctx, tx, e, order); err != nil {
			return "", err
		}
	} else if err := s.syncLinkedTransaction(ctx, tx, e, order, link); err != nil {
		return "", err
	}

	replaced, err := s.attachBill(ctx, tx, e, billPath)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	return replaced, nil
}

// resolveOrder picks the order the expense's value is mirrored on: the one
// already linked, else the owner's latest expense order, else a new one.
func (s *Service) resolveOrder(ctx context.Context, tx Tx, e *ledger.Expense, link *ledger.TransactionOrder) (*ledger.Order, error) {
	if link != nil && link.OrderID != nil {
		o, err := tx.GetOrder(ctx, *link.OrderID)
		if err == nil {
			return o, nil
		}

		if !errors.Is(err, ledger.ErrNotFound) {
			return nil, err
		}
	}

	o, err := tx.LatestExpenseOrder(ctx, e.UserID)
	if err == nil {
		return o, nil
	}

	if !errors.Is(err, ledger.ErrNotFound) {
		return nil, err
	}

	o = &ledger.Order{UserID: e.UserID, Kind: ledger.OrderKindExpense, CalculatedPrice: e.Amount}
	if err := tx.CreateOrder(ctx, o); err != nil {
		return nil, err
	}

	return o, nil
}

func (s *Service) linkNewTransaction(ctx context.Context, tx Tx, e *ledger.Expense, order *ledger.Order) error {
	now := s.now()

	t := &transaction.Transaction{
		UserID:     &e.UserID,
		TotalPrice: e.Amount,
		Status:     transaction.StatusFor(e.IsRefunded),
		FromDate:   now,
		ToDate:     now,
	}
	if err := tx.CreateTransaction(ctx, t); err != nil {
		return err
	}

	return tx.CreateLink(ctx, &ledger.TransactionOrder{TransactionID: t.ID, ExpenseID: &e.ID, OrderID: &order.ID})
}

func (s *Service) syncLinkedTransaction(ctx context.Context, tx Tx, e *ledger.Expense, order *ledger.Order, link *ledger.TransactionOrder) error {
	if link.OrderID == nil || *link.OrderID != order.ID {
		if err := tx.SetLinkOrder(ctx, link.ID, order.ID); err != nil {
			return err
		}
	}

	t, err := tx.GetTransaction(ctx, link.TransactionID)
	if err != nil {
		return err
	}

	t.TotalPrice = e.Amount
	t.Status = transaction.StatusFor(e.IsRefunded)

	return tx.UpdateTransaction(ctx, t)
}

func (s *Service) Get(ctx context.Context, user *identity.User, id uuid.UUID) (*ledger.Expense, error) {
	e, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}

	if !identity.IsOwnerOrAdmin(user, e.UserID) {
		return nil, ledger.Denied("you do not have permission to view this expense")
	}

	s.resolveBillURL(e)

	return e, nil
}

// List returns every expense for admins and the caller's own otherwise,
// newest first.
func (s *Service) List(ctx context.Context, user *identity.User, filter ListFilter) ([]*ledger.Expense, error) {
	if !identity.IsAdmin(user) {
		filter.UserID = &user.ID
	}

	es, err := s.repo.ListExpenses(ctx, filter)
	if err != nil {
		return nil, err
	}

	for _, e := range es {
		s.resolveBillURL(e)
	}

	return es, nil
}

func (s *Service) Delete(ctx context.Context, user *identity.User, id uuid.UUID) error {
	e, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return err
	}

	if !identity.IsOwnerOrAdmin(user, e.UserID) {
		return ledger.Denied("you do not have permission to delete this expense")
	}

	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return err
	}

	if e.Bill != nil {
		s.discardBill(e.Bill.Path)
	}

	return nil
}

func (s *Service) parseDate(v *ledger.ValidationError, raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		v.Add("date", "required")
		return time.Time{}
	}

	d, err := time.ParseInLocation(time.DateOnly, raw, s.loc)
	if err != nil {
		v.Add("date", "invalid date format, use YYYY-MM-DD")
	}

	return d
}

func parseCategory(v *ledger.ValidationError, raw string) ledger.ExpenseCategory {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ledger.CategoryProduct
	}

	c := ledger.ExpenseCategory(raw)
	if !c.Valid() {
		v.Add("category", "must be one of Product, Travel, Food")
	}

	return c
}

func (s *Service) saveBill(r io.Reader) (string, error) {
	if r == nil {
		return "", nil
	}

	return s.bills.Save(r)
}

// attachBill records the file at path as e's bill, dropping the row of the
// bill it replaces. The replaced file's path is returned so it can be removed
// once the unit commits.
func (s *Service) attachBill(ctx context.Context, tx Tx, e *ledger.Expense, path string) (string, error) {
	if path == "" {
		return "", nil
	}

	var replaced string

	if e.Bill != nil {
		if err := tx.DeleteBill(ctx, e.Bill.ID); err != nil {
			return "", err
		}

		replaced = e.Bill.Path
	}

	b := &ledger.Bill{ExpenseID: e.ID, Path: path}
	if err := tx.AttachBill(ctx, b); err != nil {
		return "", err
	}

	b.URL = s.bills.URL(path)
	e.Bill = b

	return replaced, nil
}

func (s *Service) discardBill(path string) {
	if path == "" {
		return
	}

	if err := s.bills.Delete(path); err != nil {
		slog.Warn("failed to remove bill file", "path", path, "error", err)
	}
}

func (s *Service) resolveBillURL(e *ledger.Expense) {
	if e.Bill != nil && e.Bill.URL == "" {
		e.Bill.URL = s.bills.URL(e.Bill.Path)
	}
}
