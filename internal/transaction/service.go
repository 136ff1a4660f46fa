package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensa/internal/identity"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	UpdateTransaction(ctx context.Context, tx *Transaction) error
	ListTransactions(ctx context.Context, filter ListFilter) ([]*Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	TotalPrice decimal.Decimal
	Status     Status
	FromDate   time.Time
	ToDate     time.Time
	Remarks    *string
}

type UpdateParams struct {
	TotalPrice *decimal.Decimal
	Status     *Status
	FromDate   *time.Time
	ToDate     *time.Time
	Remarks    *string
}

type ListFilter struct {
	UserID *uuid.UUID
	Status *Status
}

func (s *Service) Create(ctx context.Context, user *identity.User, params CreateParams) (*Transaction, error) {
	if params.Status == "" {
		params.Status = StatusPending
	}

	if err := validate(params.TotalPrice, params.Status, params.FromDate, params.ToDate); err != nil {
		return nil, err
	}

	tx := &Transaction{
		UserID:     &user.ID,
		TotalPrice: params.TotalPrice,
		Status:     params.Status,
		FromDate:   params.FromDate,
		ToDate:     params.ToDate,
		Remarks:    params.Remarks,
	}
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

// List returns the caller's own transactions.
func (s *Service) List(ctx context.Context, user *identity.User, status *Status) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, ListFilter{UserID: &user.ID, Status: status})
}

func (s *Service) Get(ctx context.Context, user *identity.User, id uuid.UUID) (*Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	if !canAccess(user, tx) {
		return nil, ledger.Denied("you do not have permission to access this transaction")
	}

	return tx, nil
}

func (s *Service) Update(ctx context.Context, user *identity.User, id uuid.UUID, params UpdateParams) (*Transaction, error) {
	tx, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}

	if params.TotalPrice != nil {
		tx.TotalPrice = *params.TotalPrice
	}

	if params.Status != nil {
		tx.Status = *params.Status
	}

	if params.FromDate != nil {
		tx.FromDate = *params.FromDate
	}

	if params.ToDate != nil {
		tx.ToDate = *params.ToDate
	}

	if params.Remarks != nil {
		tx.Remarks = params.Remarks
	}

	if err := validate(tx.TotalPrice, tx.Status, tx.FromDate, tx.ToDate); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *Service) Delete(ctx context.Context, user *identity.User, id uuid.UUID) error {
	if _, err := s.Get(ctx, user, id); err != nil {
		return err
	}

	return s.repo.DeleteTransaction(ctx, id)
}

func canAccess(user *identity.User, tx *Transaction) bool {
	if identity.IsAdmin(user) {
		return true
	}

	return tx.UserID != nil && identity.IsOwnerOrAdmin(user, *tx.UserID)
}

func validate(total decimal.Decimal, status Status, from, to time.Time) error {
	var v ledger.ValidationError

	if total.IsNegative() {
		v.Add("total_price", "must not be negative")
	}

	if !status.Valid() {
		v.Add("status", "must be Pending or Completed")
	}

	if from.IsZero() {
		v.Add("from_date", "required")
	}

	if to.IsZero() {
		v.Add("to_date", "required")
	}

	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		v.Add("to_date", "must not be before from_date")
	}

	return v.OrNil()
}
