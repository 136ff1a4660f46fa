package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/expensa/internal/identity"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=notification
type Repository interface {
	CreateNotifications(ctx context.Context, ns []*Notification) error
	ListNotifications(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]*Notification, error)
	GetNotification(ctx context.Context, id uuid.UUID) (*Notification, error)
	SetRead(ctx context.Context, id uuid.UUID, read bool) error
}

// AdminDirectory lists the users that receive submission notices.
type AdminDirectory interface {
	Admins(ctx context.Context) ([]*identity.User, error)
}

// Transport pushes a message to a connected recipient in real time.
type Transport interface {
	Send(ctx context.Context, recipientID uuid.UUID, message string) error
}

// DefaultPushTimeout bounds all pushes made for a single call.
const DefaultPushTimeout = 5 * time.Second

type Service struct {
	repo        Repository
	admins      AdminDirectory
	transport   Transport
	pushTimeout time.Duration
}

func NewService(repo Repository, admins AdminDirectory, transport Transport) *Service {
	return &Service{repo: repo, admins: admins, transport: transport, pushTimeout: DefaultPushTimeout}
}

// WithPushTimeout sets the deadline shared by the pushes of one call.
func (s *Service) WithPushTimeout(d time.Duration) *Service {
	if d > 0 {
		s.pushTimeout = d
	}

	return s
}

// NotifyAdmins stores one notification per admin and pushes each of them.
// Push failures are logged and do not fail the call.
func (s *Service) NotifyAdmins(ctx context.Context, sender uuid.UUID, expenseID *uuid.UUID, message string) error {
	admins, err := s.admins.Admins(ctx)
	if err != nil {
		return fmt.Errorf("listing admins: %w", err)
	}

	if len(admins) == 0 {
		return nil
	}

	ns := make([]*Notification, 0, len(admins))
	for _, a := range admins {
		ns = append(ns, &Notification{
			SenderID:    sender,
			RecipientID: a.ID,
			ExpenseID:   expenseID,
			Message:     truncate(message),
		})
	}

	if err := s.repo.CreateNotifications(ctx, ns); err != nil {
		return err
	}

	s.push(ctx, ns...)

	return nil
}

func (s *Service) NotifyUser(ctx context.Context, sender, recipient uuid.UUID, expenseID *uuid.UUID, message string) error {
	n := &Notification{
		SenderID:    sender,
		RecipientID: recipient,
		ExpenseID:   expenseID,
		Message:     truncate(message),
	}

	if err := s.repo.CreateNotifications(ctx, []*Notification{n}); err != nil {
		return err
	}

	s.push(ctx, n)

	return nil
}

// push delivers ns in order under one deadline. Deliveries still pending when
// it passes fail and are logged like any other push failure.
func (s *Service) push(ctx context.Context, ns ...*Notification) {
	if s.transport == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.pushTimeout)
	defer cancel()

	for _, n := range ns {
		if err := s.transport.Send(ctx, n.RecipientID, n.Message); err != nil {
			slog.Warn("realtime push failed", "recipient", n.RecipientID, "error", err)
		}
	}
}

func (s *Service) List(ctx context.Context, user *identity.User, unreadOnly bool) ([]*Notification, error) {
	return s.repo.ListNotifications(ctx, user.ID, unreadOnly)
}

// Get returns a notification addressed to user. Other users' notifications
// are reported as missing.
func (s *Service) Get(ctx context.Context, user *identity.User, id uuid.UUID) (*Notification, error) {
	n, err := s.repo.GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}

	if n.RecipientID != user.ID {
		return nil, fmt.Errorf("notification %w", ledger.ErrNotFound)
	}

	return n, nil
}

func (s *Service) MarkRead(ctx context.Context, user *identity.User, id uuid.UUID, read bool) (*Notification, error) {
	n, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}

	if n.IsRead == read {
		return n, nil
	}

	if err := s.repo.SetRead(ctx, id, read); err != nil {
		return nil, err
	}

	n.IsRead = read

	return n, nil
}
