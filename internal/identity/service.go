package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/expensa/internal/ledger"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=identity
type Repository interface {
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u *User) error
	UpdateUserRole(ctx context.Context, userID uuid.UUID, roleID *uuid.UUID) error
	UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash string) error
	ListAdmins(ctx context.Context) ([]*User, error)

	ListRoles(ctx context.Context) ([]*RoleRecord, error)
	GetRole(ctx context.Context, id uuid.UUID) (*RoleRecord, error)
	GetRoleByName(ctx context.Context, name string) (*RoleRecord, error)
	CreateRole(ctx context.Context, r *RoleRecord) error
	UpdateRole(ctx context.Context, r *RoleRecord) error
	DeleteRole(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo   Repository
	tokens *Tokens
}

func NewService(repo Repository, tokens *Tokens) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Authenticate resolves a bearer token into the user it was issued for.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user", ErrUnauthenticated)
		}

		return nil, err
	}

	return u, nil
}

func (s *Service) IssueToken(ctx context.Context, email string) (string, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	return s.tokens.Issue(u.ID)
}

func (s *Service) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.repo.GetUserByUsername(ctx, username)
}

func (s *Service) Admins(ctx context.Context) ([]*User, error) {
	return s.repo.ListAdmins(ctx)
}

type AddUserParams struct {
	Username string
	Email    string
	Password string
	RoleName string
}

// AddUser creates an account directly; registration flows live elsewhere.
func (s *Service) AddUser(ctx context.Context, p AddUserParams) (*User, error) {
	var v ledger.ValidationError
	if strings.TrimSpace(p.Username) == "" {
		v.Add("username", "required")
	}

	if !strings.Contains(p.Email, "@") {
		v.Add("email", "valid email is required")
	}

	if err := v.OrNil(); err != nil {
		return nil, err
	}

	u := &User{Username: strings.TrimSpace(p.Username), Email: strings.TrimSpace(p.Email), Role: RoleMember}

	if p.Password != "" {
		hash, err := hashPassword(p.Password)
		if err != nil {
			return nil, err
		}

		u.PasswordHash = hash
	}

	if p.RoleName != "" {
		role, err := s.ensureRole(ctx, p.RoleName)
		if err != nil {
			return nil, err
		}

		u.RoleID = &role.ID
		u.RoleName = role.Name
		u.Role = ResolveRole(role.Name)
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// SeedAdmin grants the admin role to the account registered under email,
// creating the role if needed. A non-empty password replaces the stored hash.
func (s *Service) SeedAdmin(ctx context.Context, email, password string) (*User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, &ledger.ValidationError{Fields: map[string]string{"email": "required"}}
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("finding %s: %w", email, err)
	}

	role, err := s.ensureRole(ctx, AdminRoleName)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateUserRole(ctx, u.ID, &role.ID); err != nil {
		return nil, err
	}

	if password != "" {
		hash, err := hashPassword(password)
		if err != nil {
			return nil, err
		}

		if err := s.repo.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
			return nil, err
		}

		u.PasswordHash = hash
	}

	u.RoleID = &role.ID
	u.RoleName = role.Name
	u.Role = RoleAdmin

	return u, nil
}

func (s *Service) ensureRole(ctx context.Context, name string) (*RoleRecord, error) {
	role, err := s.repo.GetRoleByName(ctx, name)
	if err == nil {
		return role, nil
	}

	if !errors.Is(err, ledger.ErrNotFound) {
		return nil, err
	}

	role = &RoleRecord{Name: name}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return nil, err
	}

	return role, nil
}

func (s *Service) ListRoles(ctx context.Context) ([]*RoleRecord, error) {
	return s.repo.ListRoles(ctx)
}

func (s *Service) GetRole(ctx context.Context, id uuid.UUID) (*RoleRecord, error) {
	return s.repo.GetRole(ctx, id)
}

func (s *Service) CreateRole(ctx context.Context, name, description string) (*RoleRecord, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &ledger.ValidationError{Fields: map[string]string{"role_name": "required"}}
	}

	r := &RoleRecord{Name: strings.TrimSpace(name), Description: description}
	if err := s.repo.CreateRole(ctx, r); err != nil {
		return nil, err
	}

	return r, nil
}

func (s *Service) UpdateRole(ctx context.Context, r *RoleRecord) error {
	if strings.TrimSpace(r.Name) == "" {
		return &ledger.ValidationError{Fields: map[string]string{"role_name": "required"}}
	}

	return s.repo.UpdateRole(ctx, r)
}

func (s *Service) DeleteRole(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteRole(ctx, id)
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	return string(hash), nil
}
