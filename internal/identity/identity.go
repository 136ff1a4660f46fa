package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Role is the capability level of a user, resolved once when the request is authenticated.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// AdminRoleName is the stored role name that grants RoleAdmin.
const AdminRoleName = "admin"

// ResolveRole maps a stored role name to its capability level.
func ResolveRole(name string) Role {
	if strings.EqualFold(strings.TrimSpace(name), AdminRoleName) {
		return RoleAdmin
	}

	return RoleMember
}

// User is an authenticated account.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	RoleID       *uuid.UUID
	RoleName     string // Loaded via JOIN
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RoleRecord is a stored role row.
type RoleRecord struct {
	ID          uuid.UUID
	Name        string
	Description string
	CreatedAt   time.Time
}

// IsAdmin reports whether u holds the admin capability.
func IsAdmin(u *User) bool {
	return u != nil && u.Role == RoleAdmin
}

// IsOwnerOrAdmin reports whether u owns the resource owned by ownerID or is an admin.
func IsOwnerOrAdmin(u *User, ownerID uuid.UUID) bool {
	if u == nil {
		return false
	}

	return u.ID == ownerID || IsAdmin(u)
}

type ctxKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the authenticated user stored by WithUser.
func FromContext(ctx context.Context) (*User, error) {
	u, ok := ctx.Value(ctxKey{}).(*User)
	if !ok || u == nil {
		return nil, ErrUnauthenticated
	}

	return u, nil
}
