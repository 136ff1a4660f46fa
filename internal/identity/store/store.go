package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/expensa/internal/identity"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
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

// Expected column order: id, username, email, password_hash, role_id, role_name, created_at, updated_at
func scanUser(s scanner) (*identity.User, error) {
	var (
		u        identity.User
		hash     sql.NullString
		roleName sql.NullString
	)

	if err := s.Scan(
		&u.ID, &u.Username, &u.Email, &hash, &u.RoleID, &roleName, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}

	u.PasswordHash = hash.String
	u.RoleName = roleName.String
	u.Role = identity.ResolveRole(roleName.String)

	return &u, nil
}

const selectUser = `
	SELECT u.id, u.username, u.email, u.password_hash, u.role_id, r.name, u.created_at, u.updated_at
	FROM users u
	LEFT JOIN roles r ON r.id = u.role_id
`

func (s *Store) getUser(ctx context.Context, where string, arg any) (*identity.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, selectUser+" WHERE "+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %w", ledger.ErrNotFound)
		}

		return nil, fmt.Errorf("getting user: %w", err)
	}

	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return s.getUser(ctx, "u.id = $1", id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*identity.User, error) {
	return s.getUser(ctx, "u.username = $1", username)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	return s.getUser(ctx, "LOWER(u.email) = LOWER($1)", email)
}

func (s *Store) CreateUser(ctx context.Context, u *identity.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, role_id, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query, u.Username, u.Email, u.PasswordHash, u.RoleID).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	return nil
}

func (s *Store) UpdateUserRole(ctx context.Context, userID uuid.UUID, roleID *uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET role_id = $1, updated_at = NOW() WHERE id = $2`, roleID, userID)
	if err != nil {
		return fmt.Errorf("updating user role: %w", err)
	}

	return expectAffected(res, "user")
}

func (s *Store) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, hash, userID)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	return expectAffected(res, "user")
}

func (s *Store) ListAdmins(ctx context.Context) ([]*identity.User, error) {
	rows, err := s.db.QueryContext(ctx, selectUser+" WHERE LOWER(r.name) = $1 ORDER BY u.username", identity.AdminRoleName)
	if err != nil {
		return nil, fmt.Errorf("listing admins: %w", err)
	}
	defer rows.Close()

	var users []*identity.User

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}

		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	return users, nil
}

const selectRole = `SELECT id, name, description, created_at FROM roles`

func scanRole(s scanner) (*identity.RoleRecord, error) {
	var r identity.RoleRecord
	if err := s.Scan(&r.ID, &r.Name, &r.Description, &r.CreatedAt); err != nil {
		return nil, err
	}

	return &r, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]*identity.RoleRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectRole+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	var roles []*identity.RoleRecord

	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}

		roles = append(roles, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roles: %w", err)
	}

	return roles, nil
}

func (s *Store) getRole(ctx context.Context, where string, arg any) (*identity.RoleRecord, error) {
	r, err := scanRole(s.db.QueryRowContext(ctx, selectRole+" WHERE "+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role %w", ledger.ErrNotFound)
		}

		return nil, fmt.Errorf("getting role: %w", err)
	}

	return r, nil
}

func (s *Store) GetRole(ctx context.Context, id uuid.UUID) (*identity.RoleRecord, error) {
	return s.getRole(ctx, "id = $1", id)
}

func (s *Store) GetRoleByName(ctx context.Context, name string) (*identity.RoleRecord, error) {
	return s.getRole(ctx, "LOWER(name) = LOWER($1)", name)
}

func (s *Store) CreateRole(ctx context.Context, r *identity.RoleRecord) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO roles (name, description) VALUES ($1, $2) RETURNING id, created_at`,
		r.Name, r.Description,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating role: %w", err)
	}

	return nil
}

func (s *Store) UpdateRole(ctx context.Context, r *identity.RoleRecord) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE roles SET name = $1, description = $2 WHERE id = $3`, r.Name, r.Description, r.ID)
	if err != nil {
		return fmt.Errorf("updating role: %w", err)
	}

	return expectAffected(res, "role")
}

func (s *Store) DeleteRole(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting role: %w", err)
	}

	return expectAffected(res, "role")
}

func expectAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("%s %w", what, ledger.ErrNotFound)
	}

	return nil
}
