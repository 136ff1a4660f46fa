package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/expensa/internal/config"
	"github.com/MrJamesThe3rd/expensa/internal/database"
	"github.com/MrJamesThe3rd/expensa/internal/identity"
	identityStore "github.com/MrJamesThe3rd/expensa/internal/identity/store"
)

type env struct {
	cfg *config.Config
	db  *sql.DB
}

func connect(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := database.New(ctx, database.Options{
		DSN:             cfg.ConnectionString(),
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		PingTimeout:     cfg.DB.PingTimeout,
	})
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, db: db}, nil
}

func (e *env) identity() *identity.Service {
	return identity.NewService(identityStore.New(e.db), identity.NewTokens(e.cfg.Auth.Secret, e.cfg.Auth.TokenTTL))
}

// withEnv runs fn against a connected environment and closes it afterwards.
func withEnv(ctx context.Context, fn func(context.Context, *env) error) error {
	e, err := connect(ctx)
	if err != nil {
		return err
	}
	defer e.db.Close()

	return fn(ctx, e)
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				if err := database.Migrate(ctx, e.db); err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")

				return nil
			})
		},
	}
}

func newSeedAdminCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Grant the admin role to an existing account",
		Long: "Grant the admin role to the account registered under --email " +
			"(default ADMIN_EMAIL), creating the role if needed. A password, from " +
			"--password or ADMIN_PASSWORD, replaces the stored hash.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				if email == "" {
					email = e.cfg.Admin.Email
				}

				if password == "" {
					password = e.cfg.Admin.Password
				}

				u, err := e.identity().SeedAdmin(ctx, email, password)
				if err != nil {
					return fmt.Errorf("seeding admin: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now an admin\n", u.Username, u.Email)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (defaults to ADMIN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "new password (defaults to ADMIN_PASSWORD)")

	return cmd
}

func newAddUserCommand() *cobra.Command {
	var p identity.AddUserParams

	cmd := &cobra.Command{
		Use:   "add-user",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				u, err := e.identity().AddUser(ctx, p)
				if err != nil {
					return fmt.Errorf("adding user: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) with id %s\n", u.Username, u.Email, u.ID)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&p.Username, "username", "", "login name")
	cmd.Flags().StringVar(&p.Email, "email", "", "email address")
	cmd.Flags().StringVar(&p.Password, "password", "", "password")
	cmd.Flags().StringVar(&p.RoleName, "role", "", "role name, created if missing")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token <email>",
		Short: "Issue a bearer token for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				token, err := e.identity().IssueToken(ctx, args[0])
				if err != nil {
					return fmt.Errorf("issuing token: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), token)

				return nil
			})
		},
	}
}
