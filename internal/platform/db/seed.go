package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/platform/config"
)

// Seed makes sure a usable admin account exists, plus a demo department
// head and employee outside production.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	password := cfg.SeedAdminPassword
	if password == "" {
		password = "ChangeMe123!"
	}
	if err := ensureUser(ctx, pool, cfg.SeedAdminEmail, "Portal Admin", auth.RoleAdmin, "", password); err != nil {
		return err
	}

	if cfg.Environment == "production" {
		return nil
	}

	if err := ensureUser(ctx, pool, "head@example.com", "Head of Engineering", auth.RoleDepartmentHead, "engineering", password); err != nil {
		return err
	}
	return ensureUser(ctx, pool, "employee@example.com", "Sample Employee", auth.RoleEmployee, "engineering", password)
}

func ensureUser(ctx context.Context, pool *pgxpool.Pool, email, displayName, role, department, password string) error {
	var id string
	if err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id); err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (email, display_name, role, department, password_hash)
    VALUES ($1,$2,$3,$4,$5)
  `, email, displayName, role, department, hash)
	return err
}
