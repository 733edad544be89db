package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"flow4ops/internal/domain/identity"
	"flow4ops/internal/platform/config"
)

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.SeedAdminEmail != "" {
		if err := ensureUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword, "HR Admin", "hr", "People Ops"); err != nil {
			return err
		}
	}

	if cfg.SeedDemoData {
		if err := seedDemoData(ctx, pool); err != nil {
			return err
		}
	}

	return nil
}

func ensureUser(ctx context.Context, pool *pgxpool.Pool, email, password, name, role, department string) error {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}

	hash, err := identity.HashPassword(password)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO users (email, name, role, department, is_active, password_hash)
    VALUES ($1,$2,$3,$4,TRUE,$5)
  `, email, name, role, department, hash)
	return err
}

func seedDemoData(ctx context.Context, pool *pgxpool.Pool) error {
	demoUsers := []struct {
		email      string
		name       string
		role       string
		department string
	}{
		{"employee@testcompany.com", "John Employee", "employee", "Operations"},
		{"jane@testcompany.com", "Jane Worker", "employee", "Finance"},
		{"hr@testcompany.com", "Helen Resources", "hr", "People Ops"},
	}
	for _, u := range demoUsers {
		if err := ensureUser(ctx, pool, u.email, "ChangeMe123!", u.name, u.role, u.department); err != nil {
			return err
		}
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM compliance_requests").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	due := time.Now().AddDate(0, 0, 14)
	_, err := pool.Exec(ctx, `
    INSERT INTO compliance_requests (title, description, form_type, due_date)
    VALUES ($1,$2,$3,$4)
  `, "EEA1 Employment Equity Form", "Annual employment equity declaration required from all staff.", "eea1", due)
	return err
}
