package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/procureflow/platform/config"
	"go.uber.org/zap"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	dsn := cfg.DSN()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{
		DB:     db,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// Stats returns database connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// InitSchema initializes the database schema
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		-- Tenants table
		CREATE TABLE IF NOT EXISTS tenants (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			slug VARCHAR(100) NOT NULL UNIQUE,
			status VARCHAR(20) NOT NULL,
			subscription VARCHAR(20) NOT NULL,
			sso_enabled BOOLEAN NOT NULL DEFAULT false,
			trial_ends_at TIMESTAMP,
			deleted_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Tenant email domains table (a domain belongs to exactly one tenant)
		CREATE TABLE IF NOT EXISTS tenant_email_domains (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			domain VARCHAR(255) NOT NULL UNIQUE,
			is_primary BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Identities table
		CREATE TABLE IF NOT EXISTS identities (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			email VARCHAR(255) NOT NULL,
			first_name VARCHAR(100) NOT NULL DEFAULT '',
			last_name VARCHAR(100) NOT NULL DEFAULT '',
			job_title VARCHAR(150) NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL,
			department VARCHAR(100),
			manager_id UUID REFERENCES identities(id),
			approval_limit DECIMAL(14, 2),
			deleted_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(tenant_id, email)
		);

		-- Login accounts table
		CREATE TABLE IF NOT EXISTS login_accounts (
			id UUID PRIMARY KEY,
			identity_id UUID NOT NULL REFERENCES identities(id) ON DELETE CASCADE,
			auth_method VARCHAR(10) NOT NULL,
			identifier VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255),
			provider VARCHAR(100),
			provider_user_id VARCHAR(255),
			failed_attempts INTEGER NOT NULL DEFAULT 0,
			last_login_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		-- At most one LOCAL account per identity
		CREATE UNIQUE INDEX IF NOT EXISTS idx_login_accounts_local
			ON login_accounts(identity_id) WHERE auth_method = 'LOCAL';
		-- At most one (provider, identity) SSO account
		CREATE UNIQUE INDEX IF NOT EXISTS idx_login_accounts_sso
			ON login_accounts(identity_id, provider) WHERE auth_method = 'SSO';

		-- Roles table
		CREATE TABLE IF NOT EXISTS roles (
			id UUID PRIMARY KEY,
			tenant_id UUID REFERENCES tenants(id) ON DELETE CASCADE,
			name VARCHAR(100) NOT NULL,
			is_default BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Role assignments table
		CREATE TABLE IF NOT EXISTS role_assignments (
			id UUID PRIMARY KEY,
			identity_id UUID NOT NULL REFERENCES identities(id) ON DELETE CASCADE,
			role_id UUID NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(identity_id, role_id)
		);

		-- Audit logs table
		CREATE TABLE IF NOT EXISTS audit_logs (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			actor_id UUID,
			action VARCHAR(100) NOT NULL,
			resource_type VARCHAR(100) NOT NULL,
			resource_id UUID,
			severity VARCHAR(20) NOT NULL DEFAULT 'info',
			details JSONB,
			ip_address VARCHAR(45),
			user_agent TEXT,
			request_id VARCHAR(255),
			timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Indexes for performance
		CREATE INDEX IF NOT EXISTS idx_tenant_email_domains_tenant_id ON tenant_email_domains(tenant_id);
		CREATE INDEX IF NOT EXISTS idx_identities_tenant_id ON identities(tenant_id);
		CREATE INDEX IF NOT EXISTS idx_identities_email ON identities(email);
		CREATE INDEX IF NOT EXISTS idx_login_accounts_identifier ON login_accounts(identifier);
		CREATE INDEX IF NOT EXISTS idx_roles_tenant_id ON roles(tenant_id);
		CREATE INDEX IF NOT EXISTS idx_role_assignments_identity_id ON role_assignments(identity_id);
		CREATE INDEX IF NOT EXISTS idx_audit_logs_tenant_id ON audit_logs(tenant_id);
		CREATE INDEX IF NOT EXISTS idx_audit_logs_actor_id ON audit_logs(actor_id);
		CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs(action);
		CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp ON audit_logs(timestamp);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
