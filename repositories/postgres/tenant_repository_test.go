package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/procureflow/platform/models"
	"github.com/procureflow/platform/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func tenantRows(tenant *models.Tenant) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "slug", "status", "subscription", "sso_enabled",
		"trial_ends_at", "deleted_at", "created_at", "updated_at",
	}).AddRow(
		tenant.ID, tenant.Name, tenant.Slug, tenant.Status, tenant.Subscription,
		tenant.SSOEnabled, tenant.TrialEndsAt, tenant.DeletedAt, tenant.CreatedAt, tenant.UpdatedAt,
	)
}

func TestTenantRepositoryGetByEmailDomain(t *testing.T) {
	ctx := context.Background()

	t.Run("joins through the domain mapping", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTenantRepository(db, zap.NewNop())

		tenant := models.NewTenant("Acme Industrial", "acme")
		tenant.SSOEnabled = true

		mock.ExpectQuery(`FROM tenants t\s+JOIN tenant_email_domains d`).
			WithArgs("acme.example").
			WillReturnRows(tenantRows(tenant))

		got, err := repo.GetByEmailDomain(ctx, "acme.example")
		require.NoError(t, err)
		assert.Equal(t, tenant.ID, got.ID)
		assert.True(t, got.SSOEnabled)
	})

	t.Run("unmapped domain surfaces sql.ErrNoRows", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTenantRepository(db, zap.NewNop())

		mock.ExpectQuery("FROM tenants t").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByEmailDomain(ctx, "nowhere.example")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestTenantRepositoryRegisterDomain(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts when the domain is free", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTenantRepository(db, zap.NewNop())

		record := models.NewTenantEmailDomain(uuid.New(), "acme.example", true)

		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("acme.example").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec("INSERT INTO tenant_email_domains").
			WithArgs(record.ID, record.TenantID, record.Domain, record.Primary, record.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.RegisterDomain(ctx, record))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("taken domain is rejected without inserting", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTenantRepository(db, zap.NewNop())

		record := models.NewTenantEmailDomain(uuid.New(), "taken.example", false)

		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("taken.example").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err := repo.RegisterDomain(ctx, record)
		assert.ErrorIs(t, err, services.ErrDomainTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTenantRepositoryRemoveDomain(t *testing.T) {
	ctx := context.Background()

	t.Run("removes an existing mapping", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTenantRepository(db, zap.NewNop())
		tenantID := uuid.New()

		mock.ExpectExec("DELETE FROM tenant_email_domains").
			WithArgs(tenantID, "acme.example").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.RemoveDomain(ctx, tenantID, "acme.example"))
	})

	t.Run("missing mapping surfaces sql.ErrNoRows", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTenantRepository(db, zap.NewNop())

		mock.ExpectExec("DELETE FROM tenant_email_domains").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.RemoveDomain(ctx, uuid.New(), "ghost.example")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}
