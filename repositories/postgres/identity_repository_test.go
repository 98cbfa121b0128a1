package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/procureflow/platform/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return &DB{DB: sqlDB, logger: zap.NewNop()}, mock
}

func identityRows(identity *models.Identity) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "email", "first_name", "last_name", "job_title", "status",
		"department", "manager_id", "approval_limit", "deleted_at", "created_at", "updated_at",
	}).AddRow(
		identity.ID, identity.TenantID, identity.Email, identity.FirstName, identity.LastName,
		identity.JobTitle, identity.Status, identity.Department, identity.ManagerID,
		identity.ApprovalLimit, identity.DeletedAt, identity.CreatedAt, identity.UpdatedAt,
	)
}

func TestIdentityRepositoryCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts all columns", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewIdentityRepository(db, zap.NewNop())

		identity := models.NewIdentity(uuid.New(), "buyer@acme.example", "Maria", "Santos")

		mock.ExpectExec("INSERT INTO identities").
			WithArgs(identity.ID, identity.TenantID, identity.Email, identity.FirstName,
				identity.LastName, identity.JobTitle, identity.Status,
				identity.Department, identity.ManagerID, identity.ApprovalLimit,
				identity.CreatedAt, identity.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(ctx, identity))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure is wrapped", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewIdentityRepository(db, zap.NewNop())

		identity := models.NewIdentity(uuid.New(), "buyer@acme.example", "Maria", "Santos")
		mock.ExpectExec("INSERT INTO identities").WillReturnError(sql.ErrConnDone)

		err := repo.Create(ctx, identity)
		assert.Error(t, err)
	})
}

func TestIdentityRepositoryGetByTenantAndEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewIdentityRepository(db, zap.NewNop())

		identity := models.NewIdentity(uuid.New(), "buyer@acme.example", "Maria", "Santos")
		mock.ExpectQuery("FROM identities").
			WithArgs(identity.TenantID, identity.Email).
			WillReturnRows(identityRows(identity))

		got, err := repo.GetByTenantAndEmail(ctx, identity.TenantID, identity.Email)
		require.NoError(t, err)
		assert.Equal(t, identity.ID, got.ID)
		assert.Equal(t, models.StatusPendingSetup, got.Status)
	})

	t.Run("missing row surfaces sql.ErrNoRows for the service layer", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewIdentityRepository(db, zap.NewNop())

		mock.ExpectQuery("FROM identities").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByTenantAndEmail(ctx, uuid.New(), "ghost@acme.example")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestIdentityRepositoryUpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("updates only the profile-sync columns", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewIdentityRepository(db, zap.NewNop())

		identity := models.NewIdentity(uuid.New(), "buyer@acme.example", "Maria", "Santos")
		identity.JobTitle = "Procurement Lead"
		identity.UpdatedAt = time.Now()

		mock.ExpectExec(`UPDATE identities\s+SET first_name = \$2, last_name = \$3, job_title = \$4, updated_at = \$5`).
			WithArgs(identity.ID, identity.FirstName, identity.LastName, identity.JobTitle, identity.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateProfile(ctx, identity))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows means the identity is gone", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewIdentityRepository(db, zap.NewNop())

		identity := models.NewIdentity(uuid.New(), "buyer@acme.example", "Maria", "Santos")
		mock.ExpectExec("UPDATE identities").WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateProfile(ctx, identity)
		assert.Error(t, err)
	})
}
