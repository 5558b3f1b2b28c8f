package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
	"github.com/betshield/betshield-api/internal/database"
	apperrors "github.com/betshield/betshield-api/internal/errors"
	"github.com/betshield/betshield-api/internal/user/domain"
)

var userColumnNames = []string{
	"id", "name", "email", "password_hash", "role", "failed_login_attempts",
	"last_failed_login_at", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func newTestUser() *domain.User {
	return &domain.User{
		ID:           uuid.Must(uuid.NewV7()),
		Name:         "Alice",
		Email:        "a@b.co",
		PasswordHash: "$2a$10$hash",
	}
}

func TestPostgreSQLUserRepository_Create(t *testing.T) {
	t.Run("success defaults role", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLUserRepository(db)
		user := newTestUser()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs(user.ID, "Alice", "a@b.co", "$2a$10$hash", "user", 0, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(context.Background(), user))
		assert.Equal(t, authDomain.RoleUser, user.Role)
		assert.False(t, user.CreatedAt.IsZero())
	})

	t.Run("duplicate email", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLUserRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

		err := repo.Create(context.Background(), newTestUser())
		assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("other error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLUserRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnError(errors.New("connection reset"))

		err := repo.Create(context.Background(), newTestUser())
		require.Error(t, err)
		assert.NotErrorIs(t, err, apperrors.ErrConflict)
		assert.Contains(t, err.Error(), "failed to create user")
	})

	t.Run("uses transaction from context", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLUserRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := database.NewTxManager(db).WithTx(context.Background(), func(ctx context.Context) error {
			return repo.Create(ctx, newTestUser())
		})
		assert.NoError(t, err)
	})
}

func TestPostgreSQLUserRepository_GetByEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLUserRepository(db)
		id := uuid.Must(uuid.NewV7())
		lastFailed := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
		createdAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
			WithArgs("a@b.co").
			WillReturnRows(sqlmock.NewRows(userColumnNames).
				AddRow(id.String(), "Alice", "a@b.co", "$2a$10$hash", "admin", 2, lastFailed, createdAt, createdAt))

		user, err := repo.GetByEmail(context.Background(), "a@b.co")
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, authDomain.RoleAdmin, user.Role)
		assert.Equal(t, 2, user.FailedLoginAttempts)
		require.NotNil(t, user.LastFailedLoginAt)
		assert.True(t, lastFailed.Equal(*user.LastFailedLoginAt))
	})

	t.Run("missing role defaults to user", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
			WillReturnRows(sqlmock.NewRows(userColumnNames).
				AddRow(uuid.Must(uuid.NewV7()).String(), "Alice", "a@b.co", "h", "", 0, nil, time.Now(), time.Now()))

		user, err := repo.GetByEmail(context.Background(), "a@b.co")
		require.NoError(t, err)
		assert.Equal(t, authDomain.RoleUser, user.Role)
		assert.Nil(t, user.LastFailedLoginAt)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
			WillReturnRows(sqlmock.NewRows(userColumnNames))

		_, err := repo.GetByEmail(context.Background(), "nobody@b.co")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestPostgreSQLUserRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLUserRepository(db)
	id := uuid.Must(uuid.NewV7())

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestPostgreSQLUserRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2")).
		WithArgs(20, 40).
		WillReturnRows(sqlmock.NewRows(userColumnNames).
			AddRow(uuid.Must(uuid.NewV7()).String(), "Alice", "a@b.co", "h", "user", 0, nil, now, now).
			AddRow(uuid.Must(uuid.NewV7()).String(), "Bob", "b@b.co", "h", "admin", 0, nil, now, now))

	users, err := repo.List(context.Background(), 40, 20)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Bob", users[1].Name)
}

func TestPostgreSQLUserRepository_UpdateFailureState(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLUserRepository(db)
		id := uuid.Must(uuid.NewV7())
		at := time.Now().UTC()

		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET failed_login_attempts = $1")).
			WithArgs(3, &at, sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateFailureState(context.Background(), id, 3, &at))
	})

	t.Run("unknown user", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLUserRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET failed_login_attempts = $1")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateFailureState(context.Background(), uuid.Must(uuid.NewV7()), 0, nil)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestPostgreSQLUserRepository_UpdateRole(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLUserRepository(db)
	id := uuid.Must(uuid.NewV7())

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role = $1")).
		WithArgs("admin", sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UpdateRole(context.Background(), id, authDomain.RoleAdmin))
}
