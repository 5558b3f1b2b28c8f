// Package repository implements the credential store on PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
	"github.com/betshield/betshield-api/internal/database"
	apperrors "github.com/betshield/betshield-api/internal/errors"
	"github.com/betshield/betshield-api/internal/user/domain"
)

const postgresUserColumns = `id, name, email, password_hash, role, failed_login_attempts,
	last_failed_login_at, created_at, updated_at`

// PostgreSQLUserRepository handles user persistence for PostgreSQL.
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// NewPostgreSQLUserRepository creates a new PostgreSQLUserRepository.
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{db: db}
}

// Create inserts a new user. A duplicate email yields ErrUserAlreadyExists,
// which is how concurrent registrations of one email resolve to a single winner.
func (r *PostgreSQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	now := time.Now().UTC()
	user.Role = user.Role.OrDefault()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `INSERT INTO users (id, name, email, password_hash, role, failed_login_attempts,
			  last_failed_login_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.FailedLoginAttempts,
		user.LastFailedLoginAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *PostgreSQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + postgresUserColumns + ` FROM users WHERE id = $1`
	row := database.GetTx(ctx, r.db).QueryRowContext(ctx, query, id)

	user, err := scanPostgreSQLUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user by id")
	}
	return user, nil
}

// GetByEmail retrieves a user by its normalized email.
func (r *PostgreSQLUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + postgresUserColumns + ` FROM users WHERE email = $1`
	row := database.GetTx(ctx, r.db).QueryRowContext(ctx, query, email)

	user, err := scanPostgreSQLUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user by email")
	}
	return user, nil
}

// List returns users ordered by creation, newest first.
func (r *PostgreSQLUserRepository) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	query := `SELECT ` + postgresUserColumns + ` FROM users ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`

	rows, err := database.GetTx(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list users")
	}
	defer func() { _ = rows.Close() }()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanPostgreSQLUser(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan user")
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate users")
	}
	return users, nil
}

// UpdateFailureState stores the failed login telemetry of a user.
func (r *PostgreSQLUserRepository) UpdateFailureState(
	ctx context.Context,
	id uuid.UUID,
	failedAttempts int,
	lastFailedAt *time.Time,
) error {
	query := `UPDATE users SET failed_login_attempts = $1, last_failed_login_at = $2, updated_at = $3
			  WHERE id = $4`

	result, err := database.GetTx(ctx, r.db).ExecContext(ctx, query, failedAttempts, lastFailedAt, time.Now().UTC(), id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update failure state")
	}
	return ensureAffected(result)
}

// UpdateRole changes the role of a user.
func (r *PostgreSQLUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role authDomain.Role) error {
	query := `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`

	result, err := database.GetTx(ctx, r.db).ExecContext(ctx, query, string(role), time.Now().UTC(), id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update role")
	}
	return ensureAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostgreSQLUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var role string
	var lastFailed sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.FailedLoginAttempts,
		&lastFailed,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Role = authDomain.Role(role).OrDefault()
	if lastFailed.Valid {
		user.LastFailedLoginAt = &lastFailed.Time
	}
	return &user, nil
}

func ensureAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
