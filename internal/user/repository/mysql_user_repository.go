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

const mysqlUserColumns = `id, name, email, password_hash, role, failed_login_attempts,
	last_failed_login_at, created_at, updated_at`

// MySQLUserRepository handles user persistence for MySQL. IDs are stored as BINARY(16).
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQLUserRepository.
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

// Create inserts a new user. A duplicate email yields ErrUserAlreadyExists.
func (r *MySQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	id, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	now := time.Now().UTC()
	user.Role = user.Role.OrDefault()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `INSERT INTO users (id, name, email, password_hash, role, failed_login_attempts,
			  last_failed_login_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = database.GetTx(ctx, r.db).ExecContext(ctx, query,
		id,
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
func (r *MySQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `SELECT ` + mysqlUserColumns + ` FROM users WHERE id = ?`
	user, err := scanMySQLUser(database.GetTx(ctx, r.db).QueryRowContext(ctx, query, idBytes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user by id")
	}
	return user, nil
}

// GetByEmail retrieves a user by its normalized email.
func (r *MySQLUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + mysqlUserColumns + ` FROM users WHERE email = ?`
	user, err := scanMySQLUser(database.GetTx(ctx, r.db).QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user by email")
	}
	return user, nil
}

// List returns users ordered by creation, newest first.
func (r *MySQLUserRepository) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	query := `SELECT ` + mysqlUserColumns + ` FROM users ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

	rows, err := database.GetTx(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list users")
	}
	defer func() { _ = rows.Close() }()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanMySQLUser(rows)
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
// MySQL reports changed rather than matched rows, so a no-op update is not an error here.
func (r *MySQLUserRepository) UpdateFailureState(
	ctx context.Context,
	id uuid.UUID,
	failedAttempts int,
	lastFailedAt *time.Time,
) error {
	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `UPDATE users SET failed_login_attempts = ?, last_failed_login_at = ?, updated_at = ? WHERE id = ?`
	if _, err := database.GetTx(ctx, r.db).ExecContext(ctx, query, failedAttempts, lastFailedAt, time.Now().UTC(), idBytes); err != nil {
		return apperrors.Wrap(err, "failed to update failure state")
	}
	return nil
}

// UpdateRole changes the role of a user.
func (r *MySQLUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role authDomain.Role) error {
	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`
	result, err := database.GetTx(ctx, r.db).ExecContext(ctx, query, string(role), time.Now().UTC(), idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to update role")
	}
	return ensureAffected(result)
}

func scanMySQLUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var id []byte
	var role string
	var lastFailed sql.NullTime

	err := row.Scan(
		&id,
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

	if err := user.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user id")
	}
	user.Role = authDomain.Role(role).OrDefault()
	if lastFailed.Valid {
		user.LastFailedLoginAt = &lastFailed.Time
	}
	return &user, nil
}
