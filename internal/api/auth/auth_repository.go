package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	database "github.com/mirro-social/mirro-auth/app/db"
	"github.com/mirro-social/mirro-auth/internal/types"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo defines the contract the service requires from the credential
// store: an exact-match lookup and an insert that resolves duplicate
// usernames at the database's uniqueness constraint.
type AuthRepo interface {
	// GetUserByUsername retrieves a user by exact username match.
	// Returns types.ErrNotFound if no such user exists.
	GetUserByUsername(ctx context.Context, username string) (*types.UserRecord, error)

	// CreateUser inserts a new user row and returns the assigned ID.
	// Returns types.ErrDuplicateUsername when the username is already taken;
	// the users.username UNIQUE constraint is the sole enforcement point,
	// there is no check-then-insert.
	CreateUser(ctx context.Context, params CreateUserParams) (uuid.UUID, error)
}

// CreateUserParams carries the already-hashed credentials and profile
// fields for a new user. Password plaintext never reaches this layer.
type CreateUserParams struct {
	Username     string
	PasswordHash string
	FullName     string
	Birthday     string
	PhoneNumber  string
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool database.PGXQuerier
}

func NewPostgresAuthRepo(pgpool database.PGXQuerier, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

// GetUserByUsername retrieves a user by exact username match.
func (r *PostgresAuthRepo) GetUserByUsername(ctx context.Context, username string) (*types.UserRecord, error) {
	var user types.UserRecord
	var fullName, birthday, phoneNumber *string

	err := r.pgpool.QueryRow(ctx,
		`SELECT id, username, password_hash, full_name, birthday::text, phone_number, created_at, updated_at
         FROM users
         WHERE username = $1`,
		username).Scan(&user.ID, &user.Username, &user.PasswordHash,
		&fullName, &birthday, &phoneNumber, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("get user by username: query failed: %w", err)
	}

	if fullName != nil {
		user.FullName = *fullName
	}
	if birthday != nil {
		user.Birthday = *birthday
	}
	if phoneNumber != nil {
		user.PhoneNumber = *phoneNumber
	}

	return &user, nil
}

// CreateUser inserts a new user row and returns the assigned ID.
func (r *PostgresAuthRepo) CreateUser(ctx context.Context, params CreateUserParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pgpool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, full_name, birthday, phone_number)
         VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, '')::date, NULLIF($5, ''))
         RETURNING id`,
		params.Username, params.PasswordHash, params.FullName, params.Birthday, params.PhoneNumber).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return uuid.Nil, types.ErrDuplicateUsername
		}
		return uuid.Nil, fmt.Errorf("create user: db insert failed: %w", err)
	}

	return id, nil
}
