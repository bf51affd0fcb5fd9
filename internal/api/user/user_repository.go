package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	database "github.com/mirro-social/mirro-auth/app/db"
	"github.com/mirro-social/mirro-auth/internal/types"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo defines the contract for user profile reads.
type UserRepo interface {
	// GetUserByID retrieves a user's profile by their unique ID.
	// Returns types.ErrNotFound if the user doesn't exist.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserRecord, error)
}

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool database.PGXQuerier
}

func NewPostgresUserRepo(pgpool database.PGXQuerier, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

// GetUserByID retrieves a user's profile by their unique ID.
func (r *PostgresUserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserRecord, error) {
	var user types.UserRecord
	var fullName, birthday, phoneNumber *string

	err := r.pgpool.QueryRow(ctx,
		`SELECT id, username, full_name, birthday::text, phone_number, created_at, updated_at
         FROM users
         WHERE id = $1`,
		userID).Scan(&user.ID, &user.Username, &fullName, &birthday, &phoneNumber,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: query failed: %w", err)
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
