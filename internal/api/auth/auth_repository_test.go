package auth

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirro-social/mirro-auth/internal/types"
)

func newRepoWithMock(t *testing.T) (*PostgresAuthRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return NewPostgresAuthRepo(mockPool, slog.Default()), mockPool
}

func TestGetUserByUsername(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		repo, mockPool := newRepoWithMock(t)

		id := uuid.New()
		now := time.Now()
		fullName := "Ada Lovelace"

		mockPool.ExpectQuery(`SELECT id, username, password_hash`).
			WithArgs("ada").
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "username", "password_hash", "full_name", "birthday", "phone_number", "created_at", "updated_at",
			}).AddRow(id, "ada", "$2a$10$hash", &fullName, nil, nil, now, now))

		user, err := repo.GetUserByUsername(context.Background(), "ada")

		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, "ada", user.Username)
		assert.Equal(t, "$2a$10$hash", user.PasswordHash)
		assert.Equal(t, "Ada Lovelace", user.FullName)
		assert.Empty(t, user.Birthday)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mockPool := newRepoWithMock(t)

		mockPool.ExpectQuery(`SELECT id, username, password_hash`).
			WithArgs("ghost").
			WillReturnError(pgx.ErrNoRows)

		user, err := repo.GetUserByUsername(context.Background(), "ghost")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("QueryFailure", func(t *testing.T) {
		repo, mockPool := newRepoWithMock(t)

		mockPool.ExpectQuery(`SELECT id, username, password_hash`).
			WithArgs("ada").
			WillReturnError(errors.New("connection refused"))

		user, err := repo.GetUserByUsername(context.Background(), "ada")

		assert.Nil(t, user)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, types.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestCreateUser(t *testing.T) {
	params := CreateUserParams{
		Username:     "ada",
		PasswordHash: "$2a$10$hash",
		FullName:     "Ada Lovelace",
		Birthday:     "1815-12-10",
		PhoneNumber:  "+44123456789",
	}

	t.Run("Success", func(t *testing.T) {
		repo, mockPool := newRepoWithMock(t)

		id := uuid.New()
		mockPool.ExpectQuery(`INSERT INTO users`).
			WithArgs(params.Username, params.PasswordHash, params.FullName, params.Birthday, params.PhoneNumber).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(id))

		gotID, err := repo.CreateUser(context.Background(), params)

		require.NoError(t, err)
		assert.Equal(t, id, gotID)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		repo, mockPool := newRepoWithMock(t)

		// The users.username UNIQUE constraint is the single enforcement
		// point; the repo only translates the SQLSTATE.
		mockPool.ExpectQuery(`INSERT INTO users`).
			WithArgs(params.Username, params.PasswordHash, params.FullName, params.Birthday, params.PhoneNumber).
			WillReturnError(&pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				ConstraintName: "users_username_key",
			})

		gotID, err := repo.CreateUser(context.Background(), params)

		assert.Equal(t, uuid.Nil, gotID)
		assert.ErrorIs(t, err, types.ErrDuplicateUsername)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("OtherPersistenceFailure", func(t *testing.T) {
		repo, mockPool := newRepoWithMock(t)

		mockPool.ExpectQuery(`INSERT INTO users`).
			WithArgs(params.Username, params.PasswordHash, params.FullName, params.Birthday, params.PhoneNumber).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.AdminShutdown})

		gotID, err := repo.CreateUser(context.Background(), params)

		assert.Equal(t, uuid.Nil, gotID)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, types.ErrDuplicateUsername)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
