package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

var userColNames = []string{"id", "username", "password_hash", "role", "created_at"}

func TestUserRepo_GetByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM admin_users WHERE username =").
			WithArgs("owner").
			WillReturnRows(sqlmock.NewRows(userColNames).AddRow("u1", "owner", "hash", "admin", now))

		u, err := repo.GetByUsername(context.Background(), "owner")
		require.NoError(t, err)
		assert.Equal(t, "u1", u.ID)
		assert.Equal(t, "admin", u.Role)
	})

	t.Run("not_found", func(t *testing.T) {
		mock.ExpectQuery("SELECT").WithArgs("ghost").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByUsername(context.Background(), "ghost")
		assert.True(t, domain.Is(err, "user_not_found"))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

// lib/pq errors are classified the same way as pgx ones.
func TestUserRepo_Create_DuplicateViaPQ(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO admin_users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "admin_users_username_key"})

	_, err = NewUserRepo(db).Create(context.Background(), domain.AdminUser{
		ID: "u1", Username: "owner", PasswordHash: "h", Role: "admin",
	})
	assert.True(t, domain.Is(err, "username_taken"))
}

func TestUserRepo_Create_Validation(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewUserRepo(db).Create(context.Background(), domain.AdminUser{Username: "x"})
	assert.True(t, domain.Is(err, "missing_field"))
}

func TestUserRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM admin_users ORDER BY username").
		WillReturnRows(sqlmock.NewRows(userColNames).
			AddRow("u1", "alice", "h", "admin", now).
			AddRow("u2", "bob", "h", "staff", now))

	users, err := NewUserRepo(db).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
