package user

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUserMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

func TestCreateUser(t *testing.T) {
	repo, mock, close := setupUserMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING id, name, email, password_hash, role, created_at")).
		WithArgs("Ad Buyer", "adv@example.com", "hash", "advertiser").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at"}).
			AddRow(1, "Ad Buyer", "adv@example.com", "hash", "advertiser", time.Now()))

	u, err := repo.Create(context.Background(), "Ad Buyer", "adv@example.com", "hash", "advertiser")
	require.NoError(t, err)
	assert.Equal(t, 1, u.ID)
	assert.Equal(t, "advertiser", u.Role)
}

func TestEmailExists(t *testing.T) {
	repo, mock, close := setupUserMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)")).
		WithArgs("adv@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.EmailExists(context.Background(), "adv@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFindByID(t *testing.T) {
	repo, mock, close := setupUserMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, password_hash, role, created_at FROM users WHERE id = $1")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at"}).
			AddRow(7, "Ad Buyer", "adv@example.com", "hash", "advertiser", time.Now()))

	u, err := repo.FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "adv@example.com", u.Email)
}
