package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/paygate/testutils"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(testutils.SetupTestDB(t, &User{}), nil)
}

func seedUser(t *testing.T, repo *Repository, email string) *User {
	t.Helper()
	u := &User{
		Email:     email,
		Firstname: "Ada",
		Lastname:  "Obi",
		Username:  "ada",
		Password:  "hash",
		Phone:     "+2348012345678",
		Country:   "NG",
		State:     "Lagos",
		Role:      RoleUser,
		Status:    StatusActive,
		Gender:    GenderFemale,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func strPtr(s string) *string {
	return &s
}

func TestRepository_Find(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	created := seedUser(t, repo, "ada@example.com")

	t.Run("by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", found.Email)
	})

	t.Run("by email", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, 9999)
		testutils.AssertErrorType(t, ErrUserNotFound, err)
	})

	t.Run("empty refresh id never matches", func(t *testing.T) {
		_, err := repo.FindByRefreshID(ctx, "")
		testutils.AssertErrorType(t, ErrUserNotFound, err)
	})

	t.Run("operator-shaped input is matched literally", func(t *testing.T) {
		_, err := repo.FindByEmail(ctx, "' OR '1'='1")
		testutils.AssertErrorType(t, ErrUserNotFound, err)
	})
}

func TestRepository_RefreshID(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	u := seedUser(t, repo, "ada@example.com")

	rows, err := repo.SetRefreshID(ctx, u.ID, strPtr("first"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	found, err := repo.FindByRefreshID(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	t.Run("swap succeeds while the identifier matches", func(t *testing.T) {
		rows, err := repo.SwapRefreshID(ctx, u.ID, "first", "second")
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)

		_, err = repo.FindByRefreshID(ctx, "first")
		testutils.AssertErrorType(t, ErrUserNotFound, err)
	})

	t.Run("swap with a stale identifier writes nothing", func(t *testing.T) {
		rows, err := repo.SwapRefreshID(ctx, u.ID, "first", "third")
		require.NoError(t, err)
		assert.Equal(t, int64(0), rows)

		found, err := repo.FindByRefreshID(ctx, "second")
		require.NoError(t, err)
		assert.Equal(t, u.ID, found.ID)
	})

	t.Run("clearing removes the identifier", func(t *testing.T) {
		rows, err := repo.SetRefreshID(ctx, u.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)

		found, err := repo.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Nil(t, found.RefreshID)
	})

	t.Run("unknown user writes nothing", func(t *testing.T) {
		rows, err := repo.SetRefreshID(ctx, 9999, strPtr("x"))
		require.NoError(t, err)
		assert.Equal(t, int64(0), rows)
	})
}

func TestRepository_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	u := seedUser(t, repo, "ada@example.com")

	require.NoError(t, repo.Update(ctx, u.ID, map[string]any{"firstname": "Adaeze"}))
	found, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Adaeze", found.Firstname)

	testutils.AssertErrorType(t, ErrUserNotFound, repo.Update(ctx, 9999, map[string]any{"firstname": "x"}))
	assert.NoError(t, repo.Update(ctx, u.ID, nil))

	require.NoError(t, repo.Delete(ctx, u.ID))
	testutils.AssertErrorType(t, ErrUserNotFound, repo.Delete(ctx, u.ID))
}

func TestRepository_FindAll(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	seedUser(t, repo, "a@example.com")
	seedUser(t, repo, "b@example.com")

	users, err := repo.FindAll(ctx)

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "a@example.com", users[0].Email)
	assert.NoError(t, repo.Ping(ctx))
}

func TestRepository_StoreFailure(t *testing.T) {
	db, _ := testutils.SetupMockDB(t)
	repo := NewRepository(db, nil)

	_, err := repo.FindByRefreshID(context.Background(), "anything")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}
