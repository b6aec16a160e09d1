package gormrepo_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/skillshare/skillshare-backend/internal/domain"
	"github.com/skillshare/skillshare-backend/internal/repository"
	"github.com/skillshare/skillshare-backend/internal/repository/gormrepo"
	"github.com/skillshare/skillshare-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(email string) *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:           uuid.New(),
		Name:         "Ada",
		LastName:     "Lovelace",
		Email:        email,
		PasswordHash: "hashedpassword",
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserRepository_Create(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := gormrepo.NewUserRepository(testDB.DB)
	ctx := context.Background()

	tests := []struct {
		name    string
		user    *domain.User
		wantErr error
	}{
		{
			name: "successful creation",
			user: newUser("ada@example.com"),
		},
		{
			name:    "duplicate email",
			user:    newUser("ada@example.com"),
			wantErr: repository.ErrDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.user)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestUserRepository_Lookups(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := gormrepo.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().
		WithEmail("grace@example.com").
		WithCategories("music", "coding").
		Build(t, testDB.DB)

	t.Run("by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, got.Email)
		assert.Equal(t, []string{"music", "coding"}, []string(got.Categories))
	})

	t.Run("by exact email", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "grace@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("email match is exact", func(t *testing.T) {
		_, err := repo.GetByEmail(ctx, "GRACE@example.com")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestUserRepository_UpdateKeepsTokenVersion(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := gormrepo.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	// Copy read before a global logout.
	stale, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)

	version, err := repo.IncrementTokenVersion(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)

	stale.Name = "Renamed"
	require.NoError(t, repo.Update(ctx, stale))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.EqualValues(t, 1, got.TokenVersion, "update must not write back the token version")
}

func TestUserRepository_UpdateMissing(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := gormrepo.NewUserRepository(testDB.DB)

	err := repo.Update(context.Background(), newUser("ghost@example.com"))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_IncrementTokenVersion(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := gormrepo.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().WithTokenVersion(5).Build(t, testDB.DB)

	t.Run("returns the new value", func(t *testing.T) {
		v, err := repo.IncrementTokenVersion(ctx, user.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 6, v)
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		const n = 10
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.IncrementTokenVersion(ctx, user.ID)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 6+n, got.TokenVersion)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := repo.IncrementTokenVersion(ctx, uuid.New())
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestUserRepository_Delete(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := gormrepo.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	require.NoError(t, repo.Delete(ctx, user.ID))

	_, err := repo.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, user.ID), repository.ErrNotFound)
}

func TestUserRepository_SearchByName(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := gormrepo.NewUserRepository(testDB.DB)
	ctx := context.Background()

	testutil.NewUserBuilder().WithName("Alice", "Smith").Build(t, testDB.DB)
	testutil.NewUserBuilder().WithName("Malik", "Jones").Build(t, testDB.DB)
	testutil.NewUserBuilder().WithName("Bob", "Alison").Build(t, testDB.DB)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "case insensitive substring", query: "ali", want: []string{"Alice", "Malik"}},
		{name: "matches first name only", query: "jones", want: nil},
		{name: "no match", query: "zed", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := repo.SearchByName(ctx, tt.query, 50)
			require.NoError(t, err)

			var names []string
			for _, u := range users {
				names = append(names, u.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}
