package gormrepo_test

import (
	"context"
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

func TestStoryRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := gormrepo.NewStoryRepository(testDB.DB)
	ctx := context.Background()

	owner, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	createdAt := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	story := &domain.Story{
		ID:        domain.NewStoryID(),
		UserID:    owner.ID,
		UserName:  owner.DisplayName(),
		Text:      "learning go",
		CreatedAt: createdAt,
	}
	require.NoError(t, repo.Create(ctx, story))

	got, err := repo.GetByID(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, "learning go", got.Text)
	assert.Equal(t, owner.ID, got.UserID)
	assert.True(t, createdAt.Equal(got.CreatedAt), "created at %v, got %v", createdAt, got.CreatedAt)
	assert.Empty(t, got.Views)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStoryRepository_ListNewestFirst(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := gormrepo.NewStoryRepository(testDB.DB)
	ctx := context.Background()

	base := time.Now().UTC().Add(-3 * time.Hour)
	viewer := uuid.New()
	oldest := testutil.NewStoryBuilder().WithCreatedAt(base).Build(t, testDB.DB)
	newest := testutil.NewStoryBuilder().WithCreatedAt(base.Add(2 * time.Hour)).WithViewers(viewer).Build(t, testDB.DB)
	middle := testutil.NewStoryBuilder().WithCreatedAt(base.Add(time.Hour)).Build(t, testDB.DB)

	stories, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, stories, 3)
	assert.Equal(t, []string{newest.ID, middle.ID, oldest.ID}, []string{stories[0].ID, stories[1].ID, stories[2].ID})
	assert.Equal(t, []uuid.UUID{viewer}, stories[0].ViewerIDs())

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStoryRepository_UpdateText(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := gormrepo.NewStoryRepository(testDB.DB)
	ctx := context.Background()

	story := testutil.NewStoryBuilder().Build(t, testDB.DB)

	require.NoError(t, repo.UpdateText(ctx, story.ID, "edited"))
	got, err := repo.GetByID(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Text)

	assert.ErrorIs(t, repo.UpdateText(ctx, "missing", "x"), repository.ErrNotFound)
}

func TestStoryRepository_AddView(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := gormrepo.NewStoryRepository(testDB.DB)
	ctx := context.Background()

	story := testutil.NewStoryBuilder().Build(t, testDB.DB)
	first, second := uuid.New(), uuid.New()

	t.Run("repeated views are recorded once", func(t *testing.T) {
		require.NoError(t, repo.AddView(ctx, story.ID, first))
		require.NoError(t, repo.AddView(ctx, story.ID, first))
		require.NoError(t, repo.AddView(ctx, story.ID, second))

		got, err := repo.GetByID(ctx, story.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{first, second}, got.ViewerIDs())
	})

	t.Run("unknown story", func(t *testing.T) {
		err := repo.AddView(ctx, "missing", first)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestStoryRepository_Delete(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := gormrepo.NewStoryRepository(testDB.DB)
	ctx := context.Background()

	story := testutil.NewStoryBuilder().WithViewers(uuid.New()).Build(t, testDB.DB)

	require.NoError(t, repo.Delete(ctx, story.ID))
	_, err := repo.GetByID(ctx, story.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	var views int64
	require.NoError(t, testDB.DB.Model(&domain.StoryView{}).Where("story_id = ?", story.ID).Count(&views).Error)
	assert.Zero(t, views)

	assert.ErrorIs(t, repo.Delete(ctx, story.ID), repository.ErrNotFound)
}

func TestStoryRepository_DeleteMany(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := gormrepo.NewStoryRepository(testDB.DB)
	ctx := context.Background()

	a := testutil.NewStoryBuilder().WithViewers(uuid.New()).Build(t, testDB.DB)
	b := testutil.NewStoryBuilder().Build(t, testDB.DB)
	keep := testutil.NewStoryBuilder().Build(t, testDB.DB)

	tests := []struct {
		name string
		ids  []string
		want []string
	}{
		{name: "empty batch", ids: nil, want: nil},
		{name: "existing and missing ids", ids: []string{a.ID, b.ID, "missing"}, want: []string{a.ID, b.ID}},
		{name: "already deleted", ids: []string{a.ID, b.ID}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			removed, err := repo.DeleteMany(ctx, tt.ids)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, removed)
		})
	}

	remaining, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, keep.ID, remaining[0].ID)
}

func TestStoryRepository_DeleteByUserID(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := gormrepo.NewStoryRepository(testDB.DB)
	ctx := context.Background()

	owner, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	other, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	testutil.NewStoryBuilder().WithOwner(owner).WithViewers(other.ID).Build(t, testDB.DB)
	testutil.NewStoryBuilder().WithOwner(owner).Build(t, testDB.DB)
	kept := testutil.NewStoryBuilder().WithOwner(other).WithViewers(owner.ID).Build(t, testDB.DB)

	n, err := repo.DeleteByUserID(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	remaining, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, kept.ID, remaining[0].ID)

	got, err := repo.GetByID(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{owner.ID}, got.ViewerIDs())
}
