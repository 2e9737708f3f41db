package repositories_test

import (
	"context"
	"document-access/internal/domain/entities"
	domainrepo "document-access/internal/domain/repositories"
	"document-access/internal/infrastructure/database/repositories"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatisticFindRecent(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewStatisticRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entities.StatisticEntry{ID: "s1", UserID: "u1", DocumentID: "d1", DownloadPages: 1, CreatedAt: 100, UpdatedAt: 100}))
	require.NoError(t, repo.Create(ctx, &entities.StatisticEntry{ID: "s2", UserID: "u1", DocumentID: "d1", DownloadWork: 1, CreatedAt: 200, UpdatedAt: 200}))

	got, err := repo.FindRecent(ctx, "u1", "d1", 50)
	require.NoError(t, err)
	assert.Equal(t, "s2", got.ID)

	_, err = repo.FindRecent(ctx, "u1", "d1", 201)
	assert.ErrorIs(t, err, domainrepo.ErrNotFound)

	_, err = repo.FindRecent(ctx, "u2", "d1", 0)
	assert.ErrorIs(t, err, domainrepo.ErrNotFound)
}

func TestStatisticUpdate(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewStatisticRepository(db)
	ctx := context.Background()

	entry := &entities.StatisticEntry{ID: "s1", UserID: "u1", DocumentID: "d1", CreatedAt: 100, UpdatedAt: 100}
	entry.Count(entities.CountPage)
	require.NoError(t, repo.Create(ctx, entry))

	entry.Count(entities.CountPage)
	entry.Count(entities.CountWork)
	entry.UpdatedAt = 150
	require.NoError(t, repo.Update(ctx, entry))

	got, err := repo.FindRecent(ctx, "u1", "d1", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, got.DownloadPages)
	assert.Equal(t, 1, got.DownloadWork)
	assert.Equal(t, int64(150), got.UpdatedAt)

	missing := &entities.StatisticEntry{ID: "nope"}
	assert.ErrorIs(t, repo.Update(ctx, missing), domainrepo.ErrNotFound)
}

func TestStatisticFindFilter(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewStatisticRepository(db)
	ctx := context.Background()

	for _, e := range []*entities.StatisticEntry{
		{ID: "a", UserID: "u1", DocumentID: "d1", CreatedAt: 100},
		{ID: "b", UserID: "u1", DocumentID: "d2", CreatedAt: 200},
		{ID: "c", UserID: "u2", DocumentID: "d1", CreatedAt: 300},
	} {
		require.NoError(t, repo.Create(ctx, e))
	}

	all, err := repo.Find(ctx, entities.StatisticFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)

	own, err := repo.Find(ctx, entities.StatisticFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, own, 2)

	window, err := repo.Find(ctx, entities.StatisticFilter{From: 150, To: 300})
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, "c", window[0].ID)
	assert.Equal(t, "b", window[1].ID)

	upper, err := repo.Find(ctx, entities.StatisticFilter{To: 200})
	require.NoError(t, err)
	assert.Len(t, upper, 2)
}
