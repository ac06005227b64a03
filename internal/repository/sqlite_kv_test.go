package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/takeoff/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVRepo_SetGetDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteKVRepo(db)
	ctx := context.Background()

	_, err := repo.Get(ctx, "takeoff.events.v1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Set(ctx, "takeoff.events.v1", `{"version":1}`))
	require.NoError(t, repo.Set(ctx, "takeoff.events.v1", `{"version":1,"events":[]}`))

	got, err := repo.Get(ctx, "takeoff.events.v1")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1,"events":[]}`, got, "second write should replace the first")

	require.NoError(t, repo.Set(ctx, "takeoff.settings.v1", `{}`))
	keys, err := repo.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"takeoff.events.v1", "takeoff.settings.v1"}, keys)

	require.NoError(t, repo.Delete(ctx, "takeoff.events.v1"))
	require.NoError(t, repo.Delete(ctx, "takeoff.events.v1"), "deleting a missing key is fine")
	_, err = repo.Get(ctx, "takeoff.events.v1")
	assert.ErrorIs(t, err, ErrNotFound)
}
