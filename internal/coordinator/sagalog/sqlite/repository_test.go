package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/ecommerce-catalog/internal/coordinator/sagalog"
)

func openTemp(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "nested", "saga.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSaveAndGetLatest(t *testing.T) {
	repo := openTemp(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 10, 0, 0, 500_000_000, time.UTC)
	entries := []*sagalog.SagaLog{
		{SagaID: "o1", Status: sagalog.StatusStarted, Payload: `{"user_id":"u1"}`, ErrorMessages: "[]", UpdatedAt: base},
		// .51s sorts after .5s only with fixed-width fractions
		{SagaID: "o1", Status: sagalog.StatusStepDone, CurrentStep: "Reserve_Stock_Step", ErrorMessages: "[]", UpdatedAt: base.Add(10 * time.Millisecond)},
		{SagaID: "o2", Status: sagalog.StatusStarted, ErrorMessages: "[]", UpdatedAt: base.Add(time.Second)},
	}
	for _, e := range entries {
		require.NoError(t, repo.Save(ctx, e))
	}

	latest, err := repo.GetLatest(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, sagalog.StatusStepDone, latest.Status)
	assert.Equal(t, "Reserve_Stock_Step", latest.CurrentStep)
	assert.Equal(t, "", latest.Payload)
	assert.True(t, latest.UpdatedAt.Equal(base.Add(10*time.Millisecond)))
}

func TestHistory_OldestFirst(t *testing.T) {
	repo := openTemp(t)
	ctx := context.Background()

	for _, st := range []sagalog.Status{sagalog.StatusStarted, sagalog.StatusCompensating, sagalog.StatusFailed} {
		require.NoError(t, repo.Save(ctx, sagalog.NewEntry(ctx, "o9", st, "", "", []string{"boom"})))
	}

	history, err := repo.History(ctx, "o9")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, sagalog.StatusStarted, history[0].Status)
	assert.Equal(t, sagalog.StatusFailed, history[2].Status)
	assert.JSONEq(t, `["boom"]`, history[2].ErrorMessages)
}

func TestGetLatest_NotFound(t *testing.T) {
	repo := openTemp(t)

	_, err := repo.GetLatest(context.Background(), "missing")
	require.ErrorIs(t, err, sagalog.ErrNotFound)
}
