package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsforge-io/ticketwash/internal/sanitizer"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreSaveAndList(t *testing.T) {
	store := tempStore(t)
	ctx := context.Background()

	stats := sanitizer.Stats{Fields: 3, Comments: 2, Persons: 2, DeviceIPs: 1}
	rec := NewRecord("cli", "ollama", stats, 120*time.Millisecond)
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, rec.ID, got[0].ID)
	assert.Equal(t, "cli", got[0].Source)
	assert.Equal(t, "ollama", got[0].Detector)
	assert.Equal(t, int64(120), got[0].DurationMS)
	assert.Equal(t, stats, got[0].Stats)
}

func TestStoreListNewestFirstWithLimit(t *testing.T) {
	store := tempStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := NewRecord("http", "openai", sanitizer.Stats{Fields: i}, 0)
		rec.Timestamp = time.Date(2026, 8, 1+i, 0, 0, 0, 0, time.UTC)
		require.NoError(t, store.Save(ctx, rec))
	}

	got, err := store.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 4, got[0].Stats.Fields)
	assert.Equal(t, 3, got[1].Stats.Fields)
	assert.Equal(t, 2, got[2].Stats.Fields)
}

func TestStoreListEmpty(t *testing.T) {
	store := tempStore(t)
	got, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
