package settings

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vicky05092005/statatics-quiz/internal/remotestore"
)

func defaults() Settings {
	return Settings{QuestionCount: 10, DurationMinutes: 30}
}

func TestDefaultsWithoutRemote(t *testing.T) {
	mgr := NewManager(nil, defaults(), zerolog.Nop())

	assert.False(t, mgr.Load(context.Background()))
	assert.Equal(t, Settings{QuestionCount: 10, DurationMinutes: 30}, mgr.Current())
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	store := remotestore.NewMemoryStore()
	ctx := context.Background()

	writer := NewManager(store, defaults(), zerolog.Nop())
	require.NoError(t, writer.Save(ctx, 15, 45))

	reader := NewManager(store, defaults(), zerolog.Nop())
	assert.True(t, reader.Load(ctx))
	assert.Equal(t, Settings{QuestionCount: 15, DurationMinutes: 45}, reader.Current())
}

func TestSaveRejectsOutOfRange(t *testing.T) {
	store := remotestore.NewMemoryStore()
	mgr := NewManager(store, defaults(), zerolog.Nop())
	ctx := context.Background()

	assert.ErrorIs(t, mgr.Save(ctx, 0, 30), ErrOutOfRange)
	assert.ErrorIs(t, mgr.Save(ctx, 101, 30), ErrOutOfRange)
	assert.ErrorIs(t, mgr.Save(ctx, 10, 0), ErrOutOfRange)
	assert.ErrorIs(t, mgr.Save(ctx, 10, 241), ErrOutOfRange)

	// Rejected before any mutation: in-memory and remote both untouched.
	assert.Equal(t, defaults(), mgr.Current())
	_, found, err := store.GetOne(ctx, remotestore.CollectionSettings, remotestore.SettingsDocID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoadTreatsZeroAndJunkAsMissing(t *testing.T) {
	store := remotestore.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.SetOne(ctx, remotestore.CollectionSettings, remotestore.SettingsDocID, map[string]any{
		"questionCount":   float64(0),
		"durationMinutes": "garbage",
	}, false))

	mgr := NewManager(store, defaults(), zerolog.Nop())
	assert.True(t, mgr.Load(ctx))
	assert.Equal(t, defaults(), mgr.Current())
}

func TestLoadPicksUpPartialDocument(t *testing.T) {
	store := remotestore.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.SetOne(ctx, remotestore.CollectionSettings, remotestore.SettingsDocID, map[string]any{
		"questionCount": float64(25),
	}, false))

	mgr := NewManager(store, defaults(), zerolog.Nop())
	assert.True(t, mgr.Load(ctx))
	assert.Equal(t, Settings{QuestionCount: 25, DurationMinutes: 30}, mgr.Current())
}

func TestSaveMergePreservesForeignFields(t *testing.T) {
	store := remotestore.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.SetOne(ctx, remotestore.CollectionSettings, remotestore.SettingsDocID, map[string]any{
		"theme": "dark",
	}, false))

	mgr := NewManager(store, defaults(), zerolog.Nop())
	require.NoError(t, mgr.Save(ctx, 20, 60))

	doc, found, err := store.GetOne(ctx, remotestore.CollectionSettings, remotestore.SettingsDocID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "dark", doc.Data["theme"])
	assert.Equal(t, 20, doc.Data["questionCount"])
}
