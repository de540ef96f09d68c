package bank

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vicky05092005/statatics-quiz/internal/localstore"
	"github.com/vicky05092005/statatics-quiz/internal/quiz"
	"github.com/vicky05092005/statatics-quiz/internal/remotestore"
)

// brokenStore fails every operation, simulating a dead remote.
type brokenStore struct{}

var errBroken = errors.New("remote down")

func (brokenStore) ListAll(context.Context, string) ([]remotestore.Document, error) {
	return nil, errBroken
}
func (brokenStore) GetOne(context.Context, string, string) (remotestore.Document, bool, error) {
	return remotestore.Document{}, false, errBroken
}
func (brokenStore) AddOne(context.Context, string, map[string]any) (string, error) {
	return "", errBroken
}
func (brokenStore) SetOne(context.Context, string, string, map[string]any, bool) error {
	return errBroken
}
func (brokenStore) DeleteOne(context.Context, string, string) error { return errBroken }
func (brokenStore) Subscribe(context.Context, string, remotestore.SnapshotFunc) (remotestore.Unsubscribe, error) {
	return nil, errBroken
}
func (brokenStore) ServerTimestamp(context.Context) (time.Time, error) {
	return time.Time{}, errBroken
}
func (brokenStore) Ping(context.Context) error { return errBroken }

func newLocal(t *testing.T) *localstore.Store {
	t.Helper()
	store, err := localstore.Open(filepath.Join(t.TempDir(), "local.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleQuestion(text string) quiz.Question {
	return quiz.Question{
		Text:    text,
		Options: []string{"a", "b", "c", "d"},
		Answer:  "b",
	}
}

func TestLoadRemoteDiscardsMalformedDocuments(t *testing.T) {
	store := remotestore.NewMemoryStore()
	ctx := context.Background()
	_, err := store.AddOne(ctx, remotestore.CollectionQuestions, map[string]any{
		"question": "valid?",
		"options":  []any{"a", "b"},
		"answer":   "a",
	})
	require.NoError(t, err)
	_, err = store.AddOne(ctx, remotestore.CollectionQuestions, map[string]any{
		"question": "no options",
		"answer":   "a",
	})
	require.NoError(t, err)
	_, err = store.AddOne(ctx, remotestore.CollectionQuestions, map[string]any{
		"question": "answer outside options",
		"options":  []any{"a", "b"},
		"answer":   "z",
	})
	require.NoError(t, err)

	mgr := NewManager(store, newLocal(t), zerolog.Nop())
	assert.True(t, mgr.LoadRemote(ctx))
	assert.Equal(t, 1, mgr.Count())
	assert.Equal(t, "valid?", mgr.Snapshot()[0].Text)
}

func TestLoadRemoteEmptyReturnsFalse(t *testing.T) {
	mgr := NewManager(remotestore.NewMemoryStore(), newLocal(t), zerolog.Nop())
	assert.False(t, mgr.LoadRemote(context.Background()))

	broken := NewManager(brokenStore{}, newLocal(t), zerolog.Nop())
	assert.False(t, broken.LoadRemote(context.Background()))
}

func TestLoadRemoteMirrorsToLocal(t *testing.T) {
	store := remotestore.NewMemoryStore()
	ctx := context.Background()
	_, err := store.AddOne(ctx, remotestore.CollectionQuestions, map[string]any{
		"question": "persisted?",
		"options":  []any{"yes", "no"},
		"answer":   "yes",
	})
	require.NoError(t, err)

	local := newLocal(t)
	mgr := NewManager(store, local, zerolog.Nop())
	require.True(t, mgr.LoadRemote(ctx))

	// A fresh manager over the same local store sees the mirrored bank.
	offline := NewManager(nil, local, zerolog.Nop())
	assert.True(t, offline.LoadLocal())
	assert.Equal(t, 1, offline.Count())
}

func TestAddSurvivesRemoteFailure(t *testing.T) {
	local := newLocal(t)
	mgr := NewManager(brokenStore{}, local, zerolog.Nop())

	added, err := mgr.Add(context.Background(), sampleQuestion("offline add"))
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, 1, mgr.Count())

	reloaded := NewManager(nil, local, zerolog.Nop())
	assert.True(t, reloaded.LoadLocal())
	assert.Equal(t, "offline add", reloaded.Snapshot()[0].Text)
}

func TestAddRejectsInvalidQuestion(t *testing.T) {
	mgr := NewManager(nil, newLocal(t), zerolog.Nop())
	_, err := mgr.Add(context.Background(), quiz.Question{Text: "incomplete"})
	assert.ErrorIs(t, err, quiz.ErrValidation)
	assert.Zero(t, mgr.Count())
}

func TestUpdateAndDelete(t *testing.T) {
	store := remotestore.NewMemoryStore()
	ctx := context.Background()
	mgr := NewManager(store, newLocal(t), zerolog.Nop())

	added, err := mgr.Add(ctx, sampleQuestion("original"))
	require.NoError(t, err)

	updated := sampleQuestion("edited")
	require.NoError(t, mgr.Update(ctx, added.ID, updated))
	assert.Equal(t, "edited", mgr.Snapshot()[0].Text)

	doc, found, err := store.GetOne(ctx, remotestore.CollectionQuestions, added.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "edited", doc.Data["question"])

	require.NoError(t, mgr.Delete(ctx, added.ID))
	assert.Zero(t, mgr.Count())
	_, found, err = store.GetOne(ctx, remotestore.CollectionQuestions, added.ID)
	require.NoError(t, err)
	assert.False(t, found)

	assert.ErrorIs(t, mgr.Update(ctx, "missing", updated), ErrNotFound)
	assert.ErrorIs(t, mgr.Delete(ctx, "missing"), ErrNotFound)
}

func TestReplaceAllRemote(t *testing.T) {
	store := remotestore.NewMemoryStore()
	ctx := context.Background()
	_, err := store.AddOne(ctx, remotestore.CollectionQuestions, map[string]any{
		"question": "stale remote",
		"options":  []any{"a", "b"},
		"answer":   "a",
	})
	require.NoError(t, err)

	mgr := NewManager(store, newLocal(t), zerolog.Nop())
	_, err = mgr.Add(ctx, sampleQuestion("fresh one"))
	require.NoError(t, err)
	_, err = mgr.Add(ctx, sampleQuestion("fresh two"))
	require.NoError(t, err)

	require.NoError(t, mgr.ReplaceAllRemote(ctx))

	docs, err := store.ListAll(ctx, remotestore.CollectionQuestions)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	texts := map[string]bool{}
	for _, doc := range docs {
		text, _ := doc.Data["question"].(string)
		texts[text] = true
	}
	assert.True(t, texts["fresh one"])
	assert.True(t, texts["fresh two"])
}

func TestReplaceAllRemoteWithoutRemote(t *testing.T) {
	mgr := NewManager(nil, newLocal(t), zerolog.Nop())
	assert.ErrorIs(t, mgr.ReplaceAllRemote(context.Background()), remotestore.ErrUnavailable)
}
