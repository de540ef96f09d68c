package remotestore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, zerolog.Nop())
}

func TestRedisStoreCRUD(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	id, err := store.AddOne(ctx, "things", map[string]any{"label": "first", "rank": float64(1)})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, found, err := store.GetOne(ctx, "things", id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "first", doc.Data["label"])
	assert.Equal(t, float64(1), doc.Data["rank"])

	require.NoError(t, store.SetOne(ctx, "things", "fixed-id", map[string]any{"label": "second"}, false))
	docs, err := store.ListAll(ctx, "things")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	require.NoError(t, store.DeleteOne(ctx, "things", id))
	_, found, err = store.GetOne(ctx, "things", id)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStoreGetOneMissing(t *testing.T) {
	store := newRedisStore(t)
	_, found, err := store.GetOne(context.Background(), "things", "nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStoreMergePreservesExistingFields(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetOne(ctx, "settings", "config", map[string]any{
		"questionCount": float64(10),
		"theme":         "dark",
	}, false))
	require.NoError(t, store.SetOne(ctx, "settings", "config", map[string]any{
		"questionCount": float64(25),
	}, true))

	doc, found, err := store.GetOne(ctx, "settings", "config")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, float64(25), doc.Data["questionCount"])
	assert.Equal(t, "dark", doc.Data["theme"])
}

func TestRedisStoreSetWithoutMergeReplaces(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetOne(ctx, "settings", "config", map[string]any{"a": "1", "b": "2"}, false))
	require.NoError(t, store.SetOne(ctx, "settings", "config", map[string]any{"a": "3"}, false))

	doc, _, err := store.GetOne(ctx, "settings", "config")
	require.NoError(t, err)
	assert.Equal(t, "3", doc.Data["a"])
	_, hasB := doc.Data["b"]
	assert.False(t, hasB)
}

func TestRedisStoreListAllSortedByID(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, store.SetOne(ctx, "things", id, map[string]any{"id": id}, false))
	}

	docs, err := store.ListAll(ctx, "things")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)
	assert.Equal(t, "c", docs[2].ID)
}

func TestRedisStoreSubscribe(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetOne(ctx, "results", "r1", map[string]any{"roll": "A1"}, false))

	snapshots := make(chan []Document, 8)
	unsub, err := store.Subscribe(ctx, "results", func(docs []Document) {
		snapshots <- docs
	})
	require.NoError(t, err)
	defer unsub()

	// Initial snapshot carries the pre-existing document.
	initial := waitSnapshot(t, snapshots)
	require.Len(t, initial, 1)
	assert.Equal(t, "r1", initial[0].ID)

	require.NoError(t, store.SetOne(ctx, "results", "r2", map[string]any{"roll": "B2"}, false))

	// A change publish triggers a full re-list.
	var next []Document
	deadline := time.After(2 * time.Second)
	for len(next) < 2 {
		select {
		case next = <-snapshots:
		case <-deadline:
			t.Fatal("timed out waiting for snapshot with 2 documents")
		}
	}
	assert.Equal(t, "r1", next[0].ID)
	assert.Equal(t, "r2", next[1].ID)
}

func waitSnapshot(t *testing.T, ch <-chan []Document) []Document {
	t.Helper()
	select {
	case docs := <-ch:
		return docs
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestRedisStorePing(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewRedisStore(client, zerolog.Nop())

	require.NoError(t, store.Ping(context.Background()))

	mr.Close()
	err := store.Ping(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRedisStoreServerTimestamp(t *testing.T) {
	store := newRedisStore(t)
	ts, err := store.ServerTimestamp(context.Background())
	require.NoError(t, err)
	assert.False(t, ts.IsZero())
}
