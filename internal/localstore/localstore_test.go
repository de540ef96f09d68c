package localstore

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "local.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := openStore(t)

	require.NoError(t, store.Put("k", "v1"))
	got, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v1", got)

	// Overwrite.
	require.NoError(t, store.Put("k", "v2"))
	got, ok = store.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v2", got)
}

func TestGetMissingKey(t *testing.T) {
	store := openStore(t)
	_, ok := store.Get("absent")
	assert.False(t, ok)
}

func TestSaveLoadJSON(t *testing.T) {
	store := openStore(t)

	type entry struct {
		Name  string `json:"name"`
		Score int    `json:"score"`
	}
	in := []entry{{Name: "a", Score: 1}, {Name: "b", Score: 2}}
	require.NoError(t, store.SaveJSON(QuestionsKey, in))

	var out []entry
	require.True(t, store.LoadJSON(QuestionsKey, &out))
	assert.Equal(t, in, out)
}

func TestLoadJSONMalformedPayloadDegrades(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.Put(ResultsKey, "{not json"))

	var out []string
	assert.False(t, store.LoadJSON(ResultsKey, &out))
	assert.Empty(t, out)
}

func TestLoadJSONMissingKey(t *testing.T) {
	store := openStore(t)
	var out map[string]any
	assert.False(t, store.LoadJSON("never_written", &out))
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.db")

	store, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, store.Put("k", "survives"))
	require.NoError(t, store.Close())

	reopened, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()
	got, ok := reopened.Get("k")
	require.True(t, ok)
	assert.Equal(t, "survives", got)
}
