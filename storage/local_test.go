package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestLocalStore_PutGetDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	key := "transcripts/ab/abc123.json"

	require.NoError(t, store.Put(ctx, key, strings.NewReader(`{"raw": true}`)))

	reader, err := store.Get(ctx, key)
	require.NoError(t, err)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, `{"raw": true}`, string(body))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Get(ctx, key)
	assert.Error(t, err)
}

func TestLocalStore_Overwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k.json", strings.NewReader("first")))
	require.NoError(t, store.Put(ctx, "k.json", strings.NewReader("second")))

	reader, err := store.Get(ctx, "k.json")
	require.NoError(t, err)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "second", string(body))
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{
		"../outside.json",
		"a/../../outside.json",
		"/etc/passwd",
	} {
		t.Run(key, func(t *testing.T) {
			assert.Error(t, store.Put(ctx, key, strings.NewReader("x")))
			_, err := store.Get(ctx, key)
			assert.Error(t, err)
			assert.Error(t, store.Delete(ctx, key))
		})
	}
}

func TestLocalStore_DeleteMissingKeyIsNoop(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Delete(context.Background(), "never/existed.json"))
}

func TestLocalStore_GetMissingKey(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "missing.json")
	assert.ErrorContains(t, err, "not found")
}
